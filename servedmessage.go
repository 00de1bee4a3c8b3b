package dnscache

// ServedRRset is one constituent of a ServedMessage: a deep copy of an
// RRsetData with TTLs already rebased to seconds remaining, alongside
// the key it was cached under.
type ServedRRset struct {
	Key  RRsetKey
	Data *RRsetData
}

// ServedMessage is the object returned to a caller: a deep copy of the
// query info and every constituent RRset, owned solely by the caller.
// It never aliases cache memory.
type ServedMessage struct {
	QName    string
	QType    uint16
	QClass   uint16
	Flags    uint16
	QDCount  uint16
	ANCount  int
	NSCount  int
	ARCount  int
	ExtError *ExtendedRcode

	// Answer, Authority, and Additional hold exactly ANCount, NSCount,
	// and ARCount entries respectively.
	Answer     []ServedRRset
	Authority  []ServedRRset
	Additional []ServedRRset
}

// Rrsets returns Answer, Authority, and Additional concatenated in
// section order.
func (m *ServedMessage) Rrsets() []ServedRRset {
	out := make([]ServedRRset, 0, len(m.Answer)+len(m.Authority)+len(m.Additional))
	out = append(out, m.Answer...)
	out = append(out, m.Authority...)
	out = append(out, m.Additional...)
	return out
}
