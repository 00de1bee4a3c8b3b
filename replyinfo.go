package dnscache

// Reply flag bits, laid out the way the DNS header packs them (see
// RFC 1035 §4.1.1): only the bits the cache core itself sets or reads
// are named here; anything else a caller wants in the served header
// it sets directly on Flags.
const (
	FlagQR    uint16 = 1 << 15
	FlagAA    uint16 = 1 << 10
	rcodeMask uint16 = 0x000f
)

// SetRcode returns flags with its low 4 bits replaced by rcode.
func SetRcode(flags uint16, rcode int) uint16 {
	return (flags &^ rcodeMask) | (uint16(rcode) & rcodeMask) // #nosec G115
}

// Rcode returns the rcode encoded in flags' low 4 bits.
func Rcode(flags uint16) int { return int(flags & rcodeMask) }

// ReplyInfo is the payload stored for a QueryKey: header flags and
// section counts, an absolute expiry, and the sorted list of RRsetRef
// that make up the answer/authority/additional sections. The actual
// record data lives in the RRsetStore; ReplyInfo only ever references
// it by identity.
type ReplyInfo struct {
	Flags    uint16
	QDCount  uint16
	ANCount  int
	NSCount  int
	ARCount  int
	TTL      int64
	Refs     []RRsetRef
	ExtError *ExtendedRcode // set on synthesized degenerate replies, e.g. DNAME overflow
}

// RRsetCount returns AN+NS+AR, the length Refs must have.
func (r *ReplyInfo) RRsetCount() int { return r.ANCount + r.NSCount + r.ARCount }

// sortRefs sorts r.Refs by the RRsetKey total order in place.
func (r *ReplyInfo) sortRefs() { sortRefs(r.Refs) }
