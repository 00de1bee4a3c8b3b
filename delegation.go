package dnscache

import (
	"github.com/miekg/dns"
)

// NSName is one nameserver in a DelegationPoint, with its cached
// address rrsets if any were found.
type NSName struct {
	Name string
	A    *ServedRRset // nil if no A rrset was cached
	AAAA *ServedRRset // nil if no AAAA rrset was cached
}

// DelegationPoint is the best known (ancestor or exact) zone cut for a
// name: its owner, the nameservers serving it, and any DS/NSEC
// attached at the cut. Owned by the caller; it never aliases cache memory.
type DelegationPoint struct {
	Name     string
	NS       []NSName
	DSOrNSEC *ServedRRset
	IsNSEC   bool // true if DSOrNSEC holds an NSEC rather than a DS
}

// DelegationBuilder finds the closest enclosing NS rrset for a name
// and assembles a DelegationPoint, optionally alongside a referral
// ServedMessage ready to send as a response.
//
// NSEC3 delegation security is not handled: only a plain NSEC at the
// parent side of the cut is considered.
type DelegationBuilder struct {
	RRsets *RRsetStore
}

// NewDelegationBuilder returns a DelegationBuilder over the given RRsetStore.
func NewDelegationBuilder(rrsets *RRsetStore) *DelegationBuilder {
	return &DelegationBuilder{RRsets: rrsets}
}

// FindDelegation walks the ancestors of qname (including qname itself)
// looking for a cached NS rrset, and assembles a DelegationPoint around
// the closest one found. If wantMsg is true it also builds a referral
// ServedMessage with the NS set, DS/NSEC, and any glue.
func (b *DelegationBuilder) FindDelegation(qname string, qtype, qclass uint16, now int64, wantMsg bool) (*DelegationPoint, *ServedMessage, bool) {
	nsLocked, nsKey, ok := b.findClosestOfType(qname, qclass, dns.TypeNS, now)
	if !ok {
		return nil, nil, false
	}
	nsData := nsLocked.Data().toRelative(now)
	nsNames := decodeNSNames(nsData)
	nsLocked.Unlock()

	dp := &DelegationPoint{Name: nsKey.Name}

	var msg *ServedMessage
	if wantMsg {
		msg = &ServedMessage{
			QName:     qname,
			QType:     qtype,
			QClass:    qclass,
			Flags:     FlagQR,
			QDCount:   1,
			Authority: []ServedRRset{{Key: nsKey, Data: nsData}},
			NSCount:   1,
		}
	}

	b.attachSecurity(dp, msg, nsKey.Name, qclass, now)

	dp.NS = make([]NSName, len(nsNames))
	for i, name := range nsNames {
		dp.NS[i] = NSName{Name: name}
		dp.NS[i].A = b.attachGlue(msg, name, dns.TypeA, qclass, now)
		dp.NS[i].AAAA = b.attachGlue(msg, name, dns.TypeAAAA, qclass, now)
	}

	return dp, msg, true
}

// findClosestOfType walks qname's ancestors (including qname itself),
// one label at a time, returning the first cached RRset of searchType
// found. The caller must Unlock() the returned entry.
func (b *DelegationBuilder) findClosestOfType(qname string, qclass, searchType uint16, now int64) (*LockedRRsetEntry, RRsetKey, bool) {
	name := dns.CanonicalName(qname)
	for {
		key := NewRRsetKey(name, searchType, qclass, 0)
		if locked, ok := b.RRsets.Lookup(key, false, now); ok {
			return locked, locked.Key(), true
		}
		if name == "." {
			return nil, RRsetKey{}, false
		}
		name = parentName(name)
	}
}

// parentName strips the leftmost label from a canonical (wire-escaped,
// dot-terminated) name, returning "." once exhausted.
func parentName(name string) string {
	if name == "." || name == "" {
		return "."
	}
	off, end := dns.NextLabel(name, 0)
	if end || off >= len(name) {
		return "."
	}
	return name[off:]
}

// decodeNSNames unpacks the target name out of each wire-format NS
// rdata buffer (2-byte length prefix + packed domain name).
func decodeNSNames(d *RRsetData) []string {
	names := make([]string, 0, d.Count)
	for i := 0; i < d.Count; i++ {
		buf := d.RRData[i]
		if len(buf) < 3 {
			continue
		}
		name, _, err := dns.UnpackDomainName(buf[2:], 0)
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	return names
}

func (b *DelegationBuilder) attachSecurity(dp *DelegationPoint, msg *ServedMessage, owner string, qclass uint16, now int64) {
	key := NewRRsetKey(owner, dns.TypeDS, qclass, 0)
	locked, ok := b.RRsets.Lookup(key, false, now)
	isNSEC := false
	if !ok {
		// Flags 0 selects the parent-side NSEC, not the child's
		// apex copy (KeyFlagNSECAtApex).
		key = NewRRsetKey(owner, dns.TypeNSEC, qclass, 0)
		locked, ok = b.RRsets.Lookup(key, false, now)
		isNSEC = true
	}
	if !ok {
		return
	}
	defer locked.Unlock()
	served := ServedRRset{Key: locked.Key(), Data: locked.Data().toRelative(now)}
	dp.DSOrNSEC = &served
	dp.IsNSEC = isNSEC
	if msg != nil {
		msg.Authority = append(msg.Authority, served)
		msg.NSCount++
	}
}

// attachGlue looks up one address type for a delegation nameserver
// name and, if present, appends it to msg's additional section.
func (b *DelegationBuilder) attachGlue(msg *ServedMessage, name string, rrtype, qclass uint16, now int64) *ServedRRset {
	key := NewRRsetKey(name, rrtype, qclass, 0)
	locked, ok := b.RRsets.Lookup(key, false, now)
	if !ok {
		return nil
	}
	defer locked.Unlock()
	served := ServedRRset{Key: locked.Key(), Data: locked.Data().toRelative(now)}
	if msg != nil {
		msg.Additional = append(msg.Additional, served)
		msg.ARCount++
	}
	return &served
}
