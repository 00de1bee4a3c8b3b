package dnscache

import (
	"fmt"

	"github.com/jedisct1/dlog"
	"github.com/miekg/dns"
)

const maxNameLength = 255

// RcodeYXDOMAIN is the rcode set on a synthesized DNAME reply whose
// rewritten target would exceed the wire name-length limit.
const RcodeYXDOMAIN = 6

// Synthesizer turns cached state into served replies: an exact
// MessageStore hit, DNAME-derived CNAME synthesis, a bare CNAME hit,
// or a miss, tried strictly in that order.
type Synthesizer struct {
	Messages *MessageStore
	RRsets   *RRsetStore
}

// NewSynthesizer returns a Synthesizer over the given stores.
func NewSynthesizer(messages *MessageStore, rrsets *RRsetStore) *Synthesizer {
	return &Synthesizer{Messages: messages, RRsets: rrsets}
}

// Lookup tries, in order: exact message hit, DNAME synthesis walking
// qname's ancestors, a bare CNAME hit at qname, and finally a miss.
// scratch is used to batch LRU touch notifications; it may be
// nil, in which case no touch is recorded but correctness is
// unaffected.
func (s *Synthesizer) Lookup(qname string, qtype, qclass uint16, now int64, scratch *Arena) (*ServedMessage, bool) {
	qname = dns.CanonicalName(qname)

	if msg, ok := s.lookupExact(qname, qtype, qclass, now, scratch); ok {
		return msg, true
	}
	if msg, ok := s.lookupDNAME(qname, qtype, qclass, now); ok {
		return msg, true
	}
	if msg, ok := s.lookupCNAME(qname, qtype, qclass, now); ok {
		return msg, true
	}
	return nil, false
}

func (s *Synthesizer) lookupExact(qname string, qtype, qclass uint16, now int64, scratch *Arena) (*ServedMessage, bool) {
	qkey := NewQueryKey(qname, qtype, qclass)
	locked, ok := s.Messages.Lookup(qkey)
	if !ok {
		return nil, false
	}
	reply := locked.Reply()
	if reply.TTL <= now {
		locked.Unlock()
		return nil, false
	}
	if reply.RRsetCount() == 0 || len(reply.Refs) != reply.RRsetCount() {
		dlog.Errorf("%v", &InvariantViolationError{
			Msg: fmt.Sprintf("cached message for %s has %d refs for %d rrsets", qkey.QName, len(reply.Refs), reply.RRsetCount()),
		})
		locked.Unlock()
		return nil, false
	}

	refsLocked, ok := s.RRsets.LockRefs(reply.Refs, now)
	if !ok {
		locked.Unlock()
		return nil, false
	}

	msg := &ServedMessage{
		QName:    qname,
		QType:    qtype,
		QClass:   qclass,
		Flags:    reply.Flags,
		QDCount:  reply.QDCount,
		ANCount:  reply.ANCount,
		NSCount:  reply.NSCount,
		ARCount:  reply.ARCount,
		ExtError: reply.ExtError,
	}
	served := make([]ServedRRset, len(refsLocked))
	for i, l := range refsLocked {
		served[i] = ServedRRset{Key: l.Key(), Data: l.Data().toRelative(now)}
	}
	msg.Answer = served[:reply.ANCount]
	msg.Authority = served[reply.ANCount : reply.ANCount+reply.NSCount]
	msg.Additional = served[reply.ANCount+reply.NSCount:]

	if scratch != nil {
		s.RRsets.UnlockTouch(refsLocked, scratch)
	} else {
		s.RRsets.UnlockRefs(refsLocked)
	}
	locked.Unlock()
	return msg, true
}

// lookupDNAME walks qname ancestor-wise, including qname itself,
// stripping one label per iteration, looking for a cached DNAME.
func (s *Synthesizer) lookupDNAME(qname string, qtype, qclass uint16, now int64) (*ServedMessage, bool) {
	name := qname
	for {
		key := NewRRsetKey(name, dns.TypeDNAME, qclass, 0)
		locked, ok := s.RRsets.Lookup(key, false, now)
		if ok {
			msg, err := s.synthesizeDNAME(locked, qname, qtype, qclass, name, now)
			locked.Unlock()
			if err != nil {
				dlog.Warnf("%v", err)
				s.RRsets.Evict(key)
				return nil, false
			}
			return msg, true
		}
		if name == "." {
			return nil, false
		}
		name = parentName(name)
	}
}

// synthesizeDNAME builds the served reply for a DNAME hit at owner,
// where qname is the original query name. locked must already be
// read-locked on the DNAME entry. Returns ErrMalformedCachedData
// (wrapped) if the cached DNAME rdata does not decode; the caller
// evicts the entry and treats it as a miss.
func (s *Synthesizer) synthesizeDNAME(locked *LockedRRsetEntry, qname string, qtype, qclass uint16, owner string, now int64) (*ServedMessage, error) {
	dnameData := locked.Data().toRelative(now)

	msg := &ServedMessage{
		QName:   qname,
		QType:   qtype,
		QClass:  qclass,
		Flags:   FlagQR,
		QDCount: 1,
		ANCount: 1,
		Answer:  []ServedRRset{{Key: locked.Key(), Data: dnameData}},
	}

	// A query for the DNAME itself degenerates to the bare DNAME;
	// there is no name left of the owner to rewrite.
	if qtype == dns.TypeDNAME && owner == qname {
		return msg, nil
	}

	target, ok := locked.Data().DNAMETarget()
	if !ok {
		return nil, fmt.Errorf("%w: %s rrset at %s", ErrMalformedCachedData, DnsTypeToString(dns.TypeDNAME), owner)
	}

	prefix := stripSuffix(qname, owner)
	rewritten := prefix + target
	wire := make([]byte, 2*maxNameLength+2)
	if n, err := dns.PackDomainName(rewritten, wire, 0, nil, false); err != nil || n > maxNameLength {
		msg.Flags = SetRcode(msg.Flags, RcodeYXDOMAIN)
		msg.ExtError = ExtendedRcodeOther.Ptr()
		return msg, nil
	}

	cnameData := synthesizedCNAME(rewritten)
	msg.Answer = append(msg.Answer, ServedRRset{
		Key:  NewRRsetKey(qname, dns.TypeCNAME, qclass, 0),
		Data: cnameData,
	})
	msg.ANCount = 2
	return msg, nil
}

// stripSuffix returns the labels of qname that precede owner, e.g.
// stripSuffix("www.example.com.", "example.com.") == "www.".
func stripSuffix(qname, owner string) string {
	if owner == "." {
		return qname
	}
	if len(qname) <= len(owner) {
		return ""
	}
	return qname[:len(qname)-len(owner)]
}

// synthesizedCNAME builds the non-cacheable CNAME record data
// produced by DNAME synthesis: TTL 0, TrustAnswerNoAA.
func synthesizedCNAME(target string) *RRsetData {
	packed := make([]byte, 255)
	n, err := dns.PackDomainName(target, packed, 0, nil, false)
	if err != nil {
		n = 0
	}
	rdata := [][]byte{append([]byte(nil), packed[:n]...)}
	return NewRRsetData(rdata, []int64{0}, 1, 0, TrustAnswerNoAA, SecurityUnchecked)
}

// lookupCNAME looks up a bare CNAME at qname and, if present and
// unexpired, returns it as a single-rrset answer. A CNAME whose rdata
// fails to decode is evicted and treated as a miss.
func (s *Synthesizer) lookupCNAME(qname string, qtype, qclass uint16, now int64) (*ServedMessage, bool) {
	key := NewRRsetKey(qname, dns.TypeCNAME, qclass, 0)
	locked, ok := s.RRsets.Lookup(key, false, now)
	if !ok {
		return nil, false
	}
	defer locked.Unlock()
	if _, ok := locked.Data().CNAMETarget(); !ok {
		dlog.Warnf("%v", fmt.Errorf("%w: %s rrset at %s", ErrMalformedCachedData, DnsTypeToString(dns.TypeCNAME), qname))
		s.RRsets.Evict(key)
		return nil, false
	}
	msg := &ServedMessage{
		QName:   qname,
		QType:   qtype,
		QClass:  qclass,
		Flags:   FlagQR,
		QDCount: 1,
		ANCount: 1,
		Answer:  []ServedRRset{{Key: locked.Key(), Data: locked.Data().toRelative(now)}},
	}
	return msg, true
}
