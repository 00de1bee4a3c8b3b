package dnscache

import (
	"testing"

	"github.com/miekg/dns"
)

func packName(t *testing.T, name string) []byte {
	t.Helper()
	buf := make([]byte, 1024)
	n, err := dns.PackDomainName(name, buf, 0, nil, false)
	if err != nil {
		t.Fatalf("PackDomainName(%q): %v", name, err)
	}
	return buf[:n]
}

func TestSynthesizerExactMessageHit(t *testing.T) {
	rrsets := NewRRsetStore(1024, 4)
	messages := NewMessageStore(1024, 4)
	synth := NewSynthesizer(messages, rrsets)

	key := NewRRsetKey("example.org.", dns.TypeA, dns.ClassINET, 0)
	data := NewRRsetData(aRdata(1), []int64{100}, 1, 0, TrustAnswerAA, SecurityUnchecked)
	ref := RRsetRef{Key: key}
	rrsets.Insert(&ref, data, 0)

	qkey := NewQueryKey("example.org.", dns.TypeA, dns.ClassINET)
	reply := &ReplyInfo{Flags: FlagQR | FlagAA, QDCount: 1, ANCount: 1, TTL: 100, Refs: []RRsetRef{ref}}
	messages.Store(qkey, reply, 0)

	msg, ok := synth.Lookup("example.org.", dns.TypeA, dns.ClassINET, 0, nil)
	if !ok {
		t.Fatalf("Lookup missed an exact message hit")
	}
	if len(msg.Answer) != 1 {
		t.Fatalf("Answer has %d rrsets; want 1", len(msg.Answer))
	}
	if msg.Answer[0].Data.TTL != 100 {
		t.Fatalf("served TTL = %d; want 100 (relative, now=0)", msg.Answer[0].Data.TTL)
	}
}

func TestSynthesizerExactHitFallsThroughOnStaleRef(t *testing.T) {
	rrsets := NewRRsetStore(1024, 4)
	messages := NewMessageStore(1024, 4)
	synth := NewSynthesizer(messages, rrsets)

	key := NewRRsetKey("example.org.", dns.TypeA, dns.ClassINET, 0)
	qkey := NewQueryKey("example.org.", dns.TypeA, dns.ClassINET)
	staleRef := RRsetRef{Key: key, ID: 42}
	reply := &ReplyInfo{Flags: FlagQR, ANCount: 1, TTL: 100, Refs: []RRsetRef{staleRef}}
	messages.Store(qkey, reply, 0)

	if _, ok := synth.Lookup("example.org.", dns.TypeA, dns.ClassINET, 0, nil); ok {
		t.Fatalf("Lookup succeeded despite a stale rrset reference")
	}
}

func TestSynthesizerDNAMEPreferredOverCNAME(t *testing.T) {
	rrsets := NewRRsetStore(1024, 4)
	messages := NewMessageStore(1024, 4)
	synth := NewSynthesizer(messages, rrsets)

	dnameKey := NewRRsetKey("example.org.", dns.TypeDNAME, dns.ClassINET, 0)
	dnameData := NewRRsetData([][]byte{packName(t, "other.org.")}, []int64{100}, 1, 0, TrustAnswerAA, SecurityUnchecked)
	dnameRef := RRsetRef{Key: dnameKey}
	rrsets.Insert(&dnameRef, dnameData, 0)

	cnameKey := NewRRsetKey("www.example.org.", dns.TypeCNAME, dns.ClassINET, 0)
	cnameData := NewRRsetData([][]byte{packName(t, "elsewhere.org.")}, []int64{100}, 1, 0, TrustAnswerAA, SecurityUnchecked)
	cnameRef := RRsetRef{Key: cnameKey}
	rrsets.Insert(&cnameRef, cnameData, 0)

	msg, ok := synth.Lookup("www.example.org.", dns.TypeA, dns.ClassINET, 0, nil)
	if !ok {
		t.Fatalf("Lookup missed")
	}
	if len(msg.Answer) != 2 {
		t.Fatalf("Answer has %d rrsets; want 2 (DNAME + synthesized CNAME)", len(msg.Answer))
	}
	if msg.Answer[0].Key.Type != dns.TypeDNAME {
		t.Fatalf("first answer rrset type = %d; want DNAME", msg.Answer[0].Key.Type)
	}
	if msg.Answer[1].Key.Type != dns.TypeCNAME {
		t.Fatalf("second answer rrset type = %d; want CNAME", msg.Answer[1].Key.Type)
	}
	if msg.Answer[1].Data.Trust != TrustAnswerNoAA {
		t.Fatalf("synthesized CNAME trust = %v; want TrustAnswerNoAA", msg.Answer[1].Data.Trust)
	}
	if msg.Answer[1].Data.TTL != 0 {
		t.Fatalf("synthesized CNAME TTL = %d; want 0", msg.Answer[1].Data.TTL)
	}
	target, ok := msg.Answer[1].Data.CNAMETarget()
	if !ok {
		t.Fatalf("synthesized CNAME target could not be decoded")
	}
	if target != "www.other.org." {
		t.Fatalf("synthesized CNAME target = %q; want %q", target, "www.other.org.")
	}
}

func TestSynthesizerDNAMEOverflowYieldsYXDOMAIN(t *testing.T) {
	rrsets := NewRRsetStore(1024, 4)
	messages := NewMessageStore(1024, 4)
	synth := NewSynthesizer(messages, rrsets)

	longTarget := ""
	for i := 0; i < 20; i++ {
		longTarget += "abcdefgh."
	}
	longTarget += "org."

	dnameKey := NewRRsetKey("example.org.", dns.TypeDNAME, dns.ClassINET, 0)
	dnameData := NewRRsetData([][]byte{packName(t, longTarget)}, []int64{100}, 1, 0, TrustAnswerAA, SecurityUnchecked)
	dnameRef := RRsetRef{Key: dnameKey}
	rrsets.Insert(&dnameRef, dnameData, 0)

	longPrefix := ""
	for i := 0; i < 10; i++ {
		longPrefix += "prefixlabel."
	}
	qname := longPrefix + "example.org."

	msg, ok := synth.Lookup(qname, dns.TypeA, dns.ClassINET, 0, nil)
	if !ok {
		t.Fatalf("Lookup missed")
	}
	if Rcode(msg.Flags) != RcodeYXDOMAIN {
		t.Fatalf("rcode = %d; want YXDOMAIN (%d)", Rcode(msg.Flags), RcodeYXDOMAIN)
	}
	if msg.ExtError == nil || *msg.ExtError != ExtendedRcodeOther {
		t.Fatalf("ExtError = %v; want ExtendedRcodeOther", msg.ExtError)
	}
	if len(msg.Answer) != 1 {
		t.Fatalf("Answer has %d rrsets; want 1 (DNAME only, no synthesized CNAME)", len(msg.Answer))
	}
}

func TestSynthesizerDNAMEQueryAtOwnerDegeneratesToBareDNAME(t *testing.T) {
	rrsets := NewRRsetStore(1024, 4)
	messages := NewMessageStore(1024, 4)
	synth := NewSynthesizer(messages, rrsets)

	dnameKey := NewRRsetKey("example.org.", dns.TypeDNAME, dns.ClassINET, 0)
	dnameData := NewRRsetData([][]byte{packName(t, "other.org.")}, []int64{100}, 1, 0, TrustAnswerAA, SecurityUnchecked)
	dnameRef := RRsetRef{Key: dnameKey}
	rrsets.Insert(&dnameRef, dnameData, 0)

	msg, ok := synth.Lookup("example.org.", dns.TypeDNAME, dns.ClassINET, 0, nil)
	if !ok {
		t.Fatalf("Lookup missed a DNAME query at the DNAME owner")
	}
	if len(msg.Answer) != 1 {
		t.Fatalf("Answer has %d rrsets; want just the DNAME with no synthesized CNAME", len(msg.Answer))
	}
	if msg.Answer[0].Key.Type != dns.TypeDNAME {
		t.Fatalf("answer type = %d; want DNAME", msg.Answer[0].Key.Type)
	}
}

func TestSynthesizerCNAMEHit(t *testing.T) {
	rrsets := NewRRsetStore(1024, 4)
	messages := NewMessageStore(1024, 4)
	synth := NewSynthesizer(messages, rrsets)

	cnameKey := NewRRsetKey("www.example.org.", dns.TypeCNAME, dns.ClassINET, 0)
	cnameData := NewRRsetData([][]byte{packName(t, "elsewhere.org.")}, []int64{100}, 1, 0, TrustAnswerAA, SecurityUnchecked)
	cnameRef := RRsetRef{Key: cnameKey}
	rrsets.Insert(&cnameRef, cnameData, 0)

	msg, ok := synth.Lookup("www.example.org.", dns.TypeA, dns.ClassINET, 0, nil)
	if !ok {
		t.Fatalf("Lookup missed a bare CNAME hit")
	}
	if len(msg.Answer) != 1 {
		t.Fatalf("Answer has %d rrsets; want 1", len(msg.Answer))
	}
	if msg.Answer[0].Key.Type != dns.TypeCNAME {
		t.Fatalf("answer type = %d; want CNAME", msg.Answer[0].Key.Type)
	}
}

func TestSynthesizerMalformedCNAMEEvictedAndMissed(t *testing.T) {
	rrsets := NewRRsetStore(1024, 4)
	messages := NewMessageStore(1024, 4)
	synth := NewSynthesizer(messages, rrsets)

	// A label claiming 5 bytes with only 1 present: fails to decode.
	cnameKey := NewRRsetKey("www.example.org.", dns.TypeCNAME, dns.ClassINET, 0)
	cnameData := NewRRsetData([][]byte{{0x05, 'a'}}, []int64{100}, 1, 0, TrustAnswerAA, SecurityUnchecked)
	cnameRef := RRsetRef{Key: cnameKey}
	rrsets.Insert(&cnameRef, cnameData, 0)

	if _, ok := synth.Lookup("www.example.org.", dns.TypeA, dns.ClassINET, 0, nil); ok {
		t.Fatalf("Lookup served a CNAME whose rdata does not decode")
	}
	if rrsets.Len() != 0 {
		t.Fatalf("malformed CNAME was not evicted, Len() = %d", rrsets.Len())
	}
}

func TestSynthesizerMiss(t *testing.T) {
	rrsets := NewRRsetStore(1024, 4)
	messages := NewMessageStore(1024, 4)
	synth := NewSynthesizer(messages, rrsets)

	if _, ok := synth.Lookup("nowhere.example.org.", dns.TypeA, dns.ClassINET, 0, nil); ok {
		t.Fatalf("Lookup hit on a name with nothing cached")
	}
}
