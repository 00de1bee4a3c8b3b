package dnscache

import (
	"strings"
	"testing"

	"github.com/miekg/dns"
)

func servedA(name string, ip byte, ttl int64) ServedRRset {
	return ServedRRset{
		Key:  NewRRsetKey(name, dns.TypeA, dns.ClassINET, 0),
		Data: NewRRsetData(aRdata(ip), []int64{ttl}, 1, 0, TrustAnswerAA, SecurityUnchecked),
	}
}

func TestCompareServedIgnoresTTLAndOrder(t *testing.T) {
	a := &ServedMessage{
		Flags:  FlagQR,
		Answer: []ServedRRset{servedA("a.example.org.", 1, 100), servedA("b.example.org.", 2, 100)},
	}
	b := &ServedMessage{
		Flags:  FlagQR,
		Answer: []ServedRRset{servedA("b.example.org.", 2, 5), servedA("a.example.org.", 1, 5)},
	}
	if cmp := CompareServed(a, b, nil); cmp != 0 {
		t.Fatalf("CompareServed = %d for messages differing only in TTL and order; want 0", cmp)
	}
}

func TestCompareServedReportsDifferences(t *testing.T) {
	a := &ServedMessage{Flags: FlagQR, Answer: []ServedRRset{servedA("a.example.org.", 1, 100)}}
	b := &ServedMessage{Flags: FlagQR}

	var sb strings.Builder
	cmp := CompareServed(a, b, &sb)
	if cmp <= 0 {
		t.Fatalf("CompareServed = %d; want > 0 when a has more data", cmp)
	}
	if !strings.Contains(sb.String(), "only in a") {
		t.Fatalf("difference report %q does not name the extra rrset", sb.String())
	}
}

func TestCompareServedRcodeDiffers(t *testing.T) {
	a := &ServedMessage{Flags: SetRcode(FlagQR, RcodeYXDOMAIN)}
	b := &ServedMessage{Flags: FlagQR}
	var sb strings.Builder
	if cmp := CompareServed(a, b, &sb); cmp == 0 {
		t.Fatalf("CompareServed = 0 for messages with differing rcodes")
	}
	if !strings.Contains(sb.String(), "rcode differs") {
		t.Fatalf("difference report %q does not mention the rcode", sb.String())
	}
}
