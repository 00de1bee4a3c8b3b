package dnscache

import (
	"testing"

	"github.com/miekg/dns"
)

func TestDelegationBuilderFindsAncestorNS(t *testing.T) {
	rrsets := NewRRsetStore(1024, 4)
	builder := NewDelegationBuilder(rrsets)

	nsKey := NewRRsetKey("example.org.", dns.TypeNS, dns.ClassINET, 0)
	nsRdata := [][]byte{packName(t, "ns1.example.org.")}
	nsData := NewRRsetData(nsRdata, []int64{3600}, 1, 0, TrustAuthorityAA, SecurityUnchecked)
	nsRef := RRsetRef{Key: nsKey}
	rrsets.Insert(&nsRef, nsData, 0)

	glueKey := NewRRsetKey("ns1.example.org.", dns.TypeA, dns.ClassINET, 0)
	glueData := NewRRsetData(aRdata(53), []int64{3600}, 1, 0, TrustGlue, SecurityUnchecked)
	glueRef := RRsetRef{Key: glueKey}
	rrsets.Insert(&glueRef, glueData, 0)

	dp, msg, ok := builder.FindDelegation("www.example.org.", dns.TypeA, dns.ClassINET, 0, true)
	if !ok {
		t.Fatalf("FindDelegation missed an ancestor NS")
	}
	if dp.Name != "example.org." {
		t.Fatalf("delegation owner = %q; want %q", dp.Name, "example.org.")
	}
	if len(dp.NS) != 1 || dp.NS[0].Name != "ns1.example.org." {
		t.Fatalf("NS list = %+v; want one entry for ns1.example.org.", dp.NS)
	}
	if dp.NS[0].A == nil {
		t.Fatalf("glue A record was not attached to the delegation")
	}
	if msg == nil {
		t.Fatalf("wantMsg=true but no ServedMessage was built")
	}
	if msg.NSCount != 1 {
		t.Fatalf("msg.NSCount = %d; want 1", msg.NSCount)
	}
	if msg.ARCount != 1 {
		t.Fatalf("msg.ARCount = %d; want 1 (the glue A record)", msg.ARCount)
	}
}

func TestDelegationBuilderAttachesDS(t *testing.T) {
	rrsets := NewRRsetStore(1024, 4)
	builder := NewDelegationBuilder(rrsets)

	nsKey := NewRRsetKey("example.org.", dns.TypeNS, dns.ClassINET, 0)
	nsData := NewRRsetData([][]byte{packName(t, "ns1.example.org.")}, []int64{3600}, 1, 0, TrustAuthorityAA, SecurityUnchecked)
	nsRef := RRsetRef{Key: nsKey}
	rrsets.Insert(&nsRef, nsData, 0)

	dsKey := NewRRsetKey("example.org.", dns.TypeDS, dns.ClassINET, 0)
	dsData := NewRRsetData([][]byte{{0x00, 0x01}}, []int64{3600}, 1, 0, TrustSecondaryNoGlue, SecurityUnchecked)
	dsRef := RRsetRef{Key: dsKey}
	rrsets.Insert(&dsRef, dsData, 0)

	dp, _, ok := builder.FindDelegation("example.org.", dns.TypeNS, dns.ClassINET, 0, false)
	if !ok {
		t.Fatalf("FindDelegation missed")
	}
	if dp.DSOrNSEC == nil {
		t.Fatalf("DS rrset was not attached")
	}
	if dp.IsNSEC {
		t.Fatalf("IsNSEC = true; want false (a DS was found)")
	}
}

func TestDelegationBuilderMiss(t *testing.T) {
	rrsets := NewRRsetStore(1024, 4)
	builder := NewDelegationBuilder(rrsets)

	if _, _, ok := builder.FindDelegation("nowhere.invalid.", dns.TypeA, dns.ClassINET, 0, false); ok {
		t.Fatalf("FindDelegation hit with nothing cached")
	}
}
