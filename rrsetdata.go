package dnscache

import (
	"bytes"
	"encoding/binary"

	"github.com/miekg/dns"
)

// RRsetData is the payload stored for an RRsetKey: Count primary
// records followed by RRSIGCount covering signatures, each record
// represented as its on-wire rdata preceded by a 16-bit length
// (RRData[i][0:2] is the length, RRData[i][2:] is the rdata), with a
// parallel per-record TTL. TTL is the set-level expiry: the minimum
// of every RRTTL entry.
//
// While an RRsetData lives in the cache, RRTTL values and TTL are
// absolute unix timestamps. Once copied into a ServedMessage they are
// rebased to seconds remaining; see toRelative.
type RRsetData struct {
	Count      int
	RRSIGCount int
	RRLen      []uint16
	RRData     [][]byte
	RRTTL      []int64
	TTL        int64
	Trust      Trust
	Security   Security
}

// NewRRsetData builds an RRsetData from raw (un-length-prefixed) rdata
// and absolute per-record expiry timestamps. rdata and ttl must have
// the same length, count+rrsigCount.
func NewRRsetData(rdata [][]byte, ttl []int64, count, rrsigCount int, trust Trust, security Security) *RRsetData {
	total := count + rrsigCount
	d := &RRsetData{
		Count:      count,
		RRSIGCount: rrsigCount,
		RRLen:      make([]uint16, total),
		RRData:     make([][]byte, total),
		RRTTL:      make([]int64, total),
		Trust:      trust,
		Security:   security,
	}
	for i := 0; i < total; i++ {
		buf := make([]byte, 2+len(rdata[i]))
		binary.BigEndian.PutUint16(buf, uint16(len(rdata[i]))) // #nosec G115
		copy(buf[2:], rdata[i])
		d.RRData[i] = buf
		d.RRLen[i] = uint16(len(buf)) // #nosec G115
		d.RRTTL[i] = ttl[i]
	}
	d.recomputeTTL()
	return d
}

func (d *RRsetData) recomputeTTL() {
	if len(d.RRTTL) == 0 {
		d.TTL = 0
		return
	}
	min := d.RRTTL[0]
	for _, t := range d.RRTTL[1:] {
		if t < min {
			min = t
		}
	}
	d.TTL = min
}

// total returns Count+RRSIGCount.
func (d *RRsetData) total() int { return d.Count + d.RRSIGCount }

// rrsetDataEqual reports whether a and b carry byte-identical records,
// ignoring TTLs, trust and security. Insert uses it to decide whether
// new data is a no-op TTL extension rather than a replacement.
func rrsetDataEqual(a, b *RRsetData) bool {
	if a.Count != b.Count || a.RRSIGCount != b.RRSIGCount {
		return false
	}
	total := a.total()
	for i := 0; i < total; i++ {
		if a.RRLen[i] != b.RRLen[i] {
			return false
		}
		if !bytes.Equal(a.RRData[i], b.RRData[i]) {
			return false
		}
	}
	return true
}

// mergeMaxTTL extends every RRTTL in d to the max of its own value
// and the corresponding value in other, then recomputes TTL. Used
// when an Insert finds byte-identical data already cached: rather
// than replace it (which would bump id and invalidate references),
// the cache extends its lifetime.
func (d *RRsetData) mergeMaxTTL(other *RRsetData) {
	total := d.total()
	for i := 0; i < total; i++ {
		if other.RRTTL[i] > d.RRTTL[i] {
			d.RRTTL[i] = other.RRTTL[i]
		}
	}
	d.recomputeTTL()
}

// WireSize returns the total number of encoded bytes (length prefixes
// included) across every record and signature, for capacity-aware
// callers sizing a copy of the payload.
func (d *RRsetData) WireSize() int {
	n := 0
	for _, l := range d.RRLen {
		n += int(l)
	}
	return n
}

// cnameOrDNAMETarget extracts the target name from the first record's
// rdata, validating the embedded 16-bit length prefix against the
// number of rdata bytes present. Returns ("", false) if the data is
// malformed.
func (d *RRsetData) cnameOrDNAMETarget() (string, bool) {
	if d.Count < 1 || len(d.RRData[0]) < 3 {
		return "", false
	}
	buf := d.RRData[0]
	rdlen := binary.BigEndian.Uint16(buf[0:2])
	rdata := buf[2:]
	if int(rdlen) != len(rdata) {
		return "", false
	}
	name, _, err := dns.UnpackDomainName(rdata, 0)
	if err != nil {
		return "", false
	}
	return name, true
}

// CNAMETarget returns the target of a cached CNAME rrset.
func (d *RRsetData) CNAMETarget() (string, bool) { return d.cnameOrDNAMETarget() }

// DNAMETarget returns the target of a cached DNAME rrset.
func (d *RRsetData) DNAMETarget() (string, bool) { return d.cnameOrDNAMETarget() }

// clone returns a deep copy of d, suitable for handing to a caller's
// arena without aliasing cache memory.
func (d *RRsetData) clone() *RRsetData {
	c := &RRsetData{
		Count:      d.Count,
		RRSIGCount: d.RRSIGCount,
		RRLen:      append([]uint16(nil), d.RRLen...),
		RRTTL:      append([]int64(nil), d.RRTTL...),
		TTL:        d.TTL,
		Trust:      d.Trust,
		Security:   d.Security,
	}
	c.RRData = make([][]byte, len(d.RRData))
	for i, b := range d.RRData {
		c.RRData[i] = append([]byte(nil), b...)
	}
	return c
}

// toRelative returns a clone of d with TTL and every RRTTL converted
// from absolute expiry to seconds remaining as of now. Values already
// expired clamp to zero rather than going negative.
func (d *RRsetData) toRelative(now int64) *RRsetData {
	c := d.clone()
	for i, t := range c.RRTTL {
		c.RRTTL[i] = secondsRemaining(t, now)
	}
	c.TTL = secondsRemaining(c.TTL, now)
	return c
}

func secondsRemaining(expiry, now int64) int64 {
	if expiry <= now {
		return 0
	}
	return expiry - now
}
