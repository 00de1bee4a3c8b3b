package dnscache

import (
	"hash/fnv"

	"github.com/miekg/dns"
)

// QueryKey identifies a cached reply message by the triple a resolver
// actually queries on. Names compare case-insensitively; NewQueryKey
// canonicalizes on construction so map/hash lookups never need to
// re-fold case.
type QueryKey struct {
	QName  string
	QType  uint16
	QClass uint16
}

// NewQueryKey canonicalizes qname and returns the key for it.
func NewQueryKey(qname string, qtype, qclass uint16) QueryKey {
	return QueryKey{QName: dns.CanonicalName(qname), QType: qtype, QClass: qclass}
}

// Hash returns a stable, non-cryptographic hash of the key, so a
// driver that batches cache operations can compute it once per query
// rather than once per operation.
func (k QueryKey) Hash() uint64 {
	h := fnv.New64a()
	var buf [4]byte
	buf[0] = byte(k.QType >> 8)
	buf[1] = byte(k.QType)
	buf[2] = byte(k.QClass >> 8)
	buf[3] = byte(k.QClass)
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte(k.QName))
	return h.Sum64()
}
