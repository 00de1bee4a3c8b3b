package dnscache

import (
	"hash/fnv"

	"github.com/miekg/dns"
)

// RRsetKey is the composite identity of a cached resource-record set:
// owner name, type, class, and an opaque flags bitfield used to keep
// distinct copies (e.g. glue vs. authoritative) from colliding.
type RRsetKey struct {
	Name  string // canonical (lowercased, wire-comparable) owner name
	Type  uint16
	Class uint16
	Flags uint32
}

// KeyFlagNSECAtApex marks an NSEC rrset cached from the child (apex)
// side of a zone cut, keeping it distinct from the parent-side copy
// that proves delegation security. Delegation lookups use flags 0,
// the parent-side copy.
const KeyFlagNSECAtApex uint32 = 1

// NewRRsetKey canonicalizes name and returns the key for (name, qtype, qclass, flags).
func NewRRsetKey(name string, qtype, qclass uint16, flags uint32) RRsetKey {
	return RRsetKey{Name: dns.CanonicalName(name), Type: qtype, Class: qclass, Flags: flags}
}

// Hash returns a stable, non-cryptographic FNV-1a hash of the key. The
// fields are mixed in a fixed order, type, class, flags, then name, so
// equal keys always hash alike however they were built.
func (k RRsetKey) Hash() uint64 {
	h := fnv.New64a()
	var buf [10]byte
	buf[0] = byte(k.Type >> 8)
	buf[1] = byte(k.Type)
	buf[2] = byte(k.Class >> 8)
	buf[3] = byte(k.Class)
	buf[4] = byte(k.Flags >> 24)
	buf[5] = byte(k.Flags >> 16)
	buf[6] = byte(k.Flags >> 8)
	buf[7] = byte(k.Flags)
	_, _ = h.Write(buf[:8])
	_, _ = h.Write([]byte(k.Name))
	return h.Sum64()
}

// Less implements the total order on RRsetKey used to sort RRsetRef
// slices for deadlock-free multi-entry locking: type asc, name length
// asc, name compared byte-wise, class asc, flags asc.
func (k RRsetKey) Less(other RRsetKey) bool {
	if k.Type != other.Type {
		return k.Type < other.Type
	}
	if len(k.Name) != len(other.Name) {
		return len(k.Name) < len(other.Name)
	}
	if k.Name != other.Name {
		return k.Name < other.Name
	}
	if k.Class != other.Class {
		return k.Class < other.Class
	}
	return k.Flags < other.Flags
}
