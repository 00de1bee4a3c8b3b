package dnscache

import "sort"

// RRsetRef is a durable, non-owning reference to an RRsetStore entry:
// the entry's key plus the id tag the store stamped it with at
// insertion. A ref is live only as long as the store still holds an
// entry for Key whose id equals ID; once the entry is replaced or
// evicted the store zeroes its id and every outstanding ref to it
// becomes stale without ever dereferencing freed memory.
type RRsetRef struct {
	Key RRsetKey
	ID  uint64
}

// sortRefs orders refs by the RRsetKey total order, the order every
// multi-entry lock acquisition (LockRefs) must follow to stay
// deadlock-free.
func sortRefs(refs []RRsetRef) {
	sort.Slice(refs, func(i, j int) bool { return refs[i].Key.Less(refs[j].Key) })
}

// refsSorted reports whether refs already satisfies the RRsetKey
// total order; used by tests asserting stored refs stay sorted.
func refsSorted(refs []RRsetRef) bool {
	for i := 1; i < len(refs); i++ {
		if refs[i].Key.Less(refs[i-1].Key) {
			return false
		}
	}
	return true
}
