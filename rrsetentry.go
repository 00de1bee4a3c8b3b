package dnscache

import "sync"

// rrsetEntry is the cache-resident record for one RRsetKey. The
// entry-level reader/writer lock lives inside the entry itself; the
// backing sieve-cache shard only ever sees the *rrsetEntry pointer
// and never needs to know this lock exists.
type rrsetEntry struct {
	mu   sync.RWMutex
	key  RRsetKey
	id   uint64
	data *RRsetData
}

// LockedRRsetEntry is a handle to an rrsetEntry locked by RRsetStore.Lookup.
// Callers must release it exactly once, via Unlock or UnlockTouch.
type LockedRRsetEntry struct {
	entry    *rrsetEntry
	forWrite bool
	ref      RRsetRef
}

// Key returns the entry's canonical key.
func (l *LockedRRsetEntry) Key() RRsetKey { return l.entry.key }

// ID returns the entry's current id tag.
func (l *LockedRRsetEntry) ID() uint64 { return l.entry.id }

// Data returns the entry's payload. Valid only while the lock is held.
func (l *LockedRRsetEntry) Data() *RRsetData { return l.entry.data }

// Unlock releases the lock acquired by Lookup/LockRefs without recording an LRU touch.
func (l *LockedRRsetEntry) Unlock() {
	if l.forWrite {
		l.entry.mu.Unlock()
	} else {
		l.entry.mu.RUnlock()
	}
}
