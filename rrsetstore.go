package dnscache

import (
	"sync/atomic"

	"github.com/jedisct1/dlog"
	"github.com/jedisct1/go-sieve-cache/pkg/sievecache"
)

// RRsetStore is the concurrent map from RRsetKey to RRsetData. It is
// backed by a sharded SIEVE cache so the eviction container itself
// stays an external collaborator: RRsetStore only ever calls the
// container's Get/Insert/Remove surface and handles entry locking,
// id tagging, and merge policy on top of it.
type RRsetStore struct {
	cache  *sievecache.ShardedSieveCache[RRsetKey, *rrsetEntry]
	nextID atomic.Uint64
}

// DefaultRRsetShards is the shard count used when callers don't override it.
const DefaultRRsetShards = 16

// NewRRsetStore returns an RRsetStore with the given total capacity,
// split across numShards shards. numShards <= 0 uses DefaultRRsetShards.
func NewRRsetStore(capacity, numShards int) *RRsetStore {
	if numShards <= 0 {
		numShards = DefaultRRsetShards
	}
	cache, err := sievecache.NewShardedWithShards[RRsetKey, *rrsetEntry](capacity, numShards)
	if err != nil {
		// capacity/shards are caller-controlled config values; a
		// misconfiguration here is a programmer error, not a runtime
		// out-of-memory condition.
		dlog.Fatalf("dnscache: rrset store: %v", err)
	}
	return &RRsetStore{cache: cache}
}

// Len returns the number of cached RRsets, for diagnostics.
func (s *RRsetStore) Len() int { return s.cache.Len() }

// Lookup finds the entry for key, verifies it hasn't expired, and
// returns it locked in the requested mode. An expired entry is a miss
// and is evicted.
func (s *RRsetStore) Lookup(key RRsetKey, forWrite bool, now int64) (*LockedRRsetEntry, bool) {
	entry, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	if forWrite {
		entry.mu.Lock()
	} else {
		entry.mu.RLock()
	}
	if entry.data.TTL <= now {
		if forWrite {
			entry.mu.Unlock()
		} else {
			entry.mu.RUnlock()
		}
		dlog.Debugf("%v: %s %s", ErrExpired, DnsTypeToString(key.Type), key.Name)
		s.cache.Remove(key)
		return nil, false
	}
	return &LockedRRsetEntry{entry: entry, forWrite: forWrite, ref: RRsetRef{Key: entry.key, ID: entry.id}}, true
}

// Insert installs or merges an entry for ref.Key, rewriting ref in
// place to the store-canonical key/id. Merge policy: higher existing
// trust wins outright, byte-identical data extends TTLs in place,
// anything else replaces the data and bumps id.
func (s *RRsetStore) Insert(ref *RRsetRef, data *RRsetData, now int64) bool {
	existing, ok := s.cache.Get(ref.Key)
	if ok {
		existing.mu.Lock()
		defer existing.mu.Unlock()
		if existing.data.TTL > now {
			switch {
			case existing.data.Trust > data.Trust:
				ref.Key = existing.key
				ref.ID = existing.id
				return false
			case rrsetDataEqual(existing.data, data):
				existing.data.mergeMaxTTL(data)
				ref.Key = existing.key
				ref.ID = existing.id
				return true
			}
		}
		// expired or superseded: replace the data and bump id, which
		// invalidates every outstanding reference to the old data.
		existing.data = data
		existing.id = s.nextID.Add(1)
		ref.Key = existing.key
		ref.ID = existing.id
		return true
	}

	id := s.nextID.Add(1)
	entry := &rrsetEntry{key: ref.Key, id: id, data: data}
	s.cache.Insert(ref.Key, entry)
	ref.ID = id
	return true
}

// LockRefs acquires read locks on every entry in refs, in the order
// given (callers, notably the Synthesizer, must supply refs already
// sorted per the RRsetKey total order to stay deadlock-free). On the
// first stale or expired ref it releases everything acquired so far
// and returns false.
func (s *RRsetStore) LockRefs(refs []RRsetRef, now int64) ([]*LockedRRsetEntry, bool) {
	locked := make([]*LockedRRsetEntry, 0, len(refs))
	for _, ref := range refs {
		entry, ok := s.cache.Get(ref.Key)
		if !ok {
			dlog.Debugf("%v: %s %s", ErrStaleReference, DnsTypeToString(ref.Key.Type), ref.Key.Name)
			unlockAll(locked)
			return nil, false
		}
		entry.mu.RLock()
		if entry.id != ref.ID || entry.data.TTL <= now {
			err := error(ErrStaleReference)
			if entry.id == ref.ID {
				err = ErrExpired
			}
			entry.mu.RUnlock()
			dlog.Debugf("%v: %s %s", err, DnsTypeToString(ref.Key.Type), ref.Key.Name)
			unlockAll(locked)
			return nil, false
		}
		locked = append(locked, &LockedRRsetEntry{entry: entry, forWrite: false, ref: ref})
	}
	return locked, true
}

func unlockAll(locked []*LockedRRsetEntry) {
	for _, l := range locked {
		l.Unlock()
	}
}

// Evict removes the entry for key outright, for callers that have
// discovered its cached bytes are malformed.
func (s *RRsetStore) Evict(key RRsetKey) {
	s.cache.Remove(key)
}

// UnlockRefs releases read locks acquired by LockRefs without recording a touch.
func (s *RRsetStore) UnlockRefs(locked []*LockedRRsetEntry) {
	unlockAll(locked)
}

// UnlockTouch releases read locks acquired by LockRefs and records an
// LRU touch for each entry, batched through scratch so the caller's
// copy loop doesn't pay for bucket bookkeeping while holding the
// locks.
func (s *RRsetStore) UnlockTouch(locked []*LockedRRsetEntry, scratch *Arena) {
	for _, l := range locked {
		scratch.recordTouch(l.ref)
		l.Unlock()
	}
	for _, ref := range scratch.drainTouches() {
		s.cache.Get(ref.Key) // refresh the container's own recency signal
	}
}
