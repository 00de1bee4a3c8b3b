package dnscache

import (
	"github.com/jedisct1/dlog"
	"github.com/jedisct1/go-sieve-cache/pkg/sievecache"
)

// MessageStore is the concurrent map from QueryKey to ReplyInfo. Same
// sharded-SIEVE backing as RRsetStore; see its doc comment.
type MessageStore struct {
	cache *sievecache.ShardedSieveCache[QueryKey, *msgEntry]
}

// DefaultMessageShards is the shard count used when callers don't override it.
const DefaultMessageShards = 16

// NewMessageStore returns a MessageStore with the given total capacity,
// split across numShards shards. numShards <= 0 uses DefaultMessageShards.
func NewMessageStore(capacity, numShards int) *MessageStore {
	if numShards <= 0 {
		numShards = DefaultMessageShards
	}
	cache, err := sievecache.NewShardedWithShards[QueryKey, *msgEntry](capacity, numShards)
	if err != nil {
		dlog.Fatalf("dnscache: message store: %v", err)
	}
	return &MessageStore{cache: cache}
}

// Len returns the number of cached messages, for diagnostics.
func (s *MessageStore) Len() int { return s.cache.Len() }

// Lookup returns a read-locked entry for qkey, or false on miss. The
// caller (ordinarily the Synthesizer) is responsible for checking TTL
// and reference liveness and releasing the lock either way.
func (s *MessageStore) Lookup(qkey QueryKey) (*LockedMsgEntry, bool) {
	entry, ok := s.cache.Get(qkey)
	if !ok {
		return nil, false
	}
	entry.mu.RLock()
	return &LockedMsgEntry{entry: entry}, true
}

// Store installs reply for qkey. If reply.TTL <= now (a zero-or-negative
// effective TTL) the message itself is not retained — callers must
// still have inserted its constituent RRsets beforehand so delegation
// information survives (see Env.StoreMsg).
func (s *MessageStore) Store(qkey QueryKey, reply *ReplyInfo, now int64) {
	if reply.TTL <= now {
		return
	}
	entry := &msgEntry{key: qkey, reply: reply}
	s.cache.Insert(qkey, entry)
}
