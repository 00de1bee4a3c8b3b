package dnscache

import "sync"

// msgEntry is the cache-resident record for one QueryKey.
type msgEntry struct {
	mu    sync.RWMutex
	key   QueryKey
	reply *ReplyInfo
}

// LockedMsgEntry is a handle to a msgEntry locked for reading by MessageStore.Lookup.
type LockedMsgEntry struct {
	entry *msgEntry
}

// Reply returns the entry's cached reply. Valid only while the lock is held.
func (l *LockedMsgEntry) Reply() *ReplyInfo { return l.entry.reply }

// Unlock releases the read lock acquired by Lookup.
func (l *LockedMsgEntry) Unlock() { l.entry.mu.RUnlock() }
