package dnscache

import (
	"sync/atomic"
	"time"

	"github.com/jedisct1/dlog"
)

// Env bundles the two cache stores, the synthesis and delegation
// logic built on top of them, and the ambient knobs (max TTL, clock
// source) every operation needs. One Env is shared process-wide; it
// is the sole entry point a resolver driver talks to.
type Env struct {
	RRsets     *RRsetStore
	Messages   *MessageStore
	Synth      *Synthesizer
	Delegation *DelegationBuilder

	// MaxTTL caps a stored message's TTL at insertion time (see
	// StoreMsg). RRset expiries are stored as given and are not capped.
	MaxTTL int64

	// Now returns the current unix time. Defaults to the wall clock;
	// overridable so tests can drive TTL expiry deterministically.
	Now func() int64

	// LogHitRatioEvery, when > 0, logs a hit-ratio summary once per
	// that many Lookup calls.
	LogHitRatioEvery int64

	lookups atomic.Int64
	hits    atomic.Int64
}

// NewEnv builds an Env from a Config, constructing both stores with
// the configured capacities and shard counts.
func NewEnv(cfg Config) *Env {
	rrsets := NewRRsetStore(cfg.RRsetCapacity, cfg.RRsetShards)
	messages := NewMessageStore(cfg.MessageCapacity, cfg.MessageShards)
	return &Env{
		RRsets:           rrsets,
		Messages:         messages,
		Synth:            NewSynthesizer(messages, rrsets),
		Delegation:       NewDelegationBuilder(rrsets),
		MaxTTL:           cfg.MaxTTL,
		Now:              func() int64 { return time.Now().Unix() },
		LogHitRatioEvery: cfg.LogHitRatioEvery,
	}
}

func (e *Env) now() int64 {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().Unix()
}

// capTTL clamps ttl (an absolute expiry) to at most e.MaxTTL seconds
// from now, when MaxTTL is set.
func (e *Env) capTTL(ttl, now int64) int64 {
	if e.MaxTTL <= 0 {
		return ttl
	}
	if cap := now + e.MaxTTL; ttl > cap {
		return cap
	}
	return ttl
}

// PendingRRset is one constituent of a message about to be stored: the
// ref the message will carry, paired with the data to insert for it.
// Env.StoreMsg rewrites Ref.Key/Ref.ID in place to the store-canonical
// values Insert settles on (existing higher-trust data, a merged TTL,
// or the freshly inserted data).
type PendingRRset struct {
	Ref  RRsetRef
	Data *RRsetData
}

// minConstituentTTL returns the lowest set-level expiry across
// pending, or -1 if pending is empty.
func minConstituentTTL(pending []PendingRRset) int64 {
	if len(pending) == 0 {
		return -1
	}
	minTTL := pending[0].Data.TTL
	for _, p := range pending[1:] {
		if p.Data.TTL < minTTL {
			minTTL = p.Data.TTL
		}
	}
	return minTTL
}

// StoreMsg inserts every constituent RRset (merging each per the
// RRsetStore.Insert policy, which rewrites its ref to the
// store-canonical key/id), sorts the rewritten refs into reply.Refs,
// lowers reply.TTL to the minimum of the constituent RRset expiries,
// caps it at MaxTTL, and inserts the message itself — unless the
// capped TTL has already elapsed, in which case the message is
// skipped but its RRsets remain cached so delegation information
// survives. A caller-set reply.TTL below the constituent minimum is
// honored, so a message-level zero TTL still suppresses retention.
// hash is the caller's precomputed QueryKey.Hash(); the backing store
// hashes internally and doesn't need it repeated.
func (e *Env) StoreMsg(qkey QueryKey, hash uint64, pending []PendingRRset, reply *ReplyInfo) {
	now := e.now()
	reply.Refs = make([]RRsetRef, len(pending))
	for i := range pending {
		e.RRsets.Insert(&pending[i].Ref, pending[i].Data, now)
		reply.Refs[i] = pending[i].Ref
	}
	reply.sortRefs()
	if minTTL := minConstituentTTL(pending); minTTL >= 0 && minTTL < reply.TTL {
		reply.TTL = minTTL
	}
	reply.TTL = e.capTTL(reply.TTL, now)
	e.Messages.Store(qkey, reply, now)
}

// Lookup synthesizes a served reply for (qname, qtype, qclass):
// exact message hit, DNAME synthesis, bare CNAME hit, miss.
func (e *Env) Lookup(qname string, qtype, qclass uint16, scratch *Arena) (*ServedMessage, bool) {
	msg, ok := e.Synth.Lookup(qname, qtype, qclass, e.now(), scratch)
	if ok {
		e.hits.Add(1)
	}
	if n := e.lookups.Add(1); e.LogHitRatioEvery > 0 && n%e.LogHitRatioEvery == 0 {
		dlog.Debugf("dnscache: %d/%d lookups hit, %d rrsets and %d messages cached",
			e.hits.Load(), n, e.RRsets.Len(), e.Messages.Len())
	}
	return msg, ok
}

// FindDelegation locates the closest enclosing NS rrset for qname.
func (e *Env) FindDelegation(qname string, qtype, qclass uint16, wantMsg bool) (*DelegationPoint, *ServedMessage, bool) {
	return e.Delegation.FindDelegation(qname, qtype, qclass, e.now(), wantMsg)
}
