// Package syncutil provides keyed mutual exclusion for the submission pipeline.
//
// Every submission for the same fingerprint must serialize its read-stats →
// analyze → append-event sequence so that a submission never observes its own
// event in the history it is scoring. Submissions for different fingerprints
// are independent and must not block each other.
package syncutil

import (
	"context"
	"hash/fnv"
)

// shardCount bounds memory regardless of how many identity keys are seen.
// Keys that hash to the same shard serialize against each other, which is
// harmless false sharing.
const shardCount = 512

// KeyMutex is a fixed pool of channel-based mutexes keyed by string. The
// channel implementation allows callers to give up while waiting if their
// context is cancelled, so a timed-out submission never holds a lock.
type KeyMutex struct {
	shards [shardCount]chan struct{}
}

// NewKeyMutex creates a KeyMutex with all shards unlocked.
func NewKeyMutex() *KeyMutex {
	m := &KeyMutex{}
	for i := range m.shards {
		m.shards[i] = make(chan struct{}, 1)
		m.shards[i] <- struct{}{}
	}
	return m
}

// Lock acquires the mutex for key, blocking until it is available or ctx is
// done. On success it returns an unlock function the caller MUST invoke on
// every exit path. On cancellation it returns nil and the context error; the
// lock is not held.
func (m *KeyMutex) Lock(ctx context.Context, key string) (func(), error) {
	shard := m.shards[m.index(key)]
	select {
	case <-shard:
		return func() { shard <- struct{}{} }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *KeyMutex) index(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % shardCount
}
