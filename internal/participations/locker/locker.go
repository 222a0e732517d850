// Package locker provides the per-webinar mutual exclusion wrapped around the
// admission read-check-write sequence.
package locker

import (
	"context"
	"errors"
	"sync"
)

// ErrLockTimeout is returned by lockers that give up waiting on their own
// deadline rather than the caller's.
var ErrLockTimeout = errors.New("timed out waiting for lock")

// ErrLockLost is returned by Fence once a lease has expired or passed to
// another holder.
var ErrLockLost = errors.New("lock lease lost")

// Unlock releases a lock. Calling it more than once is a no-op.
type Unlock func()

type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// LeaseLocker is implemented by lockers whose locks lapse after a TTL.
//
// Lease returns a context carrying the lease. Fence must be called with that
// context (or one derived from it) inside the store transaction that performs
// the guarded writes: it renews the lease as part of the transaction and fails
// with ErrLockLost when the lease is no longer held, so a holder that outlived
// its lease cannot commit.
type LeaseLocker interface {
	Locker
	Lease(ctx context.Context, key string) (context.Context, Unlock, error)
	Fence(ctx context.Context, key string) error
}

// KeyedLocker serialises callers per key inside one process. Distinct keys never
// contend with each other, and entries are dropped once no caller holds or waits on them.
type KeyedLocker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	slot chan struct{}
	refs int
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{entries: make(map[string]*entry)}
}

func (l *KeyedLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	e := l.acquireEntry(key)

	select {
	case e.slot <- struct{}{}:
	case <-ctx.Done():
		l.releaseEntry(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.slot
			l.releaseEntry(key, e)
		})
	}, nil
}

// Len reports how many keys currently have holders or waiters.
func (l *KeyedLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *KeyedLocker) acquireEntry(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &entry{slot: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *KeyedLocker) releaseEntry(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}
