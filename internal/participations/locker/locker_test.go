package locker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeyedLocker_SerialisesSameKey(t *testing.T) {
	l := NewKeyedLocker()
	var inside int32
	var maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "webinar-1")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Errorf("expected at most 1 holder at a time, saw %d", maxInside)
	}
	if l.Len() != 0 {
		t.Errorf("expected no entries left, got %d", l.Len())
	}
}

func TestKeyedLocker_DistinctKeysDoNotBlock(t *testing.T) {
	l := NewKeyedLocker()

	unlockA, err := l.Lock(context.Background(), "webinar-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	unlockB, err := l.Lock(ctx, "webinar-b")
	if err != nil {
		t.Fatalf("lock on a different key should not wait, got %v", err)
	}
	unlockB()
}

func TestKeyedLocker_HonoursContext(t *testing.T) {
	l := NewKeyedLocker()

	unlock, err := l.Lock(context.Background(), "webinar-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := l.Lock(ctx, "webinar-1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	unlock()
	if l.Len() != 0 {
		t.Errorf("expected waiter entry to be released, got %d entries", l.Len())
	}
}

func TestKeyedLocker_UnlockIsIdempotent(t *testing.T) {
	l := NewKeyedLocker()

	unlock, err := l.Lock(context.Background(), "webinar-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	unlock()
	unlock()

	done := make(chan struct{})
	go func() {
		again, err := l.Lock(context.Background(), "webinar-1")
		if err == nil {
			again()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock was not reusable after double unlock")
	}
}
