package ctxsync

import (
	"context"
)

// Mutex is a mutual exclusion lock that can be acquired with a context.
// The zero value is not usable; create it with NewMutex.
type Mutex struct {
	sem chan struct{}
}

// NewMutex creates an unlocked Mutex.
func NewMutex() *Mutex {
	return &Mutex{sem: make(chan struct{}, 1)}
}

// LockCtx locks m.
// If the context is done before the lock is acquired, it returns the context error and m stays untouched.
func (m *Mutex) LockCtx(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case m.sem <- struct{}{}:
		return nil
	default:
	}

	select {
	case m.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Lock locks m, waiting as long as needed.
func (m *Mutex) Lock() {
	m.sem <- struct{}{}
}

// TryLock tries to lock m without waiting and reports whether it succeeded.
func (m *Mutex) TryLock() bool {
	select {
	case m.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

// Unlock unlocks m. It panics if m is not locked.
func (m *Mutex) Unlock() {
	select {
	case <-m.sem:
	default:
		panic("ctxsync: unlock of unlocked mutex")
	}
}
