package storetest

import (
	"sync"

	expiringstore "github.com/karupanerura/expiring-store"
)

// Call is a single listener method invocation seen by RecordingListener.
type Call[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint] struct {
	Method string
	Key    K
	Value  V
}

// RecordingListener is a StoreEventListener that records every call it receives.
type RecordingListener[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint] struct {
	mu    sync.Mutex
	calls []Call[K, V]

	// NoListeners makes HasListeners report false.
	NoListeners bool
}

var _ expiringstore.StoreEventListener[uint8, int8] = (*RecordingListener[uint8, int8])(nil)

func (l *RecordingListener[K, V]) record(c Call[K, V]) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, c)
}

// HasListeners records the call and reports !NoListeners.
func (l *RecordingListener[K, V]) HasListeners() bool {
	l.record(Call[K, V]{Method: "HasListeners"})
	return !l.NoListeners
}

// OnExpiration records the call with the key and the expired value.
func (l *RecordingListener[K, V]) OnExpiration(key K, expired *expiringstore.ValueHolder[V]) {
	l.record(Call[K, V]{Method: "OnExpiration", Key: key, Value: expired.Value()})
}

// FireAllEvents records the call.
func (l *RecordingListener[K, V]) FireAllEvents() {
	l.record(Call[K, V]{Method: "FireAllEvents"})
}

// PurgeOrFireRemainingEvents records the call.
func (l *RecordingListener[K, V]) PurgeOrFireRemainingEvents() {
	l.record(Call[K, V]{Method: "PurgeOrFireRemainingEvents"})
}

// Calls returns a copy of the recorded calls.
func (l *RecordingListener[K, V]) Calls() []Call[K, V] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Call[K, V](nil), l.calls...)
}

// Reset forgets the recorded calls.
func (l *RecordingListener[K, V]) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = nil
}

// ExpirationCalls returns the calls a single reported expiration of key with value makes.
func ExpirationCalls[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint](key K, value V) []Call[K, V] {
	return []Call[K, V]{
		{Method: "HasListeners"},
		{Method: "OnExpiration", Key: key, Value: value},
		{Method: "FireAllEvents"},
		{Method: "PurgeOrFireRemainingEvents"},
	}
}
