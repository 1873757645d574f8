package expiringstore

import (
	"context"
)

// KeyConstraint is an interface for key constraints.
type KeyConstraint interface {
	comparable
}

// ValueConstraint is an interface for value constraints.
type ValueConstraint interface {
	any
}

// RemappingFunc computes a new value for a key from its current mapping.
// present is false when the key has no live mapping; oldValue is the zero value in that case.
// Returning keep=false means the key should have no mapping afterwards.
// A non-nil error aborts the operation and is returned to the caller as is.
type RemappingFunc[K KeyConstraint, V ValueConstraint] func(key K, oldValue V, present bool) (newValue V, keep bool, err error)

// MappingFunc computes a value for a key that has no live mapping.
// Returning keep=false installs nothing.
// A non-nil error aborts the operation and is returned to the caller as is.
type MappingFunc[K KeyConstraint, V ValueConstraint] func(key K) (value V, keep bool, err error)

// Store is a map-like key-value store whose entries expire lazily.
// Implementations must be thread-safe.
//
// Every operation samples the clock once. When the addressed entry exists but is expired at that instant,
// the store runs the expiration notification for it exactly once and then behaves as if the key had never been mapped.
// A nil *ValueHolder result means "absent".
type Store[K KeyConstraint, V ValueConstraint] interface {
	// Put maps the key to the value, replacing any previous mapping.
	Put(ctx context.Context, key K, value V) error

	// Get returns the live mapping of the key.
	Get(ctx context.Context, key K) (*ValueHolder[V], error)

	// ContainsKey reports whether the key has a live mapping.
	ContainsKey(ctx context.Context, key K) (bool, error)

	// PutIfAbsent maps the key to the value only if it has no live mapping.
	// It returns the existing mapping, or nil if the value was installed.
	PutIfAbsent(ctx context.Context, key K, value V) (*ValueHolder[V], error)

	// Remove removes the live mapping of the key and reports whether one was removed.
	Remove(ctx context.Context, key K) (bool, error)

	// CompareAndRemove removes the mapping only if it is live and equal to value.
	CompareAndRemove(ctx context.Context, key K, value V) (bool, error)

	// Replace replaces the value of a live mapping.
	// It returns the previous mapping, or nil if there was none and nothing was changed.
	Replace(ctx context.Context, key K, value V) (*ValueHolder[V], error)

	// CompareAndReplace replaces the value only if the mapping is live and equal to oldValue.
	CompareAndReplace(ctx context.Context, key K, oldValue, newValue V) (bool, error)

	// Compute remaps the key unconditionally and returns the resulting mapping.
	Compute(ctx context.Context, key K, f RemappingFunc[K, V]) (*ValueHolder[V], error)

	// ComputeIfAbsent installs the value computed by f if the key has no live mapping.
	// It returns the existing or the newly installed mapping.
	ComputeIfAbsent(ctx context.Context, key K, f MappingFunc[K, V]) (*ValueHolder[V], error)

	// ComputeIfPresent remaps the key only if it has a live mapping.
	// f is never called for an absent or expired key.
	ComputeIfPresent(ctx context.Context, key K, f RemappingFunc[K, V]) (*ValueHolder[V], error)

	// Clear removes every mapping without notifying the listener.
	Clear(ctx context.Context) error

	// EnableStoreEventNotifications installs the listener, replacing the current one if any.
	EnableStoreEventNotifications(StoreEventListener[K, V])

	// DisableStoreEventNotifications removes the current listener. It is a no-op when none is installed.
	DisableStoreEventNotifications()
}

// StoreEventListener receives store events.
// The store calls HasListeners, OnExpiration, FireAllEvents and PurgeOrFireRemainingEvents in this order,
// once per detected expiration, while it holds exclusive access to the key.
// Implementations must not call back into the store.
type StoreEventListener[K KeyConstraint, V ValueConstraint] interface {
	// HasListeners reports whether anyone is interested in events.
	// When it returns false no other method is called for that expiration.
	HasListeners() bool

	// OnExpiration is called with the key and the last holder of an entry found expired.
	OnExpiration(key K, expired *ValueHolder[V])

	// FireAllEvents flushes the events buffered so far.
	FireAllEvents()

	// PurgeOrFireRemainingEvents makes sure no buffered event outlives the operation.
	PurgeOrFireRemainingEvents()
}
