package expiringstore

import (
	"time"

	"github.com/karupanerura/expiring-store/expiry"
)

// ValueHolder is an immutable stored value together with its timing metadata.
// Every update of a mapping produces a new holder.
type ValueHolder[V ValueConstraint] struct {
	value          V
	createTime     time.Time
	lastAccessTime time.Time
	expirationTime time.Time
}

// NewValueHolder creates a holder for a value created at now that lives for ttl.
// ttl of expiry.Forever means the holder never expires.
func NewValueHolder[V ValueConstraint](value V, now time.Time, ttl time.Duration) *ValueHolder[V] {
	return &ValueHolder[V]{
		value:          value,
		createTime:     now,
		lastAccessTime: now,
		expirationTime: expiry.ExpiresAt(now, ttl),
	}
}

// Value returns the held value.
func (h *ValueHolder[V]) Value() V {
	return h.value
}

// CreationTime returns the time the value was stored.
func (h *ValueHolder[V]) CreationTime() time.Time {
	return h.createTime
}

// LastAccessTime returns the time the value was last read or written.
func (h *ValueHolder[V]) LastAccessTime() time.Time {
	return h.lastAccessTime
}

// ExpirationTime returns the instant at which the value expires.
// The zero time means the value never expires.
func (h *ValueHolder[V]) ExpirationTime() time.Time {
	return h.expirationTime
}

// IsExpired reports whether the value is expired at now.
func (h *ValueHolder[V]) IsExpired(now time.Time) bool {
	return expiry.IsExpired(now, h.expirationTime)
}

// Accessed returns a copy of the holder read at now.
// If set is false the expiration time is carried over.
func (h *ValueHolder[V]) Accessed(now time.Time, ttl time.Duration, set bool) *ValueHolder[V] {
	next := *h
	next.lastAccessTime = now
	if set {
		next.expirationTime = expiry.ExpiresAt(now, ttl)
	}
	return &next
}

// Updated returns a new holder with the value replaced at now.
// The creation time is the time of the update. If set is false the expiration time is carried over.
func (h *ValueHolder[V]) Updated(value V, now time.Time, ttl time.Duration, set bool) *ValueHolder[V] {
	next := &ValueHolder[V]{
		value:          value,
		createTime:     now,
		lastAccessTime: now,
		expirationTime: h.expirationTime,
	}
	if set {
		next.expirationTime = expiry.ExpiresAt(now, ttl)
	}
	return next
}

// WithValue returns a copy of the holder carrying value instead. Timing metadata is kept.
func (h *ValueHolder[V]) WithValue(value V) *ValueHolder[V] {
	next := *h
	next.value = value
	return &next
}
