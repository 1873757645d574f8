package expiry

import (
	"math"
	"time"
)

// Forever is the duration of a value that never expires.
const Forever = time.Duration(math.MaxInt64)

// Policy decides how long stored values stay valid.
// Implementations must be pure: the result may only depend on the arguments.
type Policy[K comparable, V any] interface {
	// ExpiryForCreation returns how long a newly stored value lives.
	ExpiryForCreation(key K, value V) time.Duration

	// ExpiryForAccess returns how long a value lives after it is read.
	// If ok is false the expiration time is left unchanged.
	ExpiryForAccess(key K, value V) (d time.Duration, ok bool)

	// ExpiryForUpdate returns how long a value lives after it replaced oldValue.
	// If ok is false the expiration time of the replaced value carries over.
	ExpiryForUpdate(key K, oldValue, newValue V) (d time.Duration, ok bool)
}

// IsExpired reports whether a value expiring at expiresAt is expired at now.
// A value is expired from its expiration time onwards; the zero expiresAt never expires.
func IsExpired(now, expiresAt time.Time) bool {
	return !expiresAt.IsZero() && !expiresAt.After(now)
}

// ExpiresAt returns the expiration time of a value that lives for d from now.
// Forever yields the zero time and negative durations are treated as zero.
// A zero duration yields now itself, so under IsExpired the value is already expired at the instant it was created
// rather than only once the clock moves past it.
func ExpiresAt(now time.Time, d time.Duration) time.Time {
	if d == Forever {
		return time.Time{}
	}
	if d < 0 {
		d = 0
	}
	return now.Add(d)
}

// NoExpiration is a policy whose values never expire.
type NoExpiration[K comparable, V any] struct{}

var _ Policy[uint8, struct{}] = NoExpiration[uint8, struct{}]{}

// ExpiryForCreation returns Forever.
func (NoExpiration[K, V]) ExpiryForCreation(K, V) time.Duration {
	return Forever
}

// ExpiryForAccess leaves the expiration time unchanged.
func (NoExpiration[K, V]) ExpiryForAccess(K, V) (time.Duration, bool) {
	return 0, false
}

// ExpiryForUpdate leaves the expiration time unchanged.
func (NoExpiration[K, V]) ExpiryForUpdate(K, V, V) (time.Duration, bool) {
	return 0, false
}

// TimeToLive is a policy that expires values a fixed duration after they were last written.
// Reads do not extend the lifetime.
type TimeToLive[K comparable, V any] struct {
	// Duration is how long a written value stays valid.
	Duration time.Duration
}

var _ Policy[uint8, struct{}] = TimeToLive[uint8, struct{}]{}

// ExpiryForCreation returns the configured duration.
func (p TimeToLive[K, V]) ExpiryForCreation(K, V) time.Duration {
	return p.Duration
}

// ExpiryForAccess leaves the expiration time unchanged.
func (TimeToLive[K, V]) ExpiryForAccess(K, V) (time.Duration, bool) {
	return 0, false
}

// ExpiryForUpdate restarts the lifetime with the configured duration.
func (p TimeToLive[K, V]) ExpiryForUpdate(K, V, V) (time.Duration, bool) {
	return p.Duration, true
}

// TimeToIdle is a policy that expires values a fixed duration after they were last read or written.
type TimeToIdle[K comparable, V any] struct {
	// Duration is how long a value stays valid without being touched.
	Duration time.Duration
}

var _ Policy[uint8, struct{}] = TimeToIdle[uint8, struct{}]{}

// ExpiryForCreation returns the configured duration.
func (p TimeToIdle[K, V]) ExpiryForCreation(K, V) time.Duration {
	return p.Duration
}

// ExpiryForAccess restarts the lifetime with the configured duration.
func (p TimeToIdle[K, V]) ExpiryForAccess(K, V) (time.Duration, bool) {
	return p.Duration, true
}

// ExpiryForUpdate restarts the lifetime with the configured duration.
func (p TimeToIdle[K, V]) ExpiryForUpdate(K, V, V) (time.Duration, bool) {
	return p.Duration, true
}

// FunctionsPolicy is a policy that uses functions to compute durations.
// A nil CreationFunc means Forever, and a nil AccessFunc or UpdateFunc leaves the expiration time unchanged.
type FunctionsPolicy[K comparable, V any] struct {
	CreationFunc func(key K, value V) time.Duration
	AccessFunc   func(key K, value V) (time.Duration, bool)
	UpdateFunc   func(key K, oldValue, newValue V) (time.Duration, bool)
}

var _ Policy[uint8, struct{}] = (*FunctionsPolicy[uint8, struct{}])(nil)

// ExpiryForCreation calls CreationFunc.
func (p *FunctionsPolicy[K, V]) ExpiryForCreation(key K, value V) time.Duration {
	if p.CreationFunc == nil {
		return Forever
	}
	return p.CreationFunc(key, value)
}

// ExpiryForAccess calls AccessFunc.
func (p *FunctionsPolicy[K, V]) ExpiryForAccess(key K, value V) (time.Duration, bool) {
	if p.AccessFunc == nil {
		return 0, false
	}
	return p.AccessFunc(key, value)
}

// ExpiryForUpdate calls UpdateFunc.
func (p *FunctionsPolicy[K, V]) ExpiryForUpdate(key K, oldValue, newValue V) (time.Duration, bool) {
	if p.UpdateFunc == nil {
		return 0, false
	}
	return p.UpdateFunc(key, oldValue, newValue)
}
