package memstore

import (
	"context"
	"fmt"
	"time"

	expiringstore "github.com/karupanerura/expiring-store"
	"github.com/karupanerura/expiring-store/internal/ctxsync"
	"github.com/karupanerura/expiring-store/internal/valueutil"
)

type bucket[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint] struct {
	m  map[K]*expiringstore.ValueHolder[V]
	mu *ctxsync.Mutex
}

// Store is a lazily expiring in-memory store.
type Store[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint] struct {
	buckets   []*bucket[K, V]
	options   options[K, V]
	listeners listenerSlot[K, V]
	inst      *instrumentation
	nopClone  bool
}

var _ expiringstore.Store[uint8, struct{}] = (*Store[uint8, struct{}])(nil)

// NewInMemoryStore creates a new in-memory store.
// The store is distributed across multiple buckets, and a hash of the key decides the bucket.
// Operations on keys of different buckets never wait for each other.
func NewInMemoryStore[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint](opts ...Option[K, V]) *Store[K, V] {
	options := defaultOptions[K, V]()
	for _, opt := range opts {
		opt.apply(&options)
	}

	buckets := make([]*bucket[K, V], options.bucketsSize)
	for i := range buckets {
		buckets[i] = &bucket[K, V]{
			m:  map[K]*expiringstore.ValueHolder[V]{},
			mu: ctxsync.NewMutex(),
		}
	}

	_, nopClone := options.cloner.(expiringstore.NopValueCloner[V])
	return &Store[K, V]{
		buckets:  buckets,
		options:  options,
		inst:     newInstrumentation(options.meterProvider),
		nopClone: nopClone,
	}
}

// resolveBucket returns the bucket that owns the given key.
func (s *Store[K, V]) resolveBucket(key K) *bucket[K, V] {
	return s.buckets[s.options.hashKey(key)%uint64(len(s.buckets))]
}

// lock locks and returns the bucket that owns the key, together with the time of the operation.
func (s *Store[K, V]) lock(ctx context.Context, key K) (*bucket[K, V], time.Time, error) {
	b := s.resolveBucket(key)
	if err := b.mu.LockCtx(ctx); err != nil {
		return nil, time.Time{}, err
	}
	return b, s.options.clock.Now(), nil
}

// live returns the holder of the key if it is live at now.
// An expired holder is reported and dropped, and nil is returned as for a missing key.
// The caller must hold the bucket lock.
func (s *Store[K, V]) live(ctx context.Context, b *bucket[K, V], key K, now time.Time) *expiringstore.ValueHolder[V] {
	h, ok := b.m[key]
	if !ok {
		return nil
	}
	if h.IsExpired(now) {
		s.expire(ctx, b, key, h)
		return nil
	}
	return h
}

// access records a read of the live holder h at now and returns the holder now stored.
func (s *Store[K, V]) access(b *bucket[K, V], key K, h *expiringstore.ValueHolder[V], now time.Time) *expiringstore.ValueHolder[V] {
	d, ok := s.options.policy.ExpiryForAccess(key, h.Value())
	next := h.Accessed(now, d, ok)
	b.m[key] = next
	return next
}

// create stores a new holder for the key and returns it.
func (s *Store[K, V]) create(b *bucket[K, V], key K, value V, now time.Time) *expiringstore.ValueHolder[V] {
	value = s.options.cloner.CloneValue(value)
	h := expiringstore.NewValueHolder(value, now, s.options.policy.ExpiryForCreation(key, value))
	b.m[key] = h
	return h
}

// update replaces the live holder h of the key with value and returns the new holder.
func (s *Store[K, V]) update(b *bucket[K, V], key K, h *expiringstore.ValueHolder[V], value V, now time.Time) *expiringstore.ValueHolder[V] {
	value = s.options.cloner.CloneValue(value)
	d, ok := s.options.policy.ExpiryForUpdate(key, h.Value(), value)
	next := h.Updated(value, now, d, ok)
	b.m[key] = next
	return next
}

// cloneHolder returns a holder safe to hand out of the store.
func (s *Store[K, V]) cloneHolder(h *expiringstore.ValueHolder[V]) *expiringstore.ValueHolder[V] {
	if h == nil || s.nopClone {
		return h
	}
	return h.WithValue(s.options.cloner.CloneValue(h.Value()))
}

func (s *Store[K, V]) cloneValue(v V) V {
	if s.nopClone {
		return v
	}
	return s.options.cloner.CloneValue(v)
}

// Put maps the key to the value.
func (s *Store[K, V]) Put(ctx context.Context, key K, value V) error {
	if err := checkKeyValue(key, value); err != nil {
		return err
	}

	b, now, err := s.lock(ctx, key)
	if err != nil {
		return err
	}
	defer b.mu.Unlock()

	if h := s.live(ctx, b, key, now); h != nil {
		s.update(b, key, h, value, now)
	} else {
		s.create(b, key, value, now)
	}
	return nil
}

// Get returns the live mapping of the key, or nil.
func (s *Store[K, V]) Get(ctx context.Context, key K) (*expiringstore.ValueHolder[V], error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	b, now, err := s.lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer b.mu.Unlock()

	h := s.live(ctx, b, key, now)
	s.inst.lookup(ctx, h != nil)
	if h == nil {
		return nil, nil
	}
	return s.cloneHolder(s.access(b, key, h, now)), nil
}

// ContainsKey reports whether the key has a live mapping.
// It does not count as a read of the value.
func (s *Store[K, V]) ContainsKey(ctx context.Context, key K) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}

	b, now, err := s.lock(ctx, key)
	if err != nil {
		return false, err
	}
	defer b.mu.Unlock()

	return s.live(ctx, b, key, now) != nil, nil
}

// PutIfAbsent maps the key to the value if it has no live mapping.
// It returns the existing mapping, or nil if the value was installed.
func (s *Store[K, V]) PutIfAbsent(ctx context.Context, key K, value V) (*expiringstore.ValueHolder[V], error) {
	if err := checkKeyValue(key, value); err != nil {
		return nil, err
	}

	b, now, err := s.lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer b.mu.Unlock()

	if h := s.live(ctx, b, key, now); h != nil {
		return s.cloneHolder(s.access(b, key, h, now)), nil
	}
	s.create(b, key, value, now)
	return nil, nil
}

// Remove removes the live mapping of the key and reports whether one was removed.
func (s *Store[K, V]) Remove(ctx context.Context, key K) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}

	b, now, err := s.lock(ctx, key)
	if err != nil {
		return false, err
	}
	defer b.mu.Unlock()

	if h := s.live(ctx, b, key, now); h == nil {
		return false, nil
	}
	delete(b.m, key)
	return true, nil
}

// CompareAndRemove removes the mapping of the key if it is live and its value equals value.
func (s *Store[K, V]) CompareAndRemove(ctx context.Context, key K, value V) (bool, error) {
	if err := checkKeyValue(key, value); err != nil {
		return false, err
	}

	b, now, err := s.lock(ctx, key)
	if err != nil {
		return false, err
	}
	defer b.mu.Unlock()

	h := s.live(ctx, b, key, now)
	if h == nil || !s.options.equal(h.Value(), value) {
		return false, nil
	}
	delete(b.m, key)
	return true, nil
}

// Replace replaces the value of a live mapping and returns the previous mapping.
// It returns nil and changes nothing if the key has no live mapping.
func (s *Store[K, V]) Replace(ctx context.Context, key K, value V) (*expiringstore.ValueHolder[V], error) {
	if err := checkKeyValue(key, value); err != nil {
		return nil, err
	}

	b, now, err := s.lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer b.mu.Unlock()

	h := s.live(ctx, b, key, now)
	if h == nil {
		return nil, nil
	}
	s.update(b, key, h, value, now)
	return s.cloneHolder(h), nil
}

// CompareAndReplace replaces the value of the key with newValue if the mapping is live and equals oldValue.
func (s *Store[K, V]) CompareAndReplace(ctx context.Context, key K, oldValue, newValue V) (bool, error) {
	if err := checkKeyValue(key, oldValue); err != nil {
		return false, err
	}
	if err := checkValue(newValue); err != nil {
		return false, err
	}

	b, now, err := s.lock(ctx, key)
	if err != nil {
		return false, err
	}
	defer b.mu.Unlock()

	h := s.live(ctx, b, key, now)
	if h == nil || !s.options.equal(h.Value(), oldValue) {
		return false, nil
	}
	s.update(b, key, h, newValue, now)
	return true, nil
}

// Compute remaps the key and returns the resulting mapping.
// An expired mapping is reported first, and f then sees the key as absent.
// If f fails, its error is returned as is and the mapping is left as it was after the expiration check.
func (s *Store[K, V]) Compute(ctx context.Context, key K, f expiringstore.RemappingFunc[K, V]) (*expiringstore.ValueHolder[V], error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("nil remapping function: %w", expiringstore.ErrInvalidArgument)
	}

	b, now, err := s.lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer b.mu.Unlock()

	h := s.live(ctx, b, key, now)

	var oldValue V
	if h != nil {
		oldValue = s.cloneValue(h.Value())
	}
	newValue, keep, err := f(key, oldValue, h != nil)
	if err != nil {
		return nil, err
	}
	if !keep {
		if h != nil {
			delete(b.m, key)
		}
		return nil, nil
	}
	if err := checkValue(newValue); err != nil {
		return nil, err
	}

	if h != nil {
		return s.cloneHolder(s.update(b, key, h, newValue, now)), nil
	}
	return s.cloneHolder(s.create(b, key, newValue, now)), nil
}

// ComputeIfAbsent installs the value computed by f if the key has no live mapping, and returns the mapping.
// A live mapping is returned as a read without calling f.
func (s *Store[K, V]) ComputeIfAbsent(ctx context.Context, key K, f expiringstore.MappingFunc[K, V]) (*expiringstore.ValueHolder[V], error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("nil mapping function: %w", expiringstore.ErrInvalidArgument)
	}

	b, now, err := s.lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer b.mu.Unlock()

	if h := s.live(ctx, b, key, now); h != nil {
		return s.cloneHolder(s.access(b, key, h, now)), nil
	}

	value, keep, err := f(key)
	if err != nil {
		return nil, err
	}
	if !keep {
		return nil, nil
	}
	if err := checkValue(value); err != nil {
		return nil, err
	}
	return s.cloneHolder(s.create(b, key, value, now)), nil
}

// ComputeIfPresent remaps the key if it has a live mapping, and returns the resulting mapping.
// f is not called for a missing or expired key.
func (s *Store[K, V]) ComputeIfPresent(ctx context.Context, key K, f expiringstore.RemappingFunc[K, V]) (*expiringstore.ValueHolder[V], error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("nil remapping function: %w", expiringstore.ErrInvalidArgument)
	}

	b, now, err := s.lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer b.mu.Unlock()

	h := s.live(ctx, b, key, now)
	if h == nil {
		return nil, nil
	}

	newValue, keep, err := f(key, s.cloneValue(h.Value()), true)
	if err != nil {
		return nil, err
	}
	if !keep {
		delete(b.m, key)
		return nil, nil
	}
	if err := checkValue(newValue); err != nil {
		return nil, err
	}
	return s.cloneHolder(s.update(b, key, h, newValue, now)), nil
}

// Clear removes every mapping. Expired mappings are dropped without notification.
func (s *Store[K, V]) Clear(ctx context.Context) error {
	for i, b := range s.buckets {
		if err := b.mu.LockCtx(ctx); err != nil {
			for _, locked := range s.buckets[:i] {
				locked.mu.Unlock()
			}
			return err
		}
	}

	for _, b := range s.buckets {
		b.m = map[K]*expiringstore.ValueHolder[V]{}
		b.mu.Unlock()
	}
	return nil
}

// EnableStoreEventNotifications installs the listener, replacing the current one.
// Expirations already being reported keep using the listener they started with.
// It panics if l is nil.
func (s *Store[K, V]) EnableStoreEventNotifications(l expiringstore.StoreEventListener[K, V]) {
	if valueutil.IsNil(l) {
		panic("memstore: nil store event listener")
	}
	s.listeners.enable(l)
}

// DisableStoreEventNotifications removes the current listener. It is a no-op when none is installed.
func (s *Store[K, V]) DisableStoreEventNotifications() {
	s.listeners.disable()
}

// Len returns the number of stored entries, including expired entries not yet noticed.
func (s *Store[K, V]) Len() int {
	n := 0
	for _, b := range s.buckets {
		b.mu.Lock()
		n += len(b.m)
		b.mu.Unlock()
	}
	return n
}

func checkKey(key any) error {
	if valueutil.IsNil(key) {
		return fmt.Errorf("nil key: %w", expiringstore.ErrInvalidArgument)
	}
	return nil
}

func checkValue(value any) error {
	if valueutil.IsNil(value) {
		return fmt.Errorf("nil value: %w", expiringstore.ErrInvalidArgument)
	}
	return nil
}

func checkKeyValue(key, value any) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return checkValue(value)
}
