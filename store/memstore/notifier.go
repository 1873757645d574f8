package memstore

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	expiringstore "github.com/karupanerura/expiring-store"
	"github.com/karupanerura/expiring-store/internal/panicutil"
)

// listenerSlot is the single slot holding the installed listener.
type listenerSlot[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint] struct {
	current atomic.Pointer[listenerRef[K, V]]
}

type listenerRef[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint] struct {
	listener expiringstore.StoreEventListener[K, V]
}

// enable installs l, replacing the current listener.
func (s *listenerSlot[K, V]) enable(l expiringstore.StoreEventListener[K, V]) {
	s.current.Store(&listenerRef[K, V]{listener: l})
}

// disable empties the slot.
func (s *listenerSlot[K, V]) disable() {
	s.current.Store(nil)
}

// load returns the installed listener or nil.
func (s *listenerSlot[K, V]) load() expiringstore.StoreEventListener[K, V] {
	if ref := s.current.Load(); ref != nil {
		return ref.listener
	}
	return nil
}

// expire reports the expired holder of key and drops it from the bucket.
// The caller must hold the bucket lock.
//
// The listener is sampled once. HasListeners gates the rest: when it is false, or when no listener is installed,
// the entry is dropped silently. Otherwise OnExpiration, the removal, FireAllEvents and PurgeOrFireRemainingEvents
// run in this order. A panicking listener call stops the sequence; the entry is dropped regardless.
func (s *Store[K, V]) expire(ctx context.Context, b *bucket[K, V], key K, expired *expiringstore.ValueHolder[V]) {
	s.inst.expired(ctx)
	s.options.logger.Debug("entry expired",
		zap.Any("key", key),
		zap.Time("expiresAt", expired.ExpirationTime()),
	)

	evict := func() {
		delete(b.m, key)
	}

	l := s.listeners.load()
	if l == nil {
		evict()
		return
	}

	var hasListeners bool
	if err := panicutil.Call(func() { hasListeners = l.HasListeners() }); err != nil {
		evict()
		s.listenerFailed(ctx, "HasListeners", err)
		return
	}
	if !hasListeners {
		evict()
		return
	}

	names := [...]string{"OnExpiration", "", "FireAllEvents", "PurgeOrFireRemainingEvents"}
	failed, err := panicutil.Steps(
		func() { l.OnExpiration(key, s.cloneHolder(expired)) },
		evict,
		l.FireAllEvents,
		l.PurgeOrFireRemainingEvents,
	)
	if err != nil {
		if failed == 0 {
			evict()
		}
		s.listenerFailed(ctx, names[failed], err)
	}
}

func (s *Store[K, V]) listenerFailed(ctx context.Context, step string, err error) {
	s.inst.listenerFailed(ctx, step)
	s.options.logger.Error("store event listener panicked",
		zap.String("step", step),
		zap.Error(err),
	)
}
