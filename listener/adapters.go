package listener

import (
	expiringstore "github.com/karupanerura/expiring-store"
	"github.com/karupanerura/expiring-store/internal/panicutil"
)

// Functions is a StoreEventListener built from functions.
// A nil HasListenersFunc reports true, and the other nil functions do nothing.
type Functions[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint] struct {
	HasListenersFunc               func() bool
	OnExpirationFunc               func(key K, expired *expiringstore.ValueHolder[V])
	FireAllEventsFunc              func()
	PurgeOrFireRemainingEventsFunc func()
}

var _ expiringstore.StoreEventListener[uint8, struct{}] = (*Functions[uint8, struct{}])(nil)

// HasListeners calls the HasListenersFunc function, or reports true if it is nil.
func (f *Functions[K, V]) HasListeners() bool {
	if f.HasListenersFunc == nil {
		return true
	}
	return f.HasListenersFunc()
}

// OnExpiration calls the OnExpirationFunc function if it is set.
func (f *Functions[K, V]) OnExpiration(key K, expired *expiringstore.ValueHolder[V]) {
	if f.OnExpirationFunc != nil {
		f.OnExpirationFunc(key, expired)
	}
}

// FireAllEvents calls the FireAllEventsFunc function if it is set.
func (f *Functions[K, V]) FireAllEvents() {
	if f.FireAllEventsFunc != nil {
		f.FireAllEventsFunc()
	}
}

// PurgeOrFireRemainingEvents calls the PurgeOrFireRemainingEventsFunc function if it is set.
func (f *Functions[K, V]) PurgeOrFireRemainingEvents() {
	if f.PurgeOrFireRemainingEventsFunc != nil {
		f.PurgeOrFireRemainingEventsFunc()
	}
}

// Recover wraps l so that its panics are passed to onPanic instead of reaching the store.
// A panicking HasListeners reports false.
func Recover[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint](l expiringstore.StoreEventListener[K, V], onPanic func(method string, err error)) expiringstore.StoreEventListener[K, V] {
	return &recovering[K, V]{listener: l, onPanic: onPanic}
}

type recovering[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint] struct {
	listener expiringstore.StoreEventListener[K, V]
	onPanic  func(method string, err error)
}

func (r *recovering[K, V]) call(method string, f func()) bool {
	if err := panicutil.Call(f); err != nil {
		if r.onPanic != nil {
			r.onPanic(method, err)
		}
		return false
	}
	return true
}

func (r *recovering[K, V]) HasListeners() bool {
	var has bool
	if !r.call("HasListeners", func() { has = r.listener.HasListeners() }) {
		return false
	}
	return has
}

func (r *recovering[K, V]) OnExpiration(key K, expired *expiringstore.ValueHolder[V]) {
	r.call("OnExpiration", func() { r.listener.OnExpiration(key, expired) })
}

func (r *recovering[K, V]) FireAllEvents() {
	r.call("FireAllEvents", r.listener.FireAllEvents)
}

func (r *recovering[K, V]) PurgeOrFireRemainingEvents() {
	r.call("PurgeOrFireRemainingEvents", r.listener.PurgeOrFireRemainingEvents)
}
