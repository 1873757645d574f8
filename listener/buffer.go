package listener

import (
	"sync"
	"time"

	"go.uber.org/zap"

	expiringstore "github.com/karupanerura/expiring-store"
)

// Event is an expiration reported by the store.
type Event[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint] struct {
	Key       K
	Value     V
	ExpiredAt time.Time
}

// BufferOption is the interface for the options of Buffer.
type BufferOption interface {
	apply(*bufferOptions)
}

type bufferOptionFunc func(*bufferOptions)

func (f bufferOptionFunc) apply(o *bufferOptions) {
	f(o)
}

// WithPurge makes PurgeOrFireRemainingEvents discard the events left in the buffer instead of dispatching them.
func WithPurge() BufferOption {
	return bufferOptionFunc(func(o *bufferOptions) {
		o.purge = true
	})
}

// WithLogger sets the logger to the buffer. The default logger discards everything.
func WithLogger(logger *zap.Logger) BufferOption {
	return bufferOptionFunc(func(o *bufferOptions) {
		o.logger = logger
	})
}

type bufferOptions struct {
	purge  bool
	logger *zap.Logger
}

// Buffer is a StoreEventListener collecting expirations and dispatching them in batches.
// OnExpiration only records the event; FireAllEvents hands the pending events to the dispatch function.
type Buffer[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint] struct {
	mu       sync.Mutex
	pending  []Event[K, V]
	dispatch func([]Event[K, V])
	options  bufferOptions
}

var _ expiringstore.StoreEventListener[uint8, struct{}] = (*Buffer[uint8, struct{}])(nil)

// NewBuffer creates a Buffer dispatching to f.
// A Buffer with a nil f reports no listeners, so the store skips it entirely.
func NewBuffer[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint](f func([]Event[K, V]), opts ...BufferOption) *Buffer[K, V] {
	options := bufferOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt.apply(&options)
	}
	return &Buffer[K, V]{dispatch: f, options: options}
}

// HasListeners reports whether the buffer has a dispatch function.
func (b *Buffer[K, V]) HasListeners() bool {
	return b.dispatch != nil
}

// OnExpiration buffers the expiration as an Event.
func (b *Buffer[K, V]) OnExpiration(key K, expired *expiringstore.ValueHolder[V]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, Event[K, V]{
		Key:       key,
		Value:     expired.Value(),
		ExpiredAt: expired.ExpirationTime(),
	})
}

// FireAllEvents dispatches the pending events, if any.
func (b *Buffer[K, V]) FireAllEvents() {
	if events := b.take(); len(events) != 0 {
		b.dispatch(events)
	}
}

// PurgeOrFireRemainingEvents empties the buffer, discarding the events with WithPurge and dispatching them otherwise.
func (b *Buffer[K, V]) PurgeOrFireRemainingEvents() {
	events := b.take()
	if len(events) == 0 {
		return
	}
	if b.options.purge {
		b.options.logger.Debug("purged expiration events", zap.Int("count", len(events)))
		return
	}
	b.dispatch(events)
}

// Pending returns the number of events not dispatched yet.
func (b *Buffer[K, V]) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func (b *Buffer[K, V]) take() []Event[K, V] {
	b.mu.Lock()
	defer b.mu.Unlock()
	events := b.pending
	b.pending = nil
	return events
}
