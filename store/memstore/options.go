package memstore

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	expiringstore "github.com/karupanerura/expiring-store"
	"github.com/karupanerura/expiring-store/expiry"
	"github.com/karupanerura/expiring-store/internal/keyhash"
	"github.com/karupanerura/expiring-store/internal/valueutil"
)

// DefaultBucketsSize is the default number of buckets in the store.
var DefaultBucketsSize = 256

// Option is the interface for the options of the in-memory store.
type Option[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint] interface {
	apply(*options[K, V])
}

type optionFunc[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint] func(*options[K, V])

func (f optionFunc[K, V]) apply(o *options[K, V]) {
	f(o)
}

// WithKeyHash sets the key hash function to the store.
func WithKeyHash[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint](f func(K) uint64) Option[K, V] {
	return optionFunc[K, V](func(o *options[K, V]) {
		o.hashKey = f
	})
}

// WithBucketsSize sets the number of buckets in the store.
// The number of buckets must be a natural number.
func WithBucketsSize[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint](bucketsSize int) Option[K, V] {
	if bucketsSize <= 0 {
		panic("bucketSize must be natural number")
	}
	return optionFunc[K, V](func(o *options[K, V]) {
		o.bucketsSize = bucketsSize
	})
}

// WithClock sets the clock to the store.
func WithClock[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint](clock expiringstore.Clock) Option[K, V] {
	return optionFunc[K, V](func(o *options[K, V]) {
		o.clock = clock
	})
}

// WithExpiry sets the expiry policy to the store.
// The default policy never expires values.
func WithExpiry[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint](policy expiry.Policy[K, V]) Option[K, V] {
	return optionFunc[K, V](func(o *options[K, V]) {
		o.policy = policy
	})
}

// WithCloner sets the value cloner to the store.
// Values are cloned when they are stored and when they are handed out.
// The default cloner does not clone.
func WithCloner[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint](cloner expiringstore.ValueCloner[V]) Option[K, V] {
	return optionFunc[K, V](func(o *options[K, V]) {
		o.cloner = cloner
	})
}

// WithEqual sets the value equality used by CompareAndRemove and CompareAndReplace.
func WithEqual[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint](equal func(a, b V) bool) Option[K, V] {
	return optionFunc[K, V](func(o *options[K, V]) {
		o.equal = equal
	})
}

// WithLogger sets the logger to the store. The default logger discards everything.
func WithLogger[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint](logger *zap.Logger) Option[K, V] {
	return optionFunc[K, V](func(o *options[K, V]) {
		o.logger = logger
	})
}

// WithMeterProvider sets the meter provider used to record the store metrics.
// If not provided, the global meter provider is used.
func WithMeterProvider[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint](provider metric.MeterProvider) Option[K, V] {
	return optionFunc[K, V](func(o *options[K, V]) {
		o.meterProvider = provider
	})
}

type options[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint] struct {
	hashKey       func(K) uint64
	bucketsSize   int
	clock         expiringstore.Clock
	policy        expiry.Policy[K, V]
	cloner        expiringstore.ValueCloner[V]
	equal         func(a, b V) bool
	logger        *zap.Logger
	meterProvider metric.MeterProvider
}

func defaultOptions[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint]() options[K, V] {
	return options[K, V]{
		hashKey:       keyhash.For[K](),
		bucketsSize:   DefaultBucketsSize,
		clock:         expiringstore.SystemClock,
		policy:        expiry.NoExpiration[K, V]{},
		cloner:        expiringstore.NopValueCloner[V]{},
		equal:         valueutil.DefaultEqual[V](),
		logger:        zap.NewNop(),
		meterProvider: otel.GetMeterProvider(),
	}
}
