package memstore

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/karupanerura/expiring-store/store/memstore"

type instrumentation struct {
	expirations      metric.Int64Counter
	hits             metric.Int64Counter
	misses           metric.Int64Counter
	listenerFailures metric.Int64Counter
}

func newInstrumentation(provider metric.MeterProvider) *instrumentation {
	if provider == nil {
		return nil
	}

	meter := provider.Meter(instrumentationName)
	inst := &instrumentation{}
	inst.expirations, _ = meter.Int64Counter(
		"expiringstore.store.expirations",
		metric.WithDescription("Number of entries found expired and dropped"),
	)
	inst.hits, _ = meter.Int64Counter(
		"expiringstore.store.hits",
		metric.WithDescription("Number of Get calls that found a live entry"),
	)
	inst.misses, _ = meter.Int64Counter(
		"expiringstore.store.misses",
		metric.WithDescription("Number of Get calls that found no live entry"),
	)
	inst.listenerFailures, _ = meter.Int64Counter(
		"expiringstore.store.listener.failures",
		metric.WithDescription("Number of listener calls that panicked"),
	)
	return inst
}

func (i *instrumentation) expired(ctx context.Context) {
	if i == nil || i.expirations == nil {
		return
	}
	i.expirations.Add(ctx, 1)
}

func (i *instrumentation) lookup(ctx context.Context, hit bool) {
	if i == nil {
		return
	}
	if hit {
		if i.hits != nil {
			i.hits.Add(ctx, 1)
		}
		return
	}
	if i.misses != nil {
		i.misses.Add(ctx, 1)
	}
}

func (i *instrumentation) listenerFailed(ctx context.Context, step string) {
	if i == nil || i.listenerFailures == nil {
		return
	}
	i.listenerFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("expiringstore.listener.step", step)))
}
