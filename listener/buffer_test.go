package listener_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	expiringstore "github.com/karupanerura/expiring-store"
	"github.com/karupanerura/expiring-store/expiry"
	"github.com/karupanerura/expiring-store/listener"
	"github.com/karupanerura/expiring-store/store/memstore"
)

func TestBuffer(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("FireAllEvents dispatches pending events", func(t *testing.T) {
		t.Parallel()

		var batches [][]listener.Event[string, int]
		buffer := listener.NewBuffer(func(events []listener.Event[string, int]) {
			batches = append(batches, events)
		})
		if !buffer.HasListeners() {
			t.Fatal("buffer with a dispatch function must have listeners")
		}

		buffer.OnExpiration("a", expiringstore.NewValueHolder(1, base, time.Second))
		buffer.OnExpiration("b", expiringstore.NewValueHolder(2, base, time.Minute))
		if n := buffer.Pending(); n != 2 {
			t.Errorf("Pending() = %d, want 2", n)
		}
		buffer.FireAllEvents()
		buffer.FireAllEvents()
		buffer.PurgeOrFireRemainingEvents()

		want := [][]listener.Event[string, int]{
			{
				{Key: "a", Value: 1, ExpiredAt: base.Add(time.Second)},
				{Key: "b", Value: 2, ExpiredAt: base.Add(time.Minute)},
			},
		}
		if df := cmp.Diff(want, batches); df != "" {
			t.Errorf("batches diff=%s", df)
		}
		if n := buffer.Pending(); n != 0 {
			t.Errorf("Pending() = %d, want 0", n)
		}
	})

	t.Run("PurgeOrFireRemainingEvents fires by default", func(t *testing.T) {
		t.Parallel()

		var dispatched []listener.Event[string, int]
		buffer := listener.NewBuffer(func(events []listener.Event[string, int]) {
			dispatched = append(dispatched, events...)
		})
		buffer.OnExpiration("a", expiringstore.NewValueHolder(1, base, time.Second))
		buffer.PurgeOrFireRemainingEvents()

		if df := cmp.Diff([]listener.Event[string, int]{{Key: "a", Value: 1, ExpiredAt: base.Add(time.Second)}}, dispatched); df != "" {
			t.Errorf("dispatched diff=%s", df)
		}
	})

	t.Run("PurgeOrFireRemainingEvents purges with WithPurge", func(t *testing.T) {
		t.Parallel()

		core, logs := observer.New(zapcore.DebugLevel)
		var dispatched []listener.Event[string, int]
		buffer := listener.NewBuffer(func(events []listener.Event[string, int]) {
			dispatched = append(dispatched, events...)
		}, listener.WithPurge(), listener.WithLogger(zap.New(core)))
		buffer.OnExpiration("a", expiringstore.NewValueHolder(1, base, time.Second))
		buffer.PurgeOrFireRemainingEvents()

		if len(dispatched) != 0 {
			t.Errorf("purged events must not be dispatched: %v", dispatched)
		}
		if n := buffer.Pending(); n != 0 {
			t.Errorf("Pending() = %d, want 0", n)
		}
		if n := logs.FilterMessage("purged expiration events").Len(); n != 1 {
			t.Errorf("got %d purge logs, want 1", n)
		}
	})

	t.Run("nil dispatch has no listeners", func(t *testing.T) {
		t.Parallel()

		if listener.NewBuffer[string, int](nil).HasListeners() {
			t.Error("buffer without dispatch function must not have listeners")
		}
	})

	t.Run("with store", func(t *testing.T) {
		t.Parallel()

		clock := expiringstore.NewManualClock(base)
		store := memstore.NewInMemoryStore(
			memstore.WithClock[string, int](clock),
			memstore.WithExpiry[string, int](expiry.TimeToLive[string, int]{Duration: time.Second}),
		)
		var dispatched []listener.Event[string, int]
		store.EnableStoreEventNotifications(listener.NewBuffer(func(events []listener.Event[string, int]) {
			dispatched = append(dispatched, events...)
		}))

		if err := store.Put(t.Context(), "a", 1); err != nil {
			t.Fatal(err)
		}
		clock.Advance(time.Second)
		if ok, err := store.ContainsKey(t.Context(), "a"); err != nil {
			t.Fatal(err)
		} else if ok {
			t.Error("should not exist")
		}

		if df := cmp.Diff([]listener.Event[string, int]{{Key: "a", Value: 1, ExpiredAt: base.Add(time.Second)}}, dispatched); df != "" {
			t.Errorf("dispatched diff=%s", df)
		}
	})
}
