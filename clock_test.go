package expiringstore_test

import (
	"sync"
	"testing"
	"time"

	expiringstore "github.com/karupanerura/expiring-store"
)

func TestClockFunc_Now(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := expiringstore.ClockFunc(func() time.Time {
		return fixedTime
	})
	if got := clock.Now(); !got.Equal(fixedTime) {
		t.Errorf("Expected time %v, got %v", fixedTime, got)
	}
}

func TestManualClock(t *testing.T) {
	t.Parallel()

	start := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("stays still until advanced", func(t *testing.T) {
		t.Parallel()

		clock := expiringstore.NewManualClock(start)
		for i := 0; i < 10; i++ {
			if got := clock.Now(); !got.Equal(start) {
				t.Errorf("Expected time %v, got %v", start, got)
			}
		}
	})

	t.Run("Advance moves forward", func(t *testing.T) {
		t.Parallel()

		clock := expiringstore.NewManualClock(start)
		if got := clock.Advance(time.Millisecond); !got.Equal(start.Add(time.Millisecond)) {
			t.Errorf("Advance returned %v", got)
		}
		if got := clock.Now(); !got.Equal(start.Add(time.Millisecond)) {
			t.Errorf("Expected time %v, got %v", start.Add(time.Millisecond), got)
		}
	})

	t.Run("Advance by zero is allowed", func(t *testing.T) {
		t.Parallel()

		clock := expiringstore.NewManualClock(start)
		clock.Advance(0)
		if got := clock.Now(); !got.Equal(start) {
			t.Errorf("Expected time %v, got %v", start, got)
		}
	})

	t.Run("panic on negative duration", func(t *testing.T) {
		t.Parallel()

		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic for negative duration, but did not panic")
			}
		}()
		expiringstore.NewManualClock(start).Advance(-1)
	})

	t.Run("concurrent advance", func(t *testing.T) {
		t.Parallel()

		clock := expiringstore.NewManualClock(start)
		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				clock.Advance(time.Second)
				_ = clock.Now()
			}()
		}
		wg.Wait()

		if got := clock.Now(); !got.Equal(start.Add(100 * time.Second)) {
			t.Errorf("Expected time %v, got %v", start.Add(100*time.Second), got)
		}
	})
}
