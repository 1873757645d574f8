// storetest package provides generic test cases for expiring store implementations.
package storetest

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/errgroup"

	expiringstore "github.com/karupanerura/expiring-store"
	"github.com/karupanerura/expiring-store/expiry"
)

// Provider creates a store under test with the given expiry policy and clock, and a function releasing it.
type Provider func(policy expiry.Policy[uint8, int8], clock expiringstore.Clock) (expiringstore.Store[uint8, int8], func())

const (
	testKey uint8 = 1
	valueA  int8  = 1
	valueB  int8  = 2
)

var (
	errMustNotBeCalled = errors.New("must not be called")
	errRemapping       = errors.New("remapping failed")
)

// BenchmarkPut benchmarks the Put method of the store.
func BenchmarkPut(b *testing.B, store expiringstore.Store[uint8, int8], keys []uint8) {
	ctx := b.Context()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Put(ctx, keys[i%len(keys)], int8(i))
	}
}

// BenchmarkGet benchmarks the Get method of the store against live entries.
func BenchmarkGet(b *testing.B, store expiringstore.Store[uint8, int8], keys []uint8) {
	ctx := b.Context()
	for _, key := range keys {
		_ = store.Put(ctx, key, int8(key))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Get(ctx, keys[i%len(keys)])
	}
}

type TestClonerStruct struct {
	value int8
}

func (s *TestClonerStruct) Clone() *TestClonerStruct {
	return &TestClonerStruct{value: s.value}
}

// TestCloneStruct tests that the store never shares stored values with its callers.
func TestCloneStruct(t *testing.T, provider func() (expiringstore.Store[uint8, *TestClonerStruct], func())) {
	t.Run("CloneStruct", func(t *testing.T) {
		t.Parallel()

		store, release := provider()
		defer release()

		original := &TestClonerStruct{value: 1}
		if err := store.Put(t.Context(), 1, original); err != nil {
			t.Fatal(err)
		}
		original.value = 2

		got, err := store.Get(t.Context(), 1)
		if err != nil {
			t.Fatal(err)
		}
		if got == nil {
			t.Fatal("should exist")
		}
		if got.Value() == original {
			t.Error("struct must be cloned, but got same that")
		}
		if df := cmp.Diff(&TestClonerStruct{value: 1}, got.Value(), cmp.AllowUnexported(TestClonerStruct{})); df != "" {
			t.Errorf("struct diff=%s", df)
		}

		got.Value().value = 3
		again, err := store.Get(t.Context(), 1)
		if err != nil {
			t.Fatal(err)
		}
		if again.Value() == got.Value() {
			t.Error("struct must be cloned, but got same that")
		}
		if df := cmp.Diff(&TestClonerStruct{value: 1}, again.Value(), cmp.AllowUnexported(TestClonerStruct{})); df != "" {
			t.Errorf("struct diff=%s", df)
		}
	})
}

// TestOperations tests the operations of the store on live and missing entries.
func TestOperations(t *testing.T, provider Provider) {
	newStore := func() (expiringstore.Store[uint8, int8], func()) {
		return provider(expiry.NoExpiration[uint8, int8]{}, expiringstore.NewManualClock(time.Now()))
	}

	t.Run("Operations", func(t *testing.T) {
		t.Parallel()

		t.Run("PutAndGet", func(t *testing.T) {
			t.Parallel()

			store, release := newStore()
			defer release()

			patterns := []struct {
				key   uint8
				value int8
			}{
				{0, 1},
				{1, 2},
				{2, 3},
				{3, 4},
				{4, 5},
				{251, 124},
				{252, 125},
				{253, 126},
				{254, 127},
				{255, -128},
			}
			rand.Shuffle(len(patterns), func(i, j int) {
				patterns[i], patterns[j] = patterns[j], patterns[i]
			})

			var eg errgroup.Group
			for _, pattern := range patterns {
				eg.Go(func() error {
					h, err := store.Get(t.Context(), pattern.key)
					if err != nil {
						return err
					} else if h != nil {
						return fmt.Errorf("unexpected exists value for key %d", pattern.key)
					}
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				t.Fatal(err)
			}

			eg = errgroup.Group{}
			for _, pattern := range patterns {
				eg.Go(func() error {
					return store.Put(t.Context(), pattern.key, pattern.value)
				})
			}
			if err := eg.Wait(); err != nil {
				t.Fatal(err)
			}

			eg = errgroup.Group{}
			values := make([]int8, len(patterns))
			for i, pattern := range patterns {
				eg.Go(func() error {
					h, err := store.Get(t.Context(), pattern.key)
					if err != nil {
						return err
					} else if h == nil {
						return fmt.Errorf("missing value for key %d", pattern.key)
					}
					values[i] = h.Value()
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				t.Fatal(err)
			}

			for i, pattern := range patterns {
				if values[i] != pattern.value {
					t.Errorf("pattern[%d] key=%d value=%d, want %d", i, pattern.key, values[i], pattern.value)
				}
			}
		})

		t.Run("ContainsKey", func(t *testing.T) {
			t.Parallel()

			store, release := newStore()
			defer release()

			ok, err := store.ContainsKey(t.Context(), testKey)
			if err != nil {
				t.Fatal(err)
			} else if ok {
				t.Error("should not exist")
			}

			if err := store.Put(t.Context(), testKey, valueA); err != nil {
				t.Fatal(err)
			}
			ok, err = store.ContainsKey(t.Context(), testKey)
			if err != nil {
				t.Fatal(err)
			} else if !ok {
				t.Error("should exist")
			}
		})

		t.Run("PutIfAbsent", func(t *testing.T) {
			t.Parallel()

			store, release := newStore()
			defer release()

			prev, err := store.PutIfAbsent(t.Context(), testKey, valueA)
			if err != nil {
				t.Fatal(err)
			} else if prev != nil {
				t.Errorf("unexpected previous value %d", prev.Value())
			}

			prev, err = store.PutIfAbsent(t.Context(), testKey, valueB)
			if err != nil {
				t.Fatal(err)
			} else if prev == nil || prev.Value() != valueA {
				t.Errorf("previous = %v, want %d", prev, valueA)
			}
			assertValue(t, store, testKey, valueA)
		})

		t.Run("Remove", func(t *testing.T) {
			t.Parallel()

			store, release := newStore()
			defer release()

			removed, err := store.Remove(t.Context(), testKey)
			if err != nil {
				t.Fatal(err)
			} else if removed {
				t.Error("missing key must not be removed")
			}

			if err := store.Put(t.Context(), testKey, valueA); err != nil {
				t.Fatal(err)
			}
			removed, err = store.Remove(t.Context(), testKey)
			if err != nil {
				t.Fatal(err)
			} else if !removed {
				t.Error("should be removed")
			}
			assertAbsent(t, store, testKey)
		})

		t.Run("CompareAndRemove", func(t *testing.T) {
			t.Parallel()

			store, release := newStore()
			defer release()

			if err := store.Put(t.Context(), testKey, valueA); err != nil {
				t.Fatal(err)
			}

			removed, err := store.CompareAndRemove(t.Context(), testKey, valueB)
			if err != nil {
				t.Fatal(err)
			} else if removed {
				t.Error("must not remove on value mismatch")
			}
			assertValue(t, store, testKey, valueA)

			removed, err = store.CompareAndRemove(t.Context(), testKey, valueA)
			if err != nil {
				t.Fatal(err)
			} else if !removed {
				t.Error("should be removed")
			}
			assertAbsent(t, store, testKey)
		})

		t.Run("Replace", func(t *testing.T) {
			t.Parallel()

			store, release := newStore()
			defer release()

			prev, err := store.Replace(t.Context(), testKey, valueA)
			if err != nil {
				t.Fatal(err)
			} else if prev != nil {
				t.Error("missing key must not be replaced")
			}
			assertAbsent(t, store, testKey)

			if err := store.Put(t.Context(), testKey, valueA); err != nil {
				t.Fatal(err)
			}
			prev, err = store.Replace(t.Context(), testKey, valueB)
			if err != nil {
				t.Fatal(err)
			} else if prev == nil || prev.Value() != valueA {
				t.Errorf("previous = %v, want %d", prev, valueA)
			}
			assertValue(t, store, testKey, valueB)
		})

		t.Run("CompareAndReplace", func(t *testing.T) {
			t.Parallel()

			store, release := newStore()
			defer release()

			if err := store.Put(t.Context(), testKey, valueA); err != nil {
				t.Fatal(err)
			}

			replaced, err := store.CompareAndReplace(t.Context(), testKey, valueB, valueB)
			if err != nil {
				t.Fatal(err)
			} else if replaced {
				t.Error("must not replace on value mismatch")
			}
			assertValue(t, store, testKey, valueA)

			replaced, err = store.CompareAndReplace(t.Context(), testKey, valueA, valueB)
			if err != nil {
				t.Fatal(err)
			} else if !replaced {
				t.Error("should be replaced")
			}
			assertValue(t, store, testKey, valueB)
		})

		t.Run("Compute", func(t *testing.T) {
			t.Parallel()

			store, release := newStore()
			defer release()

			increment := func(key uint8, old int8, present bool) (int8, bool, error) {
				if !present {
					return valueA, true, nil
				}
				return old + 1, true, nil
			}

			h, err := store.Compute(t.Context(), testKey, increment)
			if err != nil {
				t.Fatal(err)
			} else if h == nil || h.Value() != valueA {
				t.Errorf("computed = %v, want %d", h, valueA)
			}

			h, err = store.Compute(t.Context(), testKey, increment)
			if err != nil {
				t.Fatal(err)
			} else if h == nil || h.Value() != valueA+1 {
				t.Errorf("computed = %v, want %d", h, valueA+1)
			}
			assertValue(t, store, testKey, valueA+1)

			h, err = store.Compute(t.Context(), testKey, func(uint8, int8, bool) (int8, bool, error) {
				return 0, false, nil
			})
			if err != nil {
				t.Fatal(err)
			} else if h != nil {
				t.Errorf("computed = %d, want absent", h.Value())
			}
			assertAbsent(t, store, testKey)
		})

		t.Run("ComputeError", func(t *testing.T) {
			t.Parallel()

			store, release := newStore()
			defer release()

			if err := store.Put(t.Context(), testKey, valueA); err != nil {
				t.Fatal(err)
			}

			wantErr := errors.New("remapping failed")
			_, err := store.Compute(t.Context(), testKey, func(uint8, int8, bool) (int8, bool, error) {
				return valueB, true, wantErr
			})
			if err != wantErr {
				t.Errorf("error = %v, want %v", err, wantErr)
			}
			assertValue(t, store, testKey, valueA)

			_, err = store.ComputeIfPresent(t.Context(), testKey, func(uint8, int8, bool) (int8, bool, error) {
				return 0, false, wantErr
			})
			if err != wantErr {
				t.Errorf("error = %v, want %v", err, wantErr)
			}
			assertValue(t, store, testKey, valueA)

			_, err = store.ComputeIfAbsent(t.Context(), testKey+1, func(uint8) (int8, bool, error) {
				return valueB, true, wantErr
			})
			if err != wantErr {
				t.Errorf("error = %v, want %v", err, wantErr)
			}
			assertAbsent(t, store, testKey+1)
		})

		t.Run("ComputeIfAbsent", func(t *testing.T) {
			t.Parallel()

			store, release := newStore()
			defer release()

			h, err := store.ComputeIfAbsent(t.Context(), testKey, func(uint8) (int8, bool, error) {
				return valueA, false, nil
			})
			if err != nil {
				t.Fatal(err)
			} else if h != nil {
				t.Errorf("computed = %d, want absent", h.Value())
			}
			assertAbsent(t, store, testKey)

			h, err = store.ComputeIfAbsent(t.Context(), testKey, func(uint8) (int8, bool, error) {
				return valueA, true, nil
			})
			if err != nil {
				t.Fatal(err)
			} else if h == nil || h.Value() != valueA {
				t.Errorf("computed = %v, want %d", h, valueA)
			}

			h, err = store.ComputeIfAbsent(t.Context(), testKey, func(uint8) (int8, bool, error) {
				return 0, false, errMustNotBeCalled
			})
			if err != nil {
				t.Fatal(err)
			} else if h == nil || h.Value() != valueA {
				t.Errorf("computed = %v, want %d", h, valueA)
			}
		})

		t.Run("ComputeIfPresent", func(t *testing.T) {
			t.Parallel()

			store, release := newStore()
			defer release()

			h, err := store.ComputeIfPresent(t.Context(), testKey, func(uint8, int8, bool) (int8, bool, error) {
				return 0, false, errMustNotBeCalled
			})
			if err != nil {
				t.Fatal(err)
			} else if h != nil {
				t.Errorf("computed = %d, want absent", h.Value())
			}

			if err := store.Put(t.Context(), testKey, valueA); err != nil {
				t.Fatal(err)
			}
			h, err = store.ComputeIfPresent(t.Context(), testKey, func(key uint8, old int8, present bool) (int8, bool, error) {
				if !present || old != valueA {
					return 0, false, fmt.Errorf("unexpected old value (%d, %v)", old, present)
				}
				return valueB, true, nil
			})
			if err != nil {
				t.Fatal(err)
			} else if h == nil || h.Value() != valueB {
				t.Errorf("computed = %v, want %d", h, valueB)
			}

			h, err = store.ComputeIfPresent(t.Context(), testKey, func(uint8, int8, bool) (int8, bool, error) {
				return 0, false, nil
			})
			if err != nil {
				t.Fatal(err)
			} else if h != nil {
				t.Errorf("computed = %d, want absent", h.Value())
			}
			assertAbsent(t, store, testKey)
		})

		t.Run("Clear", func(t *testing.T) {
			t.Parallel()

			store, release := newStore()
			defer release()

			for key := range uint8(16) {
				if err := store.Put(t.Context(), key, int8(key)); err != nil {
					t.Fatal(err)
				}
			}
			if err := store.Clear(t.Context()); err != nil {
				t.Fatal(err)
			}
			for key := range uint8(16) {
				assertAbsent(t, store, key)
			}
		})
	})
}

// TestExpiryEventListener tests that every operation on an expired entry reports it exactly once
// and then behaves as on a key that was never mapped.
func TestExpiryEventListener(t *testing.T, provider Provider) {
	scenarios := []struct {
		name string
		run  func(t *testing.T, store expiringstore.Store[uint8, int8])
	}{
		{
			name: "Get",
			run: func(t *testing.T, store expiringstore.Store[uint8, int8]) {
				h, err := store.Get(t.Context(), testKey)
				if err != nil {
					t.Fatal(err)
				} else if h != nil {
					t.Errorf("got %d, want absent", h.Value())
				}
			},
		},
		{
			name: "ContainsKey",
			run: func(t *testing.T, store expiringstore.Store[uint8, int8]) {
				ok, err := store.ContainsKey(t.Context(), testKey)
				if err != nil {
					t.Fatal(err)
				} else if ok {
					t.Error("should not exist")
				}
			},
		},
		{
			name: "PutIfAbsent",
			run: func(t *testing.T, store expiringstore.Store[uint8, int8]) {
				prev, err := store.PutIfAbsent(t.Context(), testKey, valueB)
				if err != nil {
					t.Fatal(err)
				} else if prev != nil {
					t.Errorf("previous = %d, want absent", prev.Value())
				}
				assertValue(t, store, testKey, valueB)
			},
		},
		{
			name: "Put",
			run: func(t *testing.T, store expiringstore.Store[uint8, int8]) {
				if err := store.Put(t.Context(), testKey, valueB); err != nil {
					t.Fatal(err)
				}
				assertValue(t, store, testKey, valueB)
			},
		},
		{
			name: "Remove",
			run: func(t *testing.T, store expiringstore.Store[uint8, int8]) {
				removed, err := store.Remove(t.Context(), testKey)
				if err != nil {
					t.Fatal(err)
				} else if removed {
					t.Error("expired entry must not count as removed")
				}
				assertAbsent(t, store, testKey)
			},
		},
		{
			name: "CompareAndRemove",
			run: func(t *testing.T, store expiringstore.Store[uint8, int8]) {
				removed, err := store.CompareAndRemove(t.Context(), testKey, valueA)
				if err != nil {
					t.Fatal(err)
				} else if removed {
					t.Error("expired entry must not count as removed")
				}
				assertAbsent(t, store, testKey)
			},
		},
		{
			name: "Replace",
			run: func(t *testing.T, store expiringstore.Store[uint8, int8]) {
				prev, err := store.Replace(t.Context(), testKey, valueB)
				if err != nil {
					t.Fatal(err)
				} else if prev != nil {
					t.Errorf("previous = %d, want absent", prev.Value())
				}
				assertAbsent(t, store, testKey)
			},
		},
		{
			name: "CompareAndReplace",
			run: func(t *testing.T, store expiringstore.Store[uint8, int8]) {
				replaced, err := store.CompareAndReplace(t.Context(), testKey, valueA, valueB)
				if err != nil {
					t.Fatal(err)
				} else if replaced {
					t.Error("expired entry must not be replaced")
				}
				assertAbsent(t, store, testKey)
			},
		},
		{
			name: "Compute",
			run: func(t *testing.T, store expiringstore.Store[uint8, int8]) {
				h, err := store.Compute(t.Context(), testKey, func(key uint8, old int8, present bool) (int8, bool, error) {
					if present {
						return 0, false, fmt.Errorf("expired value %d must be seen as absent", old)
					}
					return valueB, true, nil
				})
				if err != nil {
					t.Fatal(err)
				} else if h == nil || h.Value() != valueB {
					t.Errorf("computed = %v, want %d", h, valueB)
				}
				assertValue(t, store, testKey, valueB)
			},
		},
		{
			name: "ComputeIfAbsent",
			run: func(t *testing.T, store expiringstore.Store[uint8, int8]) {
				h, err := store.ComputeIfAbsent(t.Context(), testKey, func(uint8) (int8, bool, error) {
					return valueB, true, nil
				})
				if err != nil {
					t.Fatal(err)
				} else if h == nil || h.Value() != valueB {
					t.Errorf("computed = %v, want %d", h, valueB)
				}
				assertValue(t, store, testKey, valueB)
			},
		},
		{
			name: "ComputeError",
			run: func(t *testing.T, store expiringstore.Store[uint8, int8]) {
				_, err := store.Compute(t.Context(), testKey, func(uint8, int8, bool) (int8, bool, error) {
					return valueB, true, errRemapping
				})
				if err != errRemapping {
					t.Errorf("error = %v, want %v", err, errRemapping)
				}
				assertAbsent(t, store, testKey)
			},
		},
		{
			name: "ComputeIfAbsentError",
			run: func(t *testing.T, store expiringstore.Store[uint8, int8]) {
				_, err := store.ComputeIfAbsent(t.Context(), testKey, func(uint8) (int8, bool, error) {
					return valueB, true, errRemapping
				})
				if err != errRemapping {
					t.Errorf("error = %v, want %v", err, errRemapping)
				}
				assertAbsent(t, store, testKey)
			},
		},
		{
			name: "ComputeIfPresent",
			run: func(t *testing.T, store expiringstore.Store[uint8, int8]) {
				h, err := store.ComputeIfPresent(t.Context(), testKey, func(uint8, int8, bool) (int8, bool, error) {
					t.Error("remapping function must not be called for an expired entry")
					return 0, false, errMustNotBeCalled
				})
				if err != nil {
					t.Fatal(err)
				} else if h != nil {
					t.Errorf("computed = %d, want absent", h.Value())
				}
				assertAbsent(t, store, testKey)
			},
		},
	}

	t.Run("ExpiryEventListener", func(t *testing.T) {
		t.Parallel()

		for _, scenario := range scenarios {
			t.Run(scenario.name, func(t *testing.T) {
				t.Parallel()

				clock := expiringstore.NewManualClock(time.Now())
				store, release := provider(expiry.TimeToLive[uint8, int8]{Duration: time.Millisecond}, clock)
				defer release()

				listener := &RecordingListener[uint8, int8]{}
				store.EnableStoreEventNotifications(listener)
				if err := store.Put(t.Context(), testKey, valueA); err != nil {
					t.Fatal(err)
				}
				clock.Advance(time.Millisecond)

				scenario.run(t, store)

				if df := cmp.Diff(ExpirationCalls(testKey, valueA), listener.Calls()); df != "" {
					t.Errorf("listener calls diff=%s", df)
				}
			})
		}
	})
}

// TestAbsentKeys tests that operations on keys that were never mapped do not call the listener.
func TestAbsentKeys(t *testing.T, provider Provider) {
	t.Run("AbsentKeys", func(t *testing.T) {
		t.Parallel()

		clock := expiringstore.NewManualClock(time.Now())
		store, release := provider(expiry.TimeToLive[uint8, int8]{Duration: time.Millisecond}, clock)
		defer release()

		listener := &RecordingListener[uint8, int8]{}
		store.EnableStoreEventNotifications(listener)

		ctx := t.Context()
		never := func(uint8, int8, bool) (int8, bool, error) { return 0, false, errMustNotBeCalled }
		if _, err := store.Get(ctx, 1); err != nil {
			t.Fatal(err)
		}
		if _, err := store.ContainsKey(ctx, 2); err != nil {
			t.Fatal(err)
		}
		if _, err := store.Remove(ctx, 3); err != nil {
			t.Fatal(err)
		}
		if _, err := store.CompareAndRemove(ctx, 4, valueA); err != nil {
			t.Fatal(err)
		}
		if _, err := store.Replace(ctx, 5, valueA); err != nil {
			t.Fatal(err)
		}
		if _, err := store.CompareAndReplace(ctx, 6, valueA, valueB); err != nil {
			t.Fatal(err)
		}
		if _, err := store.ComputeIfPresent(ctx, 7, never); err != nil {
			t.Fatal(err)
		}
		if _, err := store.PutIfAbsent(ctx, 8, valueA); err != nil {
			t.Fatal(err)
		}
		if _, err := store.Compute(ctx, 9, func(uint8, int8, bool) (int8, bool, error) { return valueA, true, nil }); err != nil {
			t.Fatal(err)
		}
		if _, err := store.ComputeIfAbsent(ctx, 10, func(uint8) (int8, bool, error) { return valueA, true, nil }); err != nil {
			t.Fatal(err)
		}
		if err := store.Put(ctx, 11, valueA); err != nil {
			t.Fatal(err)
		}

		// removed entries are absent too
		if _, err := store.Remove(ctx, 11); err != nil {
			t.Fatal(err)
		}
		clock.Advance(time.Millisecond)
		if _, err := store.Get(ctx, 11); err != nil {
			t.Fatal(err)
		}

		if calls := listener.Calls(); len(calls) != 0 {
			t.Errorf("unexpected listener calls: %v", calls)
		}
	})
}

// TestNotificationLifecycle tests how the listener slot affects reported expirations.
func TestNotificationLifecycle(t *testing.T, provider Provider) {
	setup := func(t *testing.T) (expiringstore.Store[uint8, int8], *expiringstore.ManualClock, func()) {
		clock := expiringstore.NewManualClock(time.Now())
		store, release := provider(expiry.TimeToLive[uint8, int8]{Duration: time.Millisecond}, clock)
		if err := store.Put(t.Context(), testKey, valueA); err != nil {
			release()
			t.Fatal(err)
		}
		return store, clock, release
	}

	t.Run("NotificationLifecycle", func(t *testing.T) {
		t.Parallel()

		t.Run("HasListenersFalse", func(t *testing.T) {
			t.Parallel()

			store, clock, release := setup(t)
			defer release()

			listener := &RecordingListener[uint8, int8]{NoListeners: true}
			store.EnableStoreEventNotifications(listener)
			clock.Advance(time.Millisecond)

			assertAbsent(t, store, testKey)
			assertAbsent(t, store, testKey)
			if df := cmp.Diff([]Call[uint8, int8]{{Method: "HasListeners"}}, listener.Calls()); df != "" {
				t.Errorf("listener calls diff=%s", df)
			}
		})

		t.Run("Disabled", func(t *testing.T) {
			t.Parallel()

			store, clock, release := setup(t)
			defer release()

			listener := &RecordingListener[uint8, int8]{}
			store.EnableStoreEventNotifications(listener)
			store.DisableStoreEventNotifications()
			store.DisableStoreEventNotifications()
			clock.Advance(time.Millisecond)

			assertAbsent(t, store, testKey)
			if calls := listener.Calls(); len(calls) != 0 {
				t.Errorf("unexpected listener calls: %v", calls)
			}

			store.EnableStoreEventNotifications(listener)
			assertAbsent(t, store, testKey)
			if calls := listener.Calls(); len(calls) != 0 {
				t.Errorf("dropped entry must not be reported later: %v", calls)
			}
		})

		t.Run("Replaced", func(t *testing.T) {
			t.Parallel()

			store, clock, release := setup(t)
			defer release()

			first := &RecordingListener[uint8, int8]{}
			second := &RecordingListener[uint8, int8]{}
			store.EnableStoreEventNotifications(first)
			store.EnableStoreEventNotifications(second)
			clock.Advance(time.Millisecond)

			assertAbsent(t, store, testKey)
			if calls := first.Calls(); len(calls) != 0 {
				t.Errorf("replaced listener must not be called: %v", calls)
			}
			if df := cmp.Diff(ExpirationCalls(testKey, valueA), second.Calls()); df != "" {
				t.Errorf("listener calls diff=%s", df)
			}
		})

		t.Run("ExpiresOnce", func(t *testing.T) {
			t.Parallel()

			store, clock, release := setup(t)
			defer release()

			listener := &RecordingListener[uint8, int8]{}
			store.EnableStoreEventNotifications(listener)
			clock.Advance(time.Millisecond)

			for range 3 {
				assertAbsent(t, store, testKey)
			}
			if df := cmp.Diff(ExpirationCalls(testKey, valueA), listener.Calls()); df != "" {
				t.Errorf("listener calls diff=%s", df)
			}
		})

		t.Run("ZeroDuration", func(t *testing.T) {
			t.Parallel()

			clock := expiringstore.NewManualClock(time.Now())
			store, release := provider(expiry.TimeToLive[uint8, int8]{Duration: 0}, clock)
			defer release()

			listener := &RecordingListener[uint8, int8]{}
			store.EnableStoreEventNotifications(listener)
			if err := store.Put(t.Context(), testKey, valueA); err != nil {
				t.Fatal(err)
			}
			clock.Advance(time.Nanosecond)

			assertAbsent(t, store, testKey)
			if df := cmp.Diff(ExpirationCalls(testKey, valueA), listener.Calls()); df != "" {
				t.Errorf("listener calls diff=%s", df)
			}
		})
	})
}

// TestUpdateExpiry tests how updates renew or carry over the expiration time.
func TestUpdateExpiry(t *testing.T, provider Provider) {
	t.Run("UpdateExpiry", func(t *testing.T) {
		t.Parallel()

		t.Run("Renewed", func(t *testing.T) {
			t.Parallel()

			clock := expiringstore.NewManualClock(time.Now())
			store, release := provider(expiry.TimeToLive[uint8, int8]{Duration: 10 * time.Millisecond}, clock)
			defer release()

			if err := store.Put(t.Context(), testKey, valueA); err != nil {
				t.Fatal(err)
			}
			clock.Advance(6 * time.Millisecond)
			if _, err := store.Replace(t.Context(), testKey, valueB); err != nil {
				t.Fatal(err)
			}
			clock.Advance(6 * time.Millisecond)
			assertValue(t, store, testKey, valueB)
			clock.Advance(4 * time.Millisecond)
			assertAbsent(t, store, testKey)
		})

		t.Run("CarriedOver", func(t *testing.T) {
			t.Parallel()

			clock := expiringstore.NewManualClock(time.Now())
			store, release := provider(&expiry.FunctionsPolicy[uint8, int8]{
				CreationFunc: func(uint8, int8) time.Duration { return 10 * time.Millisecond },
			}, clock)
			defer release()

			if err := store.Put(t.Context(), testKey, valueA); err != nil {
				t.Fatal(err)
			}
			clock.Advance(6 * time.Millisecond)
			if replaced, err := store.CompareAndReplace(t.Context(), testKey, valueA, valueB); err != nil {
				t.Fatal(err)
			} else if !replaced {
				t.Fatal("should be replaced")
			}
			clock.Advance(3 * time.Millisecond)
			assertValue(t, store, testKey, valueB)
			clock.Advance(time.Millisecond)
			assertAbsent(t, store, testKey)
		})
	})
}

// TestAccessExpiry tests that reads, including PutIfAbsent and ComputeIfAbsent hits, extend the life of entries
// under an idle-based policy while structural checks do not.
func TestAccessExpiry(t *testing.T, provider Provider) {
	t.Run("AccessExpiry", func(t *testing.T) {
		t.Parallel()

		clock := expiringstore.NewManualClock(time.Now())
		store, release := provider(expiry.TimeToIdle[uint8, int8]{Duration: 10 * time.Millisecond}, clock)
		defer release()

		listener := &RecordingListener[uint8, int8]{}
		store.EnableStoreEventNotifications(listener)

		if err := store.Put(t.Context(), testKey, valueA); err != nil {
			t.Fatal(err)
		}
		// each read moves the expiration to 10ms after it
		clock.Advance(6 * time.Millisecond)
		assertValue(t, store, testKey, valueA)

		clock.Advance(6 * time.Millisecond)
		if prev, err := store.PutIfAbsent(t.Context(), testKey, valueB); err != nil {
			t.Fatal(err)
		} else if prev == nil || prev.Value() != valueA {
			t.Errorf("previous = %v, want %d", prev, valueA)
		}

		clock.Advance(6 * time.Millisecond)
		if h, err := store.ComputeIfAbsent(t.Context(), testKey, func(uint8) (int8, bool, error) {
			return 0, false, errMustNotBeCalled
		}); err != nil {
			t.Fatal(err)
		} else if h == nil || h.Value() != valueA {
			t.Errorf("computed = %v, want %d", h, valueA)
		}

		// structural checks do not
		clock.Advance(6 * time.Millisecond)
		if ok, err := store.ContainsKey(t.Context(), testKey); err != nil {
			t.Fatal(err)
		} else if !ok {
			t.Error("should exist")
		}

		clock.Advance(2 * time.Millisecond)
		if replaced, err := store.CompareAndReplace(t.Context(), testKey, valueB, valueB); err != nil {
			t.Fatal(err)
		} else if replaced {
			t.Error("must not replace on value mismatch")
		}

		clock.Advance(2 * time.Millisecond)
		if ok, err := store.ContainsKey(t.Context(), testKey); err != nil {
			t.Fatal(err)
		} else if ok {
			t.Error("ContainsKey and CompareAndReplace must not extend the life of the entry")
		}
		if df := cmp.Diff(ExpirationCalls(testKey, valueA), listener.Calls()); df != "" {
			t.Errorf("listener calls diff=%s", df)
		}
	})
}

// TestConcurrentExpiration tests that concurrent operations on the same expired entry report it only once.
func TestConcurrentExpiration(t *testing.T, provider Provider) {
	t.Run("ConcurrentExpiration", func(t *testing.T) {
		t.Parallel()

		clock := expiringstore.NewManualClock(time.Now())
		store, release := provider(expiry.TimeToLive[uint8, int8]{Duration: time.Millisecond}, clock)
		defer release()

		listener := &RecordingListener[uint8, int8]{}
		store.EnableStoreEventNotifications(listener)

		for key := range uint8(8) {
			if err := store.Put(t.Context(), key, int8(key)); err != nil {
				t.Fatal(err)
			}
		}
		clock.Advance(time.Millisecond)

		p := pool.New().WithErrors().WithMaxGoroutines(16)
		for i := range 128 {
			key := uint8(i % 8)
			p.Go(func() error {
				h, err := store.Get(t.Context(), key)
				if err != nil {
					return err
				} else if h != nil {
					return fmt.Errorf("key %d: expired entry was returned", key)
				}
				return nil
			})
		}
		if err := p.Wait(); err != nil {
			t.Fatal(err)
		}

		expirations := map[uint8]int{}
		for _, call := range listener.Calls() {
			if call.Method == "OnExpiration" {
				expirations[call.Key]++
			}
		}
		for key := range uint8(8) {
			if expirations[key] != 1 {
				t.Errorf("key %d reported %d times, want once", key, expirations[key])
			}
		}
		if calls := listener.Calls(); len(calls) != 8*4 {
			t.Errorf("got %d listener calls, want %d", len(calls), 8*4)
		}
	})
}

func assertValue(t *testing.T, store expiringstore.Store[uint8, int8], key uint8, want int8) {
	t.Helper()

	h, err := store.Get(t.Context(), key)
	if err != nil {
		t.Fatal(err)
	}
	if h == nil {
		t.Errorf("key %d should exist", key)
	} else if h.Value() != want {
		t.Errorf("key %d value=%d, want %d", key, h.Value(), want)
	}
}

func assertAbsent(t *testing.T, store expiringstore.Store[uint8, int8], key uint8) {
	t.Helper()

	h, err := store.Get(t.Context(), key)
	if err != nil {
		t.Fatal(err)
	}
	if h != nil {
		t.Errorf("key %d should not exist, got %d", key, h.Value())
	}
}
