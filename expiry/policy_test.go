package expiry_test

import (
	"testing"
	"time"

	"github.com/karupanerura/expiring-store/expiry"
)

func TestIsExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "not expired when expiry is in future",
			expiresAt: now.Add(1),
			want:      false,
		},
		{
			name:      "expired when expiry is exactly now",
			expiresAt: now,
			want:      true,
		},
		{
			name:      "expired when expiry is in past",
			expiresAt: now.Add(-1),
			want:      true,
		},
		{
			name:      "never expired when expiry is zero",
			expiresAt: time.Time{},
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := expiry.IsExpired(now, tt.expiresAt); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpiresAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		d    time.Duration
		want time.Time
	}{
		{name: "positive duration", d: time.Millisecond, want: now.Add(time.Millisecond)},
		{name: "zero duration expires at now", d: 0, want: now},
		{name: "negative duration is clamped", d: -time.Hour, want: now},
		{name: "forever is zero time", d: expiry.Forever, want: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := expiry.ExpiresAt(now, tt.d); !got.Equal(tt.want) {
				t.Errorf("ExpiresAt() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("zero duration is expired immediately", func(t *testing.T) {
		t.Parallel()
		if !expiry.IsExpired(now, expiry.ExpiresAt(now, 0)) {
			t.Error("zero duration must be expired at its creation instant")
		}
	})
}

func TestNoExpiration(t *testing.T) {
	t.Parallel()

	policy := expiry.NoExpiration[string, int]{}
	if d := policy.ExpiryForCreation("k", 1); d != expiry.Forever {
		t.Errorf("ExpiryForCreation() = %v, want Forever", d)
	}
	if _, ok := policy.ExpiryForAccess("k", 1); ok {
		t.Error("ExpiryForAccess() must be unset")
	}
	if _, ok := policy.ExpiryForUpdate("k", 1, 2); ok {
		t.Error("ExpiryForUpdate() must be unset")
	}
}

func TestTimeToLive(t *testing.T) {
	t.Parallel()

	policy := expiry.TimeToLive[string, int]{Duration: time.Minute}
	if d := policy.ExpiryForCreation("k", 1); d != time.Minute {
		t.Errorf("ExpiryForCreation() = %v, want %v", d, time.Minute)
	}
	if _, ok := policy.ExpiryForAccess("k", 1); ok {
		t.Error("ExpiryForAccess() must be unset")
	}
	if d, ok := policy.ExpiryForUpdate("k", 1, 2); !ok || d != time.Minute {
		t.Errorf("ExpiryForUpdate() = (%v, %v), want (%v, true)", d, ok, time.Minute)
	}
}

func TestTimeToIdle(t *testing.T) {
	t.Parallel()

	policy := expiry.TimeToIdle[string, int]{Duration: time.Minute}
	if d := policy.ExpiryForCreation("k", 1); d != time.Minute {
		t.Errorf("ExpiryForCreation() = %v, want %v", d, time.Minute)
	}
	if d, ok := policy.ExpiryForAccess("k", 1); !ok || d != time.Minute {
		t.Errorf("ExpiryForAccess() = (%v, %v), want (%v, true)", d, ok, time.Minute)
	}
	if d, ok := policy.ExpiryForUpdate("k", 1, 2); !ok || d != time.Minute {
		t.Errorf("ExpiryForUpdate() = (%v, %v), want (%v, true)", d, ok, time.Minute)
	}
}

func TestFunctionsPolicy(t *testing.T) {
	t.Parallel()

	t.Run("nil functions", func(t *testing.T) {
		t.Parallel()

		policy := &expiry.FunctionsPolicy[string, int]{}
		if d := policy.ExpiryForCreation("k", 1); d != expiry.Forever {
			t.Errorf("ExpiryForCreation() = %v, want Forever", d)
		}
		if _, ok := policy.ExpiryForAccess("k", 1); ok {
			t.Error("ExpiryForAccess() must be unset")
		}
		if _, ok := policy.ExpiryForUpdate("k", 1, 2); ok {
			t.Error("ExpiryForUpdate() must be unset")
		}
	})

	t.Run("functions receive arguments", func(t *testing.T) {
		t.Parallel()

		policy := &expiry.FunctionsPolicy[string, int]{
			CreationFunc: func(key string, value int) time.Duration {
				return time.Duration(value) * time.Second
			},
			AccessFunc: func(key string, value int) (time.Duration, bool) {
				return time.Duration(len(key)) * time.Second, key != ""
			},
			UpdateFunc: func(key string, oldValue, newValue int) (time.Duration, bool) {
				return time.Duration(newValue-oldValue) * time.Second, newValue > oldValue
			},
		}
		if d := policy.ExpiryForCreation("k", 3); d != 3*time.Second {
			t.Errorf("ExpiryForCreation() = %v, want 3s", d)
		}
		if d, ok := policy.ExpiryForAccess("key", 0); !ok || d != 3*time.Second {
			t.Errorf("ExpiryForAccess() = (%v, %v), want (3s, true)", d, ok)
		}
		if _, ok := policy.ExpiryForAccess("", 0); ok {
			t.Error("ExpiryForAccess() must be unset for empty key")
		}
		if d, ok := policy.ExpiryForUpdate("k", 1, 5); !ok || d != 4*time.Second {
			t.Errorf("ExpiryForUpdate() = (%v, %v), want (4s, true)", d, ok)
		}
		if _, ok := policy.ExpiryForUpdate("k", 5, 1); ok {
			t.Error("ExpiryForUpdate() must be unset when value decreases")
		}
	})
}
