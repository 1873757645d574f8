package valueutil_test

import (
	"testing"

	"github.com/karupanerura/expiring-store/internal/valueutil"
)

type point struct {
	X, Y int
}

func TestIsNil(t *testing.T) {
	t.Parallel()

	var (
		nilPtr   *point
		nilMap   map[string]int
		nilSlice []int
		nilFunc  func()
		nilChan  chan int
	)

	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"untyped nil", nil, true},
		{"nil pointer", nilPtr, true},
		{"nil map", nilMap, true},
		{"nil slice", nilSlice, true},
		{"nil func", nilFunc, true},
		{"nil chan", nilChan, true},
		{"pointer", &point{}, false},
		{"struct", point{}, false},
		{"zero int", 0, false},
		{"empty string", "", false},
		{"empty slice", []int{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := valueutil.IsNil(tt.value); got != tt.want {
				t.Errorf("IsNil(%#v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestDefaultEqual(t *testing.T) {
	t.Parallel()

	t.Run("comparable", func(t *testing.T) {
		t.Parallel()

		eq := valueutil.DefaultEqual[point]()
		if !eq(point{1, 2}, point{1, 2}) {
			t.Error("equal structs must be equal")
		}
		if eq(point{1, 2}, point{2, 1}) {
			t.Error("different structs must not be equal")
		}
	})

	t.Run("pointers compare by identity", func(t *testing.T) {
		t.Parallel()

		eq := valueutil.DefaultEqual[*point]()
		p := &point{1, 2}
		if !eq(p, p) {
			t.Error("same pointer must be equal")
		}
		if eq(p, &point{1, 2}) {
			t.Error("different pointers must not be equal")
		}
	})

	t.Run("slices compare by content", func(t *testing.T) {
		t.Parallel()

		eq := valueutil.DefaultEqual[[]int]()
		if !eq([]int{1, 2}, []int{1, 2}) {
			t.Error("equal slices must be equal")
		}
		if eq([]int{1, 2}, []int{1}) {
			t.Error("different slices must not be equal")
		}
	})

	t.Run("interface values", func(t *testing.T) {
		t.Parallel()

		eq := valueutil.DefaultEqual[any]()
		if !eq("a", "a") {
			t.Error("equal strings must be equal")
		}
		if eq("a", 1) {
			t.Error("values of different types must not be equal")
		}
		if eq(nil, "a") || !eq(nil, nil) {
			t.Error("nil must only equal nil")
		}
		if !eq([]int{1}, []int{1}) {
			t.Error("equal slices must be equal")
		}
	})
}
