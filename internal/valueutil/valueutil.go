// Package valueutil inspects keys and values of unknown types.
package valueutil

import (
	"github.com/goccy/go-reflect"
	"github.com/google/go-cmp/cmp"
)

// IsNil reports whether v is nil, including typed nil pointers, maps, slices, channels and functions.
func IsNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}

// DefaultEqual returns the equality used to compare values of type V.
// Values whose dynamic type is comparable are compared with ==, others with cmp.Equal.
// cmp.Equal panics on structs with unexported fields; supply an explicit equality for those.
func DefaultEqual[V any]() func(a, b V) bool {
	return func(a, b V) bool {
		var x, y any = a, b
		if x == nil || y == nil {
			return x == y
		}

		if reflect.TypeOf(x).Comparable() && reflect.TypeOf(y).Comparable() {
			return x == y
		}
		return cmp.Equal(a, b)
	}
}
