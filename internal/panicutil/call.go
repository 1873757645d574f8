package panicutil

import (
	"github.com/sourcegraph/conc/panics"
)

// Call runs f and returns a panic raised by it as an error.
// The returned error is a *panics.ErrRecovered carrying the panic value and the stack.
// It returns nil if f returns normally.
func Call(f func()) error {
	if r := panics.Try(f); r != nil {
		return r.AsError()
	}
	return nil
}

// Steps runs the functions in order and stops at the first one that panics.
// It returns the index of that function and the recovered panic as an error, or -1 and nil.
func Steps(steps ...func()) (int, error) {
	for i, step := range steps {
		if err := Call(step); err != nil {
			return i, err
		}
	}
	return -1, nil
}
