package expiringstore

import "errors"

// ErrInvalidArgument is returned when a nil key, value or function is passed where it is not allowed.
var ErrInvalidArgument = errors.New("invalid argument")
