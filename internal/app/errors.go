package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound        = errors.New("not found")
	ErrMalformedState  = errors.New("malformed persisted state")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)
