package service

import "errors"

var (
	// ErrNotFound indicates an unknown handle or endpoint. Lookup-style
	// operations absorb it into a default value.
	ErrNotFound = errors.New("bloomer: not found")
	// ErrEncodingFailure indicates a filter could not be serialized.
	ErrEncodingFailure = errors.New("bloomer: encoding failure")
	// ErrBindingFailure indicates an endpoint could not be bound.
	ErrBindingFailure = errors.New("bloomer: binding failure")
	// ErrInvalidConfig indicates a configuration value out of range.
	ErrInvalidConfig = errors.New("bloomer: invalid config")
)
