package memoize

import (
	"errors"
	"strconv"
)

var (
	// ErrDoubleHitFlagSet is matched by DoubleHitFlagSetError
	ErrDoubleHitFlagSet = errors.New("memoize: hit flag assigned twice")

	// ErrNilPool is returned when a nil pool is provided to the container
	ErrNilPool = errors.New("memoize: nil pool")

	// ErrNilDecorator is returned when a nil decorator is registered
	ErrNilDecorator = errors.New("memoize: nil decorator")
)

// DoubleHitFlagSetError reports a backend that assigned an item's hit flag twice.
// It indicates a bug in the pool implementation, not caller misuse.
type DoubleHitFlagSetError struct {
	Key string
}

// Error implements the error interface.
func (e *DoubleHitFlagSetError) Error() string {
	return "memoize: hit flag of item " + strconv.Quote(e.Key) + " can only be assigned once"
}

// Is matches ErrDoubleHitFlagSet.
func (e *DoubleHitFlagSetError) Is(target error) bool {
	return target == ErrDoubleHitFlagSet
}

// DuplicateServiceError is returned when a service or pool id is provided twice.
type DuplicateServiceError struct {
	ID string
}

// Error implements the error interface.
func (e *DuplicateServiceError) Error() string {
	return "memoize: duplicate service " + strconv.Quote(e.ID)
}

// ServiceNotFoundError is returned when no service is registered under an id.
type ServiceNotFoundError struct {
	ID string
}

// Error implements the error interface.
func (e *ServiceNotFoundError) Error() string {
	return "memoize: service " + strconv.Quote(e.ID) + " not found"
}

// PoolNotFoundError is returned when a decorator asks for an unknown pool.
type PoolNotFoundError struct {
	ID string
}

// Error implements the error interface.
func (e *PoolNotFoundError) Error() string {
	return "memoize: pool " + strconv.Quote(e.ID) + " not found"
}

// DecoratorTypeError is returned when the inner service does not have the method
// set a generated proxy forwards to.
type DecoratorTypeError struct {
	ServiceID string
	Want      string
	Got       string
}

// Error implements the error interface.
func (e *DecoratorTypeError) Error() string {
	return "memoize: service " + strconv.Quote(e.ServiceID) + " is " + e.Got + ", proxy needs " + e.Want
}

// IsDoubleHitFlagSet reports whether err is a DoubleHitFlagSetError.
func IsDoubleHitFlagSet(err error) bool {
	var target *DoubleHitFlagSetError
	return errors.As(err, &target)
}

// IsServiceNotFound reports whether err is a ServiceNotFoundError.
func IsServiceNotFound(err error) bool {
	var target *ServiceNotFoundError
	return errors.As(err, &target)
}
