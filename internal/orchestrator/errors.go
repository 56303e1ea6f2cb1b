package orchestrator

import (
	"errors"
	"fmt"
)

// ClassWithoutInterfaceError is returned for a memoizable service whose type
// implements no interface. Its proxy could not be substituted for it.
type ClassWithoutInterfaceError struct {
	ServiceID string
	Type      string
}

// Error implements the error interface
func (e *ClassWithoutInterfaceError) Error() string {
	return fmt.Sprintf("cannot memoize service %q: type %s implements no interface", e.ServiceID, e.Type)
}

// IsClassWithoutInterface reports whether err is a ClassWithoutInterfaceError
func IsClassWithoutInterface(err error) bool {
	var target *ClassWithoutInterfaceError
	return errors.As(err, &target)
}

// ServiceError adds the service being generated to a pass failure
type ServiceError struct {
	ServiceID string
	Err       error
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %q: %v", e.ServiceID, e.Err)
}

// Unwrap returns the cause
func (e *ServiceError) Unwrap() error {
	return e.Err
}
