package introspect

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTypeNotFound is returned when a service type does not exist
var ErrTypeNotFound = errors.New("type not found")

// LoadError collects the errors reported while loading packages
type LoadError struct {
	Errors []string
}

// Error implements the error interface
func (e *LoadError) Error() string {
	return "load packages: " + strings.Join(e.Errors, "; ")
}

// UnsupportedTargetError is returned for types that cannot be proxied
type UnsupportedTargetError struct {
	Type   string
	Reason string
}

// Error implements the error interface
func (e *UnsupportedTargetError) Error() string {
	return fmt.Sprintf("cannot proxy %s: %s", e.Type, e.Reason)
}

// InterfaceNotImplementedError is returned when a configured interface is not
// implemented by the service type
type InterfaceNotImplementedError struct {
	Type      string
	Interface string
	Missing   string
}

// Error implements the error interface
func (e *InterfaceNotImplementedError) Error() string {
	msg := fmt.Sprintf("%s does not implement %s", e.Type, e.Interface)
	if e.Missing != "" {
		msg += " (missing method " + e.Missing + ")"
	}
	return msg
}

// UnknownParameterTypeError is returned when a signature uses a type that
// generated code cannot spell
type UnknownParameterTypeError struct {
	Method string
	Param  string
	Type   string
}

// Error implements the error interface
func (e *UnknownParameterTypeError) Error() string {
	return fmt.Sprintf("method %s: %s has unsupported type %s", e.Method, e.Param, e.Type)
}

// UnsupportedDefaultValueError is returned for a default that cannot be
// reproduced as a literal
type UnsupportedDefaultValueError struct {
	Method string
	Param  string
	Expr   string
	Reason string
}

// Error implements the error interface
func (e *UnsupportedDefaultValueError) Error() string {
	return fmt.Sprintf("method %s: default %q for %s: %s", e.Method, e.Expr, e.Param, e.Reason)
}

// IsTypeNotFound reports whether err is ErrTypeNotFound
func IsTypeNotFound(err error) bool {
	return errors.Is(err, ErrTypeNotFound)
}

// IsUnknownParameterType reports whether err is an UnknownParameterTypeError
func IsUnknownParameterType(err error) bool {
	var target *UnknownParameterTypeError
	return errors.As(err, &target)
}

// IsUnsupportedDefaultValue reports whether err is an UnsupportedDefaultValueError
func IsUnsupportedDefaultValue(err error) bool {
	var target *UnsupportedDefaultValueError
	return errors.As(err, &target)
}

// IsUnsupportedTarget reports whether err is an UnsupportedTargetError
func IsUnsupportedTarget(err error) bool {
	var target *UnsupportedTargetError
	return errors.As(err, &target)
}

// IsInterfaceNotImplemented reports whether err is an InterfaceNotImplementedError
func IsInterfaceNotImplemented(err error) bool {
	var target *InterfaceNotImplementedError
	return errors.As(err, &target)
}

// unknownTypeError is raised by the converter and wrapped with method context
type unknownTypeError struct {
	typ string
}

func (e *unknownTypeError) Error() string {
	return "unsupported type " + e.typ
}
