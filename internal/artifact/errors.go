package artifact

import (
	"errors"
	"fmt"
)

// TargetDirectoryError is returned when the output directory is not a
// directory or cannot be created
type TargetDirectoryError struct {
	Path   string
	Reason string
	Err    error
}

// Error implements the error interface
func (e *TargetDirectoryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("target directory %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("target directory %s: %s", e.Path, e.Reason)
}

// Unwrap returns the filesystem error
func (e *TargetDirectoryError) Unwrap() error {
	return e.Err
}

// ProxyWriteError is returned when a generated file cannot be written
type ProxyWriteError struct {
	Path string
	Err  error
}

// Error implements the error interface
func (e *ProxyWriteError) Error() string {
	return fmt.Sprintf("write proxy %s: %v", e.Path, e.Err)
}

// Unwrap returns the filesystem error
func (e *ProxyWriteError) Unwrap() error {
	return e.Err
}

// IsTargetDirectory reports whether err is a TargetDirectoryError
func IsTargetDirectory(err error) bool {
	var target *TargetDirectoryError
	return errors.As(err, &target)
}

// IsProxyWrite reports whether err is a ProxyWriteError
func IsProxyWrite(err error) bool {
	var target *ProxyWriteError
	return errors.As(err, &target)
}
