package directive

import (
	"errors"
	"fmt"
	"go/token"
)

// SyntaxError reports a malformed //memoize: comment
type SyntaxError struct {
	Pos    token.Position
	Text   string
	Reason string
}

// Error implements the error interface
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: invalid directive %q: %s", e.Pos, e.Text, e.Reason)
}

// IsSyntaxError reports whether err is a SyntaxError
func IsSyntaxError(err error) bool {
	var target *SyntaxError
	return errors.As(err, &target)
}
