package buildgate

import (
	"errors"
	"fmt"
)

// ErrGenerationBlocked is matched by every error returned from Enforce. The
// underlying scanner or verifier error stays reachable through errors.Is and
// errors.As on the same value.
var ErrGenerationBlocked = errors.New("constants generation blocked")

// blockedError wraps a scanner or verifier failure with the concrete error
// ErrGenerationBlocked. We do not expose this publicly because the interface
// methods of Is and Unwrap should give the user all they need.
type blockedError struct {
	stage string
	cause error
}

// Error returns a string representation of the error.
func (e *blockedError) Error() string {
	return fmt.Sprintf("generation blocked by %s: %s", e.stage, e.cause)
}

// Is allows the error to support equality to ErrGenerationBlocked.
func (e *blockedError) Is(target error) bool {
	return target == ErrGenerationBlocked
}

// Unwrap allows the error to support equality to the
// underlying error and not just ErrGenerationBlocked.
func (e *blockedError) Unwrap() error {
	return e.cause
}
