package cloud

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid cloud configuration")
	// ErrRequestFailed is wrapped by every facade failure
	ErrRequestFailed = errors.New("cloud API request failed")
	// ErrPoolClosed is returned when borrowing from a closed transport pool
	ErrPoolClosed = errors.New("transport pool is closed")
	// ErrBuildFailed indicates a compile job finished in the BuildError state
	ErrBuildFailed = errors.New("compile job failed")
	// ErrPollTimeout indicates a job did not finish within the polling budget
	ErrPollTimeout = errors.New("timed out waiting for job to finish")
)

// OperationError reports a failed facade call. Op is the name of the
// facade method that issued the request.
type OperationError struct {
	Op       string
	Endpoint string
	Message  string
}

// Error implements the error interface
func (e *OperationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %v (%s): %s", e.Op, ErrRequestFailed, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("%s: %v (%s)", e.Op, ErrRequestFailed, e.Endpoint)
}

// Unwrap returns ErrRequestFailed so callers can use errors.Is
func (e *OperationError) Unwrap() error {
	return ErrRequestFailed
}
