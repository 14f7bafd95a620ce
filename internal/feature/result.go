package feature

import "fmt"

// Status indicates the outcome of a feature invocation.
type Status uint8

const (
	// StatusSuccess indicates the action completed (or started) cleanly.
	StatusSuccess Status = iota
	// StatusError indicates the action failed.
	StatusError
	// StatusCancelled indicates the action was cancelled.
	StatusCancelled
	// StatusPending indicates the action continues in the background.
	StatusPending
)

// String returns a string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusCancelled:
		return "cancelled"
	case StatusPending:
		return "pending"
	default:
		return "unknown"
	}
}

// Result is the outcome of a feature invocation. The status is always set
// before a result is returned or observed.
type Result struct {
	// Status indicates the outcome.
	Status Status

	// Message is an optional human-readable note for notifications.
	Message string

	// Err carries the underlying error for StatusError results.
	Err error

	// Data holds feature-specific return data.
	Data map[string]any
}

// IsError returns true if the result indicates a failure.
func (r Result) IsError() bool {
	return r.Status == StatusError
}

// Success creates a successful result.
func Success() Result {
	return Result{Status: StatusSuccess}
}

// Successf creates a successful result with a formatted message.
func Successf(format string, args ...any) Result {
	return Result{Status: StatusSuccess, Message: fmt.Sprintf(format, args...)}
}

// Error creates an error result from an error value.
func Error(err error) Result {
	r := Result{Status: StatusError, Err: err}
	if err != nil {
		r.Message = err.Error()
	}
	return r
}

// Errorf creates an error result with a formatted message.
func Errorf(format string, args ...any) Result {
	err := fmt.Errorf(format, args...)
	return Result{Status: StatusError, Err: err, Message: err.Error()}
}

// Cancelled creates a cancelled result.
func Cancelled(msg string) Result {
	return Result{Status: StatusCancelled, Message: msg}
}

// Pending creates a pending result for work that continues in the
// background.
func Pending(msg string) Result {
	return Result{Status: StatusPending, Message: msg}
}

// WithData returns a copy of the result with a data entry added.
func (r Result) WithData(key string, value any) Result {
	if r.Data == nil {
		r.Data = make(map[string]any)
	}
	r.Data[key] = value
	return r
}
