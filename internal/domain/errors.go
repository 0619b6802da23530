package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")
	// ErrOperationInFlight is returned when a call of the same kind is still running.
	ErrOperationInFlight = errors.New("operation already in flight")
	// ErrUnknownJob is returned when an operation needs a job that is not in the local set.
	ErrUnknownJob = errors.New("unknown job")
)

// ValidationError rejects input before any network call is made.
type ValidationError struct {
	Field   string
	Message string
}

// Validationf builds a ValidationError for field with a formatted message.
func Validationf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// DuplicateError reports submissions the service already tracks. It is not a
// failure of the call: the candidates are meant for the duplicate list.
// Total is set when nothing from the submission was accepted.
type DuplicateError struct {
	Candidates []DuplicateCandidate
	Total      bool
}

func (e *DuplicateError) Error() string {
	urls := make([]string, 0, len(e.Candidates))
	for _, c := range e.Candidates {
		urls = append(urls, c.URL)
	}
	if e.Total {
		return fmt.Sprintf("all submitted links are already tracked: %s", strings.Join(urls, ", "))
	}
	return fmt.Sprintf("some submitted links are already tracked: %s", strings.Join(urls, ", "))
}

// RemoteError is a transport or server failure of a job service call.
type RemoteError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Body != "":
		return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
}

// Unwrap exposes the transport error, if any.
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsDuplicate reports whether err carries duplicate candidates and returns them.
func IsDuplicate(err error) (*DuplicateError, bool) {
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return dup, true
	}
	return nil, false
}
