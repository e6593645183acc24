package reconcile

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError lists rejected input fields. Nothing was sent to the backend.
type ValidationError struct {
	Fields map[string]string
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a message for field, keeping the first one.
func (e *ValidationError) Add(field, msg string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Attempt is one write in the update verb chain.
type Attempt struct {
	Verb       string
	StatusCode int
	Body       string
	Err        error
}

// WriteError means every verb in the chain failed.
type WriteError struct {
	Attempts []Attempt
}

// Last returns the final attempt.
func (e *WriteError) Last() Attempt {
	if len(e.Attempts) == 0 {
		return Attempt{}
	}
	return e.Attempts[len(e.Attempts)-1]
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	last := e.Last()
	if last.StatusCode == 0 && last.Err != nil {
		return fmt.Sprintf("All update attempts failed. Last error: %v", last.Err)
	}
	return fmt.Sprintf("All update attempts failed. Last status: %d. Body: %s", last.StatusCode, last.Body)
}

// Unwrap returns the error of the last attempt.
func (e *WriteError) Unwrap() error {
	return e.Last().Err
}

// ConfirmError means the write went through but the record could not be read back.
// The server may hold the new values while the session still has the old ones.
type ConfirmError struct {
	EmpID string
	Err   error
}

// Error implements the error interface.
func (e *ConfirmError) Error() string {
	msg := "Could not fetch record after save, check connectivity"
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the read-back failure, if any.
func (e *ConfirmError) Unwrap() error {
	return e.Err
}
