// Package errs holds the error types shared by the report pipeline and the
// HTTP layer. Handlers translate them to status codes in one place.
package errs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports a malformed request or definition.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// Invalid builds a ValidationError for a single field.
func Invalid(field, reason string) *ValidationError {
	return &ValidationError{
		Message: "validation failed",
		Fields:  map[string]string{field: reason},
	}
}

// PermissionError is returned when the caller may not perform an action.
type PermissionError struct {
	Action string
}

func (e *PermissionError) Error() string {
	return "permission denied"
}

// NotFoundError is returned when a referenced row does not exist.
type NotFoundError struct {
	Resource string
	ID       any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

type UnsupportedSourceError struct {
	Source string
}

func (e *UnsupportedSourceError) Error() string {
	return fmt.Sprintf("unsupported data source: %q", e.Source)
}

type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported report format: %q", e.Format)
}

// NoRecipientsError is returned by the dispatcher when nobody would receive
// the artifact. Nothing is sent in that case.
type NoRecipientsError struct{}

func (e *NoRecipientsError) Error() string {
	return "no recipients for report delivery"
}

// RenderError wraps a failure of one of the format encoders.
type RenderError struct {
	Format string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render %s report: %v", e.Format, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// DispatchError wraps a failure of the email transport.
type DispatchError struct {
	Err error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("failed to dispatch report: %v", e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// ErrSourceNotMigrated marks a data source whose backing table does not
// exist yet.
var ErrSourceNotMigrated = errors.New("data source is not available yet")
