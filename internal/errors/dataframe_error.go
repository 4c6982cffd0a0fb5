// Package errors provides standardized error types for table and view operations.
// DataFrameError carries the operation, the view and column involved, and a Kind
// that classifies recoverable conditions (missing column, empty result,
// unparseable value) so callers can branch with errors.Is.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a DataFrameError.
type Kind int

const (
	// KindUnknown is the zero Kind, used for generic failures.
	KindUnknown Kind = iota
	// KindMissingColumn reports a column required by an operation that is absent.
	KindMissingColumn
	// KindEmptyResult reports that filtering removed every row.
	KindEmptyResult
	// KindUnparseableValue reports a value that could not be coerced.
	KindUnparseableValue
	// KindInvalidInput reports a malformed argument.
	KindInvalidInput
	// KindInternal wraps an unexpected failure.
	KindInternal
)

// String returns the reason string used in view output.
func (k Kind) String() string {
	switch k {
	case KindMissingColumn:
		return "missing-column"
	case KindEmptyResult:
		return "empty-after-filter"
	case KindUnparseableValue:
		return "unparseable-value"
	case KindInvalidInput:
		return "invalid-input"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// DataFrameError represents standardized errors across all table operations
type DataFrameError struct {
	Kind    Kind   // Classification of the failure
	Op      string // Operation name (e.g., "Filter", "Normalize", "ComputeViews")
	View    string // View name if applicable
	Column  string // Column name if applicable
	Message string // Human-readable error description
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *DataFrameError) Error() string {
	if e == nil {
		return "<nil>"
	}
	prefix := fmt.Sprintf("%s operation failed", e.Op)
	if e.View != "" {
		prefix = fmt.Sprintf("%s operation failed for view '%s'", e.Op, e.View)
	}
	if e.Column != "" {
		return fmt.Sprintf("%s on column '%s': %s", prefix, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying cause for error wrapping support
func (e *DataFrameError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches sentinel errors by Kind and any other DataFrameError by all fields.
// A nil receiver matches nothing.
func (e *DataFrameError) Is(target error) bool {
	df, ok := target.(*DataFrameError)
	if e == nil || !ok || df == nil {
		return false
	}
	if df.sentinel() {
		return e.Kind == df.Kind
	}
	return e.Kind == df.Kind && e.Op == df.Op && e.View == df.View &&
		e.Column == df.Column && e.Message == df.Message
}

func (e *DataFrameError) sentinel() bool {
	return e.Op == "" && e.View == "" && e.Column == "" && e.Message == ""
}

// Reason returns the Kind's reason string.
func (e *DataFrameError) Reason() string {
	if e == nil {
		return ""
	}
	return e.Kind.String()
}

// WithView returns a copy of the error attributed to the named view.
func (e *DataFrameError) WithView(view string) *DataFrameError {
	c := *e
	c.View = view
	return &c
}

// Sentinels for errors.Is; they match any DataFrameError of the same Kind.
var (
	ErrMissingColumn    = &DataFrameError{Kind: KindMissingColumn}
	ErrEmptyResult      = &DataFrameError{Kind: KindEmptyResult}
	ErrUnparseableValue = &DataFrameError{Kind: KindUnparseableValue}
	ErrInvalidInput     = &DataFrameError{Kind: KindInvalidInput}
)

// NewMissingColumnError creates an error for operations on non-existent columns
func NewMissingColumnError(op, column string) *DataFrameError {
	return &DataFrameError{
		Kind:    KindMissingColumn,
		Op:      op,
		Column:  column,
		Message: "column does not exist",
	}
}

// NewEmptyResultError creates an error for a filter that removed every row
func NewEmptyResultError(op string) *DataFrameError {
	return &DataFrameError{
		Kind:    KindEmptyResult,
		Op:      op,
		Message: "no rows left after filtering",
	}
}

// NewUnparseableValueError creates an error for a value that failed coercion
func NewUnparseableValueError(op, column, value string) *DataFrameError {
	return &DataFrameError{
		Kind:    KindUnparseableValue,
		Op:      op,
		Column:  column,
		Message: fmt.Sprintf("cannot parse value %q", value),
	}
}

// NewInvalidInputError creates an error for invalid operation inputs
func NewInvalidInputError(op, message string) *DataFrameError {
	return &DataFrameError{
		Kind:    KindInvalidInput,
		Op:      op,
		Message: message,
	}
}

// NewInternalError creates an error for internal operation failures
func NewInternalError(op string, cause error) *DataFrameError {
	return &DataFrameError{
		Kind:    KindInternal,
		Op:      op,
		Message: "internal error occurred",
		Cause:   cause,
	}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}
