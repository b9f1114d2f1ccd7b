// Package errors defines the categorized error type shared by the reconciler
// packages and the CLI.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCategory groups errors by what the operator has to fix. The CLI maps
// each category to its own exit code.
type ErrorCategory string

const (
	CategoryFile           ErrorCategory = "file"
	CategoryParse          ErrorCategory = "parse"
	CategoryValidation     ErrorCategory = "validation"
	CategoryConfiguration  ErrorCategory = "configuration"
	CategoryReconciliation ErrorCategory = "reconciliation"
	CategoryInternal       ErrorCategory = "internal"
)

var exitCodes = map[ErrorCategory]int{
	CategoryFile:           2,
	CategoryParse:          3,
	CategoryValidation:     3,
	CategoryConfiguration:  4,
	CategoryReconciliation: 5,
	CategoryInternal:       5,
}

// ErrorCode narrows a category down to the concrete failure
type ErrorCode string

const (
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"
	CodeFileCorrupted  ErrorCode = "file_corrupted"

	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeMissingColumn ErrorCode = "missing_column"
	CodeEncodingError ErrorCode = "encoding_error"

	CodeMissingField ErrorCode = "missing_field"

	CodeInvalidConfig ErrorCode = "invalid_config"

	CodeProcessingError ErrorCode = "processing_error"

	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// Context carries the key/value details printed under an error
type Context map[string]interface{}

// ReconcilerError is the error type every layer returns to the CLI and API
type ReconcilerError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

func (e *ReconcilerError) Error() string {
	if e.Suggestion == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
}

func (e *ReconcilerError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns the process exit code for the error's category, or 1
// for an unknown category.
func (e *ReconcilerError) GetExitCode() int {
	if code, ok := exitCodes[e.Category]; ok {
		return code
	}
	return 1
}

// WithContext sets one context entry and returns e for chaining
func (e *ReconcilerError) WithContext(key string, value interface{}) *ReconcilerError {
	if e.Context == nil {
		e.Context = Context{}
	}
	e.Context[key] = value
	return e
}

// WithSuggestion replaces the suggestion and returns e for chaining
func (e *ReconcilerError) WithSuggestion(suggestion string) *ReconcilerError {
	e.Suggestion = suggestion
	return e
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// New returns an error with no cause. The stack is captured at the call site.
func New(category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	return &ReconcilerError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap attaches a category and code to err. It returns nil for a nil err.
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	if err == nil {
		return nil
	}
	return &ReconcilerError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// AsReconcilerError finds the first ReconcilerError in err's chain
func AsReconcilerError(err error) (*ReconcilerError, bool) {
	var target *ReconcilerError
	if !errors.As(err, &target) {
		return nil, false
	}
	return target, true
}

// WrapIfNeeded returns err unchanged when it already carries a
// ReconcilerError and wraps it otherwise.
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	if existing, ok := AsReconcilerError(err); ok {
		return existing
	}
	return Wrap(err, category, code, message)
}
