// Package errors provides a lightweight structured error type (RenderCIError)
// for category-based classification and exit-code mapping in the CLI.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory represents the category of a renderci error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// External system integration errors
	CategoryNetwork ErrorCategory = "network"
	CategoryInstall ErrorCategory = "install"
	CategorySource  ErrorCategory = "source"

	// Processing errors
	CategoryPlatform   ErrorCategory = "platform"
	CategoryDiscovery  ErrorCategory = "discovery"
	CategoryRender     ErrorCategory = "render"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Runtime and infrastructure errors
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// RenderCIError is a structured error with category, severity, and context
type RenderCIError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for RenderCIError
type ContextFields map[string]any

// Error implements the error interface
func (e *RenderCIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *RenderCIError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *RenderCIError) WithContext(key string, value any) *RenderCIError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new RenderCIError
func New(category ErrorCategory, severity ErrorSeverity, message string) *RenderCIError {
	return &RenderCIError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new RenderCIError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *RenderCIError {
	return &RenderCIError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// IsCategory checks if an error (or anything it wraps) belongs to a category
func IsCategory(err error, category ErrorCategory) bool {
	var rce *RenderCIError
	if errors.As(err, &rce) {
		return rce.Category == category
	}
	return false
}

// GetCategory extracts the category from an error chain, or returns
// CategoryInternal if no RenderCIError is found
func GetCategory(err error) ErrorCategory {
	var rce *RenderCIError
	if errors.As(err, &rce) {
		return rce.Category
	}
	return CategoryInternal
}

// AsRenderCIError extracts the first RenderCIError in the chain.
func AsRenderCIError(err error) (*RenderCIError, bool) {
	var rce *RenderCIError
	ok := errors.As(err, &rce)
	return rce, ok
}
