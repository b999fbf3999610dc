package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatConfig      ErrorCategory = "config"      // Missing capability / empty problem statement
	ErrCatCatalog     ErrorCategory = "catalog"     // Persona source missing or malformed (always absorbed)
	ErrCatExtraction  ErrorCategory = "extraction"  // Structured value not recoverable (always absorbed)
	ErrCatGeneration  ErrorCategory = "generation"  // Generation capability failed; phase-fatal
	ErrCatPersistence ErrorCategory = "persistence" // Artifact writing failed
	ErrCatCancelled   ErrorCategory = "cancelled"   // Session cancelled by caller
	ErrCatInternal    ErrorCategory = "internal"    // Unexpected internal error
)

// DomainError represents a structured error from the deliberation core.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// ErrConfig creates a configuration error. Fatal at entry; the session
// never starts.
func ErrConfig(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatConfig,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrCatalogUnavailable creates a catalog error. Recovered internally via
// the generation and synthetic fallbacks; never surfaced to the caller.
func ErrCatalogUnavailable(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatCatalog,
		Code:      "CATALOG_UNAVAILABLE",
		Message:   message,
		Retryable: false,
	}
}

// ErrGeneration creates a generation error. Phase-fatal: aborts the whole
// session. Retry, if any, belongs to the generation capability, not here.
func ErrGeneration(agent string, cause error) *DomainError {
	return &DomainError{
		Category:  ErrCatGeneration,
		Code:      "GENERATION_FAILED",
		Message:   fmt.Sprintf("agent %s generation failed", agent),
		Retryable: true,
		Cause:     cause,
	}
}

// ErrPersistence creates a persistence error, surfaced after resolution
// succeeded.
func ErrPersistence(path string, cause error) *DomainError {
	return &DomainError{
		Category:  ErrCatPersistence,
		Code:      "PERSISTENCE_FAILED",
		Message:   fmt.Sprintf("writing artifact %s", path),
		Retryable: true,
		Cause:     cause,
	}
}

// ErrCancelled creates a cancellation error. Equivalent to session failure;
// no artifacts are written.
func ErrCancelled(phase Phase, cause error) *DomainError {
	return &DomainError{
		Category:  ErrCatCancelled,
		Code:      "SESSION_CANCELLED",
		Message:   fmt.Sprintf("cancelled during %s", phase),
		Retryable: false,
		Cause:     cause,
	}
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// Predefined error codes.
const (
	CodeEmptyProblem       = "EMPTY_PROBLEM"
	CodeNoGenerator        = "NO_GENERATOR"
	CodeUnknownAdapter     = "UNKNOWN_ADAPTER"
	CodeCatalogUnavailable = "CATALOG_UNAVAILABLE"
	CodeGenerationFailed   = "GENERATION_FAILED"
	CodePersistenceFailed  = "PERSISTENCE_FAILED"
	CodeSessionCancelled   = "SESSION_CANCELLED"
)
