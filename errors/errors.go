// Package errors provides the structured error type shared by every voiceid
// package. Errors carry a machine-readable code, a human-readable message,
// optional details and an underlying cause reachable through errors.Unwrap.
package errors

import (
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Fatal indicates the error must abort the current run.
	Fatal bool `json:"fatal"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic fatal detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Fatal:   IsFatalCode(code),
	}
}

// --- Common Error Constructors ---

// ServiceUnavailable creates an error for a collaborator that is not reachable.
func ServiceUnavailable(service string) *AppError {
	return &AppError{
		Code: ErrCodeServiceUnavailable, Message: fmt.Sprintf("The %s is temporarily unavailable.", service),
		Details: map[string]any{"service": service},
	}
}

// ConnectionFailed creates an error for a failed connection to a service.
func ConnectionFailed(service string) *AppError {
	return &AppError{
		Code: ErrCodeConnectionFailed, Message: fmt.Sprintf("Unable to connect to %s.", service),
		Details: map[string]any{"service": service},
	}
}

// Timeout creates an error for an operation that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The operation took too long.",
		Details: map[string]any{"operation": operation},
	}
}

// NotFound creates an error for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		Details: details,
	}
}

// InvalidInput creates a fatal error for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		Fatal: true, Details: details,
	}
}

// Validation creates a fatal error for validation failures.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		Fatal: true,
	}
}

// MissingField creates a fatal error for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		Fatal: true, Details: map[string]any{"field": field},
	}
}

// ModelLoad creates the fatal error raised when the embedding model cannot
// be loaded. It is the only error class that reaches the top of a run.
func ModelLoad(model string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeModelLoad, Message: fmt.Sprintf("Embedding model %q could not be loaded.", model),
		Fatal: true, Details: map[string]any{"model": model}, Cause: cause,
	}
}

// UnitEmbedding creates the per-unit extraction error. Callers record it and
// drop the unit.
func UnitEmbedding(index int, start, end float64, cause error) *AppError {
	return &AppError{
		Code: ErrCodeUnitEmbedding, Message: fmt.Sprintf("Unit %d could not be embedded.", index),
		Details: map[string]any{"unit": index, "start": start, "end": end}, Cause: cause,
	}
}

// CacheRead creates the error for an unreadable cache entry. Callers treat
// it as a miss.
func CacheRead(key string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeCacheRead, Message: fmt.Sprintf("Cache entry %q could not be read.", key),
		Details: map[string]any{"key": key}, Cause: cause,
	}
}

// EmptyInput creates the error for a run where no valid units survive filtering.
func EmptyInput(total int) *AppError {
	return &AppError{
		Code: ErrCodeEmptyInput, Message: "No valid units survived filtering.",
		Details: map[string]any{"units": total},
	}
}

// Internal creates an error for an unexpected internal failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		Fatal: true, Cause: cause,
	}
}

// DatabaseError creates an error for a database failure.
func DatabaseError(cause error) *AppError {
	return &AppError{
		Code: ErrCodeDatabaseError, Message: "A database error occurred.",
		Cause: cause,
	}
}

// ExternalServiceError creates an error for a failure reported by an external service.
func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeExternalService, Message: fmt.Sprintf("The %s service encountered an error.", service),
		Details: map[string]any{"service": service}, Cause: cause,
	}
}
