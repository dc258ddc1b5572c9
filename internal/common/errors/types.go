package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrTypeInvalidIdentifier represents malformed article identifiers,
	// rejected before any I/O
	ErrTypeInvalidIdentifier ErrorType = "invalid_identifier"
	// ErrTypeBackingStore represents durable cache backend errors; these
	// are recovered locally and never surfaced to callers
	ErrTypeBackingStore ErrorType = "backing_store"
	// ErrTypeGenerationFailed represents a failed artifact generation
	ErrTypeGenerationFailed ErrorType = "generation_failed"
	// ErrTypeGenerationTimeout represents generation exceeding its wall-clock budget
	ErrTypeGenerationTimeout ErrorType = "generation_timeout"
	// ErrTypeRateLimit represents admission-control rejections
	ErrTypeRateLimit ErrorType = "rate_limit"
	// ErrTypeNotFound represents resource not found errors
	ErrTypeNotFound ErrorType = "not_found"
	// ErrTypeConfig represents configuration errors
	ErrTypeConfig ErrorType = "config"
	// ErrTypeInternal represents internal system errors
	ErrTypeInternal ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	parts := []string{string(e.Type), e.Message}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}

	if len(e.Context) > 0 {
		contextParts := make([]string, 0, len(e.Context))
		for k, v := range e.Context {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context={%s}", strings.Join(contextParts, ", ")))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// InvalidIdentifierError creates a new invalid identifier error
func InvalidIdentifierError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeInvalidIdentifier,
		Message: msg,
	}
}

// BackingStoreError creates a new backing store error
func BackingStoreError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeBackingStore,
		Message: msg,
		Cause:   cause,
	}
}

// GenerationFailedError creates a new generation failure error
func GenerationFailedError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeGenerationFailed,
		Message: msg,
		Cause:   cause,
	}
}

// GenerationTimeoutError creates a new generation timeout error
func GenerationTimeoutError(operation string) *AppError {
	return &AppError{
		Type:    ErrTypeGenerationTimeout,
		Message: fmt.Sprintf("timeout during %s", operation),
	}
}

// RateLimitError creates a new rate limit error
func RateLimitError(resource string) *AppError {
	return &AppError{
		Type:    ErrTypeRateLimit,
		Message: fmt.Sprintf("rate limit exceeded for %s", resource),
	}
}

// NotFoundError creates a new not found error
func NotFoundError(resource string) *AppError {
	return &AppError{
		Type:    ErrTypeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// ConfigError creates a new configuration error
func ConfigError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeConfig,
		Message: msg,
	}
}

// InternalError creates a new internal error
func InternalError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeInternal,
		Message: msg,
		Cause:   cause,
	}
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}

	return appErr.Type == errType
}

// GetType returns the error type if it's an AppError, otherwise returns ErrTypeInternal
func GetType(err error) ErrorType {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		return ErrTypeInternal
	}

	return appErr.Type
}
