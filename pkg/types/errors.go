package types

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeInternal      ErrorType = "internal"
	ErrorTypeExternal      ErrorType = "external"
	ErrorTypeTimeout       ErrorType = "timeout"
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ServiceError represents a structured error in the monitoring service
type ServiceError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(code, message string) *ServiceError {
	return &ServiceError{
		Type:    ErrorTypeNotFound,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(code, message string, cause error) *ServiceError {
	return &ServiceError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewExternalError creates an error for a failed call to an outside provider
func NewExternalError(code, message string, cause error) *ServiceError {
	return &ServiceError{
		Type:    ErrorTypeExternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewTimeoutError creates an error for a call that ran out of time
func NewTimeoutError(code, message string, cause error) *ServiceError {
	return &ServiceError{
		Type:    ErrorTypeTimeout,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigurationError creates an error for a provider that has no credentials
func NewConfigurationError(code, message string) *ServiceError {
	return &ServiceError{
		Type:    ErrorTypeConfiguration,
		Code:    code,
		Message: message,
	}
}

// IsType reports whether err wraps a ServiceError of the given type
func IsType(err error, t ErrorType) bool {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Type == t
	}
	return false
}

// Common error codes
const (
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodePatientNotFound  = "PATIENT_NOT_FOUND"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeExternalError    = "EXTERNAL_ERROR"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeTimeout          = "TIMEOUT"
	ErrCodeNotConfigured    = "NOT_CONFIGURED"
	ErrCodeDeliveryFailed   = "DELIVERY_FAILED"
	ErrCodeGenerationFailed = "GENERATION_FAILED"
)

// ErrPatientNotFound is returned by patient lookups for an unknown ID
var ErrPatientNotFound = NewNotFoundError(ErrCodePatientNotFound, "Patient not found")
