package types

import (
	"errors"
	"fmt"
)

// ErrorType represents the error taxonomy of the routing engine
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeDegraded   ErrorType = "degraded_dependency"
	ErrorTypeEscalation ErrorType = "escalation_failure"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeInternal   ErrorType = "internal"
)

// CareRouteError is the structured error carried across the engine
type CareRouteError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *CareRouteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *CareRouteError) Unwrap() error {
	return e.Cause
}

// IsType reports whether err is a CareRouteError of the given type
func IsType(err error, t ErrorType) bool {
	var cre *CareRouteError
	if errors.As(err, &cre) {
		return cre.Type == t
	}
	return false
}

// NewValidationError creates a new validation error
func NewValidationError(code, message string, details map[string]interface{}) *CareRouteError {
	return &CareRouteError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(code, message string) *CareRouteError {
	return &CareRouteError{
		Type:    ErrorTypeNotFound,
		Code:    code,
		Message: message,
	}
}

// NewDegradedError creates a new degraded dependency error
func NewDegradedError(code, message string, cause error) *CareRouteError {
	return &CareRouteError{
		Type:    ErrorTypeDegraded,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewEscalationError creates a new escalation failure error
func NewEscalationError(code, message string, details map[string]interface{}) *CareRouteError {
	return &CareRouteError{
		Type:    ErrorTypeEscalation,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(code, message string) *CareRouteError {
	return &CareRouteError{
		Type:    ErrorTypeConflict,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(code, message string, cause error) *CareRouteError {
	return &CareRouteError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Common error codes
const (
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeProviderNotFound   = "PROVIDER_NOT_FOUND"
	ErrCodeSessionNotFound    = "SESSION_NOT_FOUND"
	ErrCodeNoAvailableSlot    = "NO_AVAILABLE_SLOT"
	ErrCodeIllegalTransition  = "ILLEGAL_TRANSITION"
	ErrCodeSummaryUnavailable = "SUMMARY_UNAVAILABLE"
	ErrCodeNoProviderMatch    = "NO_PROVIDER_MATCH"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)
