package model

import "fmt"

// ValidationError represents malformed or checksum-failing input
type ValidationError struct {
	Field   string
	Value   interface{}
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation failed on %s: %s (value=%v, rule=%s)", e.Field, e.Message, e.Value, e.Rule)
	}
	return fmt.Sprintf("validation failed on %s: %s (rule=%s)", e.Field, e.Message, e.Rule)
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, rule, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Rule:    rule,
		Message: message,
	}
}

// FormatError represents a document that violates required structure or order
type FormatError struct {
	Field   string
	Message string
	Cause   error
}

func (e *FormatError) Error() string {
	if e.Field != "" && e.Cause != nil {
		return fmt.Sprintf("format error on %s: %s (%v)", e.Field, e.Message, e.Cause)
	}
	if e.Field != "" {
		return fmt.Sprintf("format error on %s: %s", e.Field, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("format error: %s (%v)", e.Message, e.Cause)
	}
	return fmt.Sprintf("format error: %s", e.Message)
}

func (e *FormatError) Unwrap() error {
	return e.Cause
}

// NewFormatError creates a new format error
func NewFormatError(field, message string, cause error) *FormatError {
	return &FormatError{
		Field:   field,
		Message: message,
		Cause:   cause,
	}
}

// CredentialError represents a missing or unusable signing key/certificate
type CredentialError struct {
	Message string
	Cause   error
}

func (e *CredentialError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("credential error: %s (%v)", e.Message, e.Cause)
	}
	return fmt.Sprintf("credential error: %s", e.Message)
}

func (e *CredentialError) Unwrap() error {
	return e.Cause
}

// NewCredentialError creates a new credential error
func NewCredentialError(message string, cause error) *CredentialError {
	return &CredentialError{
		Message: message,
		Cause:   cause,
	}
}

// IntegrityError represents a digest or signature mismatch detected outside
// the expected verify-returns-false path
type IntegrityError struct {
	Message string
	Cause   error
}

func (e *IntegrityError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("integrity error: %s (%v)", e.Message, e.Cause)
	}
	return fmt.Sprintf("integrity error: %s", e.Message)
}

func (e *IntegrityError) Unwrap() error {
	return e.Cause
}

// NewIntegrityError creates a new integrity error
func NewIntegrityError(message string, cause error) *IntegrityError {
	return &IntegrityError{
		Message: message,
		Cause:   cause,
	}
}
