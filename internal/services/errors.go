package services

import "fmt"

// AuthenticationError covers failed logins and failed form-link gates. The
// message is deliberately generic so callers cannot distinguish a wrong
// token from a wrong password or a consumed link.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

// NewAuthenticationError returns the uniform credential failure.
func NewAuthenticationError() *AuthenticationError {
	return &AuthenticationError{Message: "invalid credentials"}
}

// AuthorizationError is returned when an authenticated caller lacks the
// privilege level for an operation.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

// NewAuthorizationError builds an authorization failure with context.
func NewAuthorizationError(format string, args ...interface{}) *AuthorizationError {
	return &AuthorizationError{Message: fmt.Sprintf(format, args...)}
}

// ValidationError carries all field violations from a single validation
// pass, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field(s) invalid", len(e.Fields))
}

// NewValidationError creates an empty validation error ready to collect
// field violations.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a violation for a field. The first violation per field wins.
func (e *ValidationError) Add(field, message string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// HasErrors reports whether any violation was recorded.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// InvalidStateError is returned when an operation is attempted against a
// resource whose lifecycle state forbids it, including lost concurrent
// races. Nothing was changed.
type InvalidStateError struct {
	Message string
}

func (e *InvalidStateError) Error() string {
	return e.Message
}

// NewInvalidStateError builds a lifecycle conflict error with context.
func NewInvalidStateError(format string, args ...interface{}) *InvalidStateError {
	return &InvalidStateError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError is returned when a requested resource does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// NewNotFoundError builds a not-found error for the named resource.
func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}
