// Package errors provides custom error types for the data engine.
// Every error raised by the reconciliation engine or a repository backend
// maps onto one of the sentinels below so callers can branch with errors.Is
// regardless of how deeply the error was wrapped.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is and As re-export the standard library helpers so callers importing this
// package under the name "errors" keep access to them.
var (
	Is = errors.Is
	As = errors.As
)

// Common sentinel errors for the data engine
var (
	// ErrNotFound indicates that a requested object, parent or source was not found
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates that a live object with the same kind and qualified name already exists
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupported indicates that the repository cannot satisfy the requested operation
	ErrUnsupported = errors.New("unsupported operation")

	// ErrUnauthorized indicates that the calling user may not perform the operation
	ErrUnauthorized = errors.New("unauthorized")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConflictError is returned by a repository when a create collides with an
// existing live object of the same kind and qualified name.
type ConflictError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NewConflictError creates a new ConflictError
func NewConflictError(resource, id string) *ConflictError {
	return &ConflictError{Resource: resource, ID: id}
}

// UnsupportedOperationError reports an operation the repository cannot satisfy
// for the target, such as a hard delete of an object with live dependents.
type UnsupportedOperationError struct {
	Operation string
	Resource  string
	ID        string
	Message   string
}

// Error implements the error interface
func (e *UnsupportedOperationError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s of %s %s is not supported: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("%s of %s is not supported: %s", e.Operation, e.Resource, e.Message)
}

// Is implements errors.Is support
func (e *UnsupportedOperationError) Is(target error) bool {
	return target == ErrUnsupported
}

// NewUnsupportedOperationError creates a new UnsupportedOperationError
func NewUnsupportedOperationError(operation, resource, id, message string) *UnsupportedOperationError {
	return &UnsupportedOperationError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
	}
}

// AuthorizationError represents a user that is not allowed to perform an operation
type AuthorizationError struct {
	User      string
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *AuthorizationError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("user %s is not authorized to %s: %s", e.User, e.Operation, e.Message)
	}
	return fmt.Sprintf("user %s is not authorized: %s", e.User, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *AuthorizationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *AuthorizationError) Is(target error) bool {
	return target == ErrUnauthorized
}

// NewAuthorizationError creates a new AuthorizationError
func NewAuthorizationError(user, operation, message string) *AuthorizationError {
	return &AuthorizationError{
		User:      user,
		Operation: operation,
		Message:   message,
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if an error is a duplicate-creation conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsUnsupported checks if an error is an unsupported operation error
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}

// IsUnauthorized checks if an error is an authorization error
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml"
	File    string
	Line    int
	Column  int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("parse error in %s at %s:%d:%d: %s", e.Format, e.File, e.Line, e.Column, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "delete", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// ResourceError attaches the failing operation and the offending object to
// an underlying error. The batch orchestrator returns the first failure of a
// batch in this form.
type ResourceError struct {
	Operation string // "upsert", "remove", "resolve"
	Resource  string // "Container", "SchemaType", "Field", "source"
	ID        string // qualified name of the offending object
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}
