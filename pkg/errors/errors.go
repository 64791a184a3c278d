// Package errors provides custom error types for the ckansync pipeline.
// These errors let callers branch on the kind of failure (a catalog record
// that does not exist, a malformed source record, a vocabulary miss) instead
// of inspecting messages.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is and As forward to the standard library so callers need a single
// errors import.
var (
	Is = errors.Is
	As = errors.As
)

// Common sentinel errors for the pipeline
var (
	// ErrNotFound indicates that a requested catalog record was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrSourceShape indicates a raw source record without an expected field
	ErrSourceShape = errors.New("unexpected source record shape")

	// ErrVocabularyMiss indicates a label absent from a controlled vocabulary
	ErrVocabularyMiss = errors.New("vocabulary miss")

	// ErrDuplicateKey indicates a table with two rows normalizing to the same key
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrCatalogUnavailable indicates the destination catalog failed with a server error
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrUnauthorized indicates the catalog rejected the API token
	ErrUnauthorized = errors.New("unauthorized")
)

// NotFoundError represents a catalog record that does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
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

// APIError represents a failed call to the destination catalog.
type APIError struct {
	Action     string // Catalog action, e.g. package_create
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("catalog error from %s (status %d): %s", e.Action, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("catalog error from %s: %s", e.Action, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return target == ErrNotFound
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return target == ErrUnauthorized
	case e.StatusCode >= 500:
		return target == ErrCatalogUnavailable
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(action string, statusCode int, message string) *APIError {
	return &APIError{
		Action:     action,
		StatusCode: statusCode,
		Message:    message,
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

// SourceShapeError reports a raw source record that lacks a field the
// adapter needs, or carries it with an unexpected type.
type SourceShapeError struct {
	File    string
	Field   string
	Message string
}

// Error implements the error interface
func (e *SourceShapeError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("source record %s: field %s: %s", e.File, e.Field, e.Message)
	}
	return fmt.Sprintf("source record: field %s: %s", e.Field, e.Message)
}

// Is implements errors.Is support
func (e *SourceShapeError) Is(target error) bool {
	return target == ErrSourceShape
}

// NewSourceShapeError creates a new SourceShapeError
func NewSourceShapeError(file, field, message string) *SourceShapeError {
	return &SourceShapeError{File: file, Field: field, Message: message}
}

// VocabularyError reports labels that a controlled vocabulary does not know.
type VocabularyError struct {
	Table   string
	Dataset string
	Labels  []string
}

// Error implements the error interface
func (e *VocabularyError) Error() string {
	if e.Dataset != "" {
		return fmt.Sprintf("dataset %s: %s labels not found: %s", e.Dataset, e.Table, strings.Join(e.Labels, ", "))
	}
	return fmt.Sprintf("%s labels not found: %s", e.Table, strings.Join(e.Labels, ", "))
}

// Is implements errors.Is support
func (e *VocabularyError) Is(target error) bool {
	return target == ErrVocabularyMiss
}

// DuplicateKeyError reports table rows that normalize to an existing key.
type DuplicateKeyError struct {
	Table string
	Keys  []string
}

// Error implements the error interface
func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate keys in %s: %s", e.Table, strings.Join(e.Keys, ", "))
}

// Is implements errors.Is support
func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

// ReconcileError represents a catalog mutation failure that stopped a run.
type ReconcileError struct {
	Organization string
	Dataset      string
	Operation    string // "create", "update", "delete"
	Err          error
}

// Error implements the error interface
func (e *ReconcileError) Error() string {
	return fmt.Sprintf("reconcile error for %s dataset %s (%s): %v", e.Organization, e.Dataset, e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *ReconcileError) Unwrap() error {
	return e.Err
}

// NewReconcileError creates a new ReconcileError
func NewReconcileError(organization, dataset, operation string, err error) *ReconcileError {
	return &ReconcileError{
		Organization: organization,
		Dataset:      dataset,
		Operation:    operation,
		Err:          err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsSourceShape checks if an error comes from a malformed source record
func IsSourceShape(err error) bool {
	return errors.Is(err, ErrSourceShape)
}

// IsVocabularyMiss checks if an error is a controlled vocabulary miss
func IsVocabularyMiss(err error) bool {
	return errors.Is(err, ErrVocabularyMiss)
}

// IsDuplicateKey checks if an error reports duplicated table keys
func IsDuplicateKey(err error) bool {
	return errors.Is(err, ErrDuplicateKey)
}

// IsUnauthorized checks if the catalog rejected the credentials
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsCatalogUnavailable checks if an error indicates a catalog server failure
func IsCatalogUnavailable(err error) bool {
	return errors.Is(err, ErrCatalogUnavailable)
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml", "csv", "xlsx"
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
	Operation string // "read", "write", "open", "stat", "glob"
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

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}
