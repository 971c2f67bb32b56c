// Package apperr defines the error taxonomy shared by the ingestion services
// and its mapping onto HTTP responses.
package apperr

import (
	"fmt"
	"strings"
)

// ValidationError is returned for malformed or missing configuration input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Validation builds a ValidationError.
func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidationErrors aggregates several field failures.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, v := range e {
		if v.Field != "" {
			parts = append(parts, v.Field+": "+v.Message)
		} else {
			parts = append(parts, v.Message)
		}
	}
	return "validation error: " + strings.Join(parts, "; ")
}

// NotFoundError is returned when a source, job or record does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// NotFound builds a NotFoundError.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// ConfigError means a source lacks the selectors or endpoint its kind needs.
type ConfigError struct {
	Source  string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("config error for source %q: %s", e.Source, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// FetchError covers network failures and non-2xx responses.
type FetchError struct {
	URL        string
	StatusCode int
	Cause      error
}

func (e *FetchError) Error() string {
	switch {
	case e.Cause != nil && e.StatusCode != 0:
		return fmt.Sprintf("fetch error for %s: status %d: %v", e.URL, e.StatusCode, e.Cause)
	case e.Cause != nil:
		return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Cause)
	default:
		return fmt.Sprintf("fetch error for %s: status %d", e.URL, e.StatusCode)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// ParseError means a response body could not be decoded.
type ParseError struct {
	URL   string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s: %v", e.URL, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
