package compose

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrEmptyInput means the manifest text was blank.
	ErrEmptyInput = errors.New("compose manifest is empty")

	// ErrInvalidYAML means the manifest is not valid YAML.
	ErrInvalidYAML = errors.New("invalid YAML")

	// ErrNoServices means the manifest has no services key.
	ErrNoServices = errors.New("'services' key not found")

	// ErrCircularDependency means the service graph has a cycle.
	// Nothing is deployed when this is returned.
	ErrCircularDependency = errors.New("circular dependency detected")
)

// ParseError wraps manifest errors with the field that caused them.
type ParseError struct {
	Field   string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("compose: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("compose: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError.
func NewParseError(field, message string, err error) *ParseError {
	return &ParseError{Field: field, Message: message, Err: err}
}
