package config

import (
	"errors"
	"fmt"

	"github.com/dshills/autoprefix/internal/config/loader"
)

// Errors returned by configuration operations.
var (
	// ErrSettingNotFound indicates the key is not defined by any layer.
	ErrSettingNotFound = errors.New("setting not found")

	// ErrInvalidPath indicates an empty or malformed key.
	ErrInvalidPath = errors.New("invalid setting path")

	// ErrValidationFailed indicates a value was rejected for its key.
	ErrValidationFailed = errors.New("validation failed")

	// ErrClosed indicates the configuration was closed.
	ErrClosed = errors.New("configuration closed")
)

// ParseError reports a malformed configuration file.
type ParseError = loader.ParseError

// TypeError reports a value of the wrong type at a key.
type TypeError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("setting %s: expected %s, got %s", e.Path, e.Expected, e.Actual)
}

// ValidationError reports a value rejected for a key.
type ValidationError struct {
	Path    string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("setting %s: %s (got %v)", e.Path, e.Message, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "nil"
	case string:
		return "string"
	case bool:
		return "bool"
	case int, int64:
		return "int"
	case float64:
		return "float"
	case []string, []any:
		return "list"
	case map[string]any:
		return "table"
	default:
		return fmt.Sprintf("%T", v)
	}
}
