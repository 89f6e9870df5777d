package config

import (
	"errors"
	"fmt"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound     = errors.New("configuration file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidJSON      = errors.New("invalid JSON syntax")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrEmptyFile        = errors.New("configuration file is empty")
)

// ConfigurationError reports missing or malformed type configuration.
type ConfigurationError struct {
	Type   string
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Type != "" && e.Field != "":
		return fmt.Sprintf("configuration error: type %q field %q: %s", e.Type, e.Field, e.Reason)
	case e.Type != "":
		return fmt.Sprintf("configuration error: type %q: %s", e.Type, e.Reason)
	case e.Field != "":
		return fmt.Sprintf("configuration error: field %q: %s", e.Field, e.Reason)
	default:
		return "configuration error: " + e.Reason
	}
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *ConfigurationError) Hint() string {
	if e.Type != "" {
		return fmt.Sprintf("Check the %q entry under types: in your configuration file.", e.Type)
	}
	return "Check your configuration file."
}
