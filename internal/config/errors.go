package config

import (
	"fmt"
	"strings"

	"confkeeper/internal/storage"
)

// MissingNameError is returned when a configuration is requested without a name.
type MissingNameError struct{}

// Error implements the error interface
func (e *MissingNameError) Error() string {
	return "config name cannot be empty"
}

// TemplateReadError reports that the default template could not be read or parsed.
// There is no fallback for a missing template, so it aborts entry creation.
type TemplateReadError struct {
	Path string
	Err  error
}

// Error implements the error interface
func (e *TemplateReadError) Error() string {
	return fmt.Sprintf("failed to read default template %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TemplateReadError) Unwrap() error {
	return e.Err
}

// DetailedError returns the error with actionable suggestions.
func (e *TemplateReadError) DetailedError() string {
	return detailed(e.Error(), e.Path, []string{
		"Check that the default template ships with the application",
		"Validate the template with a YAML linter",
	})
}

// ConfigReadError reports that the active configuration could not be read or parsed.
type ConfigReadError struct {
	Path string
	Err  error
}

// Error implements the error interface
func (e *ConfigReadError) Error() string {
	return fmt.Sprintf("failed to read config %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ConfigReadError) Unwrap() error {
	return e.Err
}

// DetailedError returns the error with actionable suggestions.
func (e *ConfigReadError) DetailedError() string {
	return detailed(e.Error(), e.Path, []string{
		"Fix the YAML syntax in the file",
		"Or reset it to the defaults with 'confkeeper reset'",
	})
}

// WriteError reports a failed write, backup, seed or reset.
type WriteError = storage.WriteError

func detailed(msg, path string, suggestions []string) string {
	parts := []string{
		fmt.Sprintf("Configuration Error: %s", msg),
		fmt.Sprintf("  File: %s", path),
		"  Suggestions:",
	}
	for _, suggestion := range suggestions {
		parts = append(parts, fmt.Sprintf("    - %s", suggestion))
	}
	return strings.Join(parts, "\n")
}
