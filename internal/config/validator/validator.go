// Package validator provides configuration validation
package validator

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"securesvc-core/internal/config/schema"
	coreerrors "securesvc-core/internal/core/errors"
	corelog "securesvc-core/internal/core/log"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string // Field path (e.g., "router.payload_preview_bytes")
	Value   string // Current value
	Message string // Error message
	Hint    string // Fix suggestion
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult contains all validation errors
type ValidationResult struct {
	Errors []ValidationError
}

// IsValid returns true if there are no validation errors
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Error returns a formatted error message
func (r *ValidationResult) Error() string {
	if r.IsValid() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n\n")

	for i, err := range r.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Field))
		if err.Value != "" {
			sb.WriteString(fmt.Sprintf("     Current value: %s\n", err.Value))
		}
		sb.WriteString(fmt.Sprintf("     Error: %s\n", err.Message))
		if err.Hint != "" {
			sb.WriteString(fmt.Sprintf("     Hint: %s\n", err.Hint))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// AddError adds a validation error
func (r *ValidationResult) AddError(field, value, message, hint string) {
	r.Errors = append(r.Errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
		Hint:    hint,
	})
}

// Check runs all rules and returns the collected result
func Check(cfg *schema.Root) *ValidationResult {
	result := &ValidationResult{}

	if cfg.Log.Level != "" {
		if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
			result.AddError("log.level", cfg.Log.Level, "unknown log level",
				"use one of: debug, info, warn, error")
		}
	}

	switch strings.ToLower(cfg.Log.Format) {
	case "", corelog.FormatText, corelog.FormatJSON:
	default:
		result.AddError("log.format", cfg.Log.Format, "unknown log format", "use text or json")
	}

	switch strings.ToLower(cfg.Log.Output) {
	case "", corelog.OutputStdout, corelog.OutputStderr, corelog.OutputNone:
	case corelog.OutputFile:
		if cfg.Log.File == "" {
			result.AddError("log.file", "", "log output is file but no file path given", "set log.file")
		}
	default:
		result.AddError("log.output", cfg.Log.Output, "unknown log output", "use stdout, stderr, file or none")
	}

	if cfg.Router.PayloadPreviewBytes < 0 {
		result.AddError("router.payload_preview_bytes", fmt.Sprint(cfg.Router.PayloadPreviewBytes),
			"must not be negative", "use 0 to disable payload preview")
	}

	if cfg.Diagnostics.Enabled {
		if cfg.Diagnostics.HistorySize <= 0 {
			result.AddError("diagnostics.history_size", fmt.Sprint(cfg.Diagnostics.HistorySize),
				"must be positive when diagnostics are enabled", "")
		}
		if !cfg.Router.PublishEvents {
			result.AddError("diagnostics.enabled", "true",
				"diagnostics need router events", "set router.publish_events to true")
		}
	}

	return result
}

// Validate returns a CodeValidationError when the configuration is invalid
func Validate(cfg *schema.Root) error {
	if cfg == nil {
		return coreerrors.New(coreerrors.CodeMissingParam, "configuration is nil")
	}
	result := Check(cfg)
	if result.IsValid() {
		return nil
	}
	err := coreerrors.Wrap(result, coreerrors.CodeValidationError, "invalid configuration")
	return err.WithDetail("field", result.Errors[0].Field)
}
