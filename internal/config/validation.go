// Package config provides configuration parsing for the ladybird shell.
// This file implements validation of configuration values.
package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation error.
// It contains the field name and a description of the issue.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the results of a configuration validation.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// IsValid returns true if there are no validation errors.
func (vr *ValidationResult) IsValid() bool {
	return len(vr.Errors) == 0
}

// Error returns a combined error message if there are errors, nil otherwise.
func (vr *ValidationResult) Error() error {
	if len(vr.Errors) == 0 {
		return nil
	}
	messages := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		messages = append(messages, e.Error())
	}
	return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
}

// AddError adds a validation error.
func (vr *ValidationResult) AddError(field, message string) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: message})
}

// AddWarning adds a validation warning.
func (vr *ValidationResult) AddWarning(field, message string) {
	vr.Warnings = append(vr.Warnings, ValidationError{Field: field, Message: message})
}

// Validator checks a Config for values the shell cannot run with.
type Validator struct {
	maxDimension int
}

// NewValidator creates a new Validator with default settings.
func NewValidator() *Validator {
	return &Validator{maxDimension: 16384}
}

// Validate checks every section of cfg.
func (v *Validator) Validate(cfg *Config) *ValidationResult {
	result := &ValidationResult{}

	if strings.TrimSpace(cfg.ResourceRoot) == "" {
		result.AddError("resource_root", "must not be empty")
	}
	if cfg.DevicePixelRatio < 0 {
		result.AddError("device_pixel_ratio", fmt.Sprintf("must be non-negative, got %g", cfg.DevicePixelRatio))
	}
	if cfg.DevicePixelRatio > 8 {
		result.AddWarning("device_pixel_ratio", fmt.Sprintf("unusually large value %g", cfg.DevicePixelRatio))
	}
	if cfg.StartURL != "" {
		if _, err := url.Parse(cfg.StartURL); err != nil {
			result.AddError("start_url", err.Error())
		}
	}

	v.validateWindow(&cfg.Window, result)
	v.validateFonts(&cfg.Fonts, result)
	v.validateRecovery(&cfg.Recovery, result)

	return result
}

func (v *Validator) validateWindow(wc *WindowConfig, result *ValidationResult) {
	if wc.Width <= 0 {
		result.AddError("width", fmt.Sprintf("must be positive, got %d", wc.Width))
	}
	if wc.Height <= 0 {
		result.AddError("height", fmt.Sprintf("must be positive, got %d", wc.Height))
	}
	if wc.Width > v.maxDimension {
		result.AddWarning("width", fmt.Sprintf("unusually large value %d", wc.Width))
	}
	if wc.Height > v.maxDimension {
		result.AddWarning("height", fmt.Sprintf("unusually large value %d", wc.Height))
	}
}

// validateFonts checks that each query has the "family size weight slope"
// shape renderers expect.
func (v *Validator) validateFonts(fc *FontConfig, result *ValidationResult) {
	fields := []struct {
		name  string
		query string
	}{
		{"default_font", fc.Default},
		{"fixed_width_font", fc.FixedWidth},
		{"window_title_font", fc.WindowTitle},
	}
	for _, f := range fields {
		if f.query == "" {
			continue
		}
		if len(strings.Fields(f.query)) < 4 {
			result.AddWarning(f.name, fmt.Sprintf("query %q should be \"family size weight slope\"", f.query))
		}
	}
}

func (v *Validator) validateRecovery(rc *RecoveryConfig, result *ValidationResult) {
	if rc.MaxConsecutiveCrashes < 0 {
		result.AddError("max_consecutive_crashes", fmt.Sprintf("must be non-negative, got %d", rc.MaxConsecutiveCrashes))
	}
	if rc.MaxConsecutiveCrashes == 0 {
		result.AddWarning("max_consecutive_crashes", "renderer crashes will not be recovered")
	}
	if rc.InitialDelay < 0 {
		result.AddError("crash_initial_delay", fmt.Sprintf("must be non-negative, got %v", rc.InitialDelay))
	}
	if rc.MaxDelay < rc.InitialDelay {
		result.AddError("crash_max_delay", fmt.Sprintf("%v is less than crash_initial_delay %v", rc.MaxDelay, rc.InitialDelay))
	}
}
