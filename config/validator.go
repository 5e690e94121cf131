package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sarchlab/trialgrid/phasegrid"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config key, such as "output.dpi"
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "\n  %d. %s", i+1, err.Error())
	}

	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidLogFormats returns the list of valid log encodings
func ValidLogFormats() []string {
	return []string{"console", "json"}
}

// ValidOutputFormats returns the list of valid image formats. The empty
// format selects one from the output path.
func ValidOutputFormats() []string {
	return []string{"", "png", "svg"}
}

// Validate checks the Config for invalid values and returns all validation
// errors found
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors

	add := func(field string, value any, msg string) {
		errs = append(errs, ValidationError{field, value, msg})
	}

	if c.Input.Path == "" {
		add("input.path", c.Input.Path, "must not be empty")
	}

	if c.Input.Variable == "" {
		add("input.variable", c.Input.Variable, "must not be empty")
	}

	if c.Output.Path == "" {
		add("output.path", c.Output.Path, "must not be empty")
	}

	if !slices.Contains(ValidOutputFormats(), strings.ToLower(c.Output.Format)) {
		add("output.format", c.Output.Format, "must be png or svg")
	}

	if !(c.Output.DPI > 0) {
		add("output.dpi", c.Output.DPI, "must be positive")
	}

	if !(c.Output.WidthIn > 0) {
		add("output.width_in", c.Output.WidthIn, "must be positive")
	}

	if !(c.Output.HeightIn > 0) {
		add("output.height_in", c.Output.HeightIn, "must be positive")
	}

	if _, err := phasegrid.ParseColor(c.Output.Background); err != nil {
		add("output.background", c.Output.Background, "must be a hex colour")
	}

	if !slices.Contains(ValidLogLevels(), c.Log.Level) {
		add("log.level", c.Log.Level,
			"must be one of "+strings.Join(ValidLogLevels(), ", "))
	}

	if !slices.Contains(ValidLogFormats(), c.Log.Format) {
		add("log.format", c.Log.Format,
			"must be one of "+strings.Join(ValidLogFormats(), ", "))
	}

	if c.Preview.Port < 0 || c.Preview.Port > 65535 {
		add("preview.port", c.Preview.Port, "must be between 0 and 65535")
	}

	return errs
}
