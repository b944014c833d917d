package config

import (
	"fmt"
	"strings"

	"github.com/olehluchkiv/bugtree/internal/analyzer"
	"github.com/olehluchkiv/bugtree/internal/logging"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "server.port")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, c.validateAnalysis()...)
	errs = append(errs, c.validateLogging()...)
	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateStore()...)
	return errs
}

func (c *Config) validateAnalysis() []ValidationError {
	var errs []ValidationError

	if _, err := c.Analysis.GroupByLevels(); err != nil {
		errs = append(errs, ValidationError{
			Field:   "analysis.group_by",
			Value:   c.Analysis.GroupBy,
			Message: err.Error(),
		})
	}

	if _, err := analyzer.Select(c.Analysis.Analyzers); err != nil {
		errs = append(errs, ValidationError{
			Field:   "analysis.analyzers",
			Value:   c.Analysis.Analyzers,
			Message: err.Error(),
		})
	}

	if _, err := c.Analysis.Priority(); err != nil {
		errs = append(errs, ValidationError{
			Field:   "analysis.min_priority",
			Value:   c.Analysis.MinPriority,
			Message: "must be one of: high, normal, low",
		})
	}
	return errs
}

func (c *Config) validateLogging() []ValidationError {
	var errs []ValidationError

	if c.Logging.File == "" {
		errs = append(errs, ValidationError{
			Field:   "logging.file",
			Value:   c.Logging.File,
			Message: "must not be empty",
		})
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: "must be one of: debug, info, warn, error",
		})
	}
	return errs
}

func (c *Config) validateServer() []ValidationError {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return []ValidationError{{
			Field:   "server.port",
			Value:   c.Server.Port,
			Message: "must be between 0 and 65535",
		}}
	}
	return nil
}

func (c *Config) validateStore() []ValidationError {
	if c.Store.Enabled && c.Store.Path == "" {
		return []ValidationError{{
			Field:   "store.path",
			Value:   c.Store.Path,
			Message: "must be set when the store is enabled",
		}}
	}
	return nil
}
