package models

import (
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config represents the main configuration
type Config struct {
	Filterer FiltererConfig `mapstructure:"filterer"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Log      LogConfig      `mapstructure:"log"`
}

// FiltererConfig contains cosmetic filterer settings
type FiltererConfig struct {
	// HideNodeAttr is the hide-marker attribute. Empty disables hide/unhide.
	HideNodeAttr string        `mapstructure:"hide_node_attr" validate:"omitempty,css_attr"`
	CommitDelay  time.Duration `mapstructure:"commit_delay" validate:"gte=0"`
}

// HTTPConfig contains HTTP client settings
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
	Retries int           `mapstructure:"retries" validate:"gte=0,lte=10"`
}

// LogConfig contains logger settings
type LogConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

var reAttrName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)

// validCSSAttr reports whether the field is usable inside an attribute selector
func validCSSAttr(fl validator.FieldLevel) bool {
	return reAttrName.MatchString(fl.Field().String())
}

// Validate checks the configuration
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("css_attr", validCSSAttr); err != nil {
		return fmt.Errorf("error registering validation: %w", err)
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
