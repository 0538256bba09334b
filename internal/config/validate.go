// ABOUTME: Struct-tag validation of the loaded configuration
// ABOUTME: Reports fields by their TOML key names
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("toml"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
}

// Validate checks the configuration and lists every problem found
func (c *Config) Validate() error {
	err := validate.Struct(c)
	var problems []string

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, e := range verrs {
			problems = append(problems, fmt.Sprintf("%s %s", fieldPath(e), formatValidationMessage(e)))
		}
	} else if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if p := c.Compaction; p.Window >= p.Threshold {
		problems = append(problems, "compaction.window must be less than compaction.threshold")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// fieldPath turns "Config.history.path" into "history.path"
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func formatValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return "is required when " + strings.Replace(e.Param(), " ", " is ", 1)
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", e.Param())
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed %s validation", e.Tag())
	}
}
