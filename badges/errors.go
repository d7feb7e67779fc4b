package badges

import (
	"errors"
	"fmt"
)

var ErrConfiguration = errors.New("invalid search badges configuration")

// ConfigurationError names the field of a Props value that failed validation.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration for field '%s': %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}
