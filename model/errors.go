package model

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrConfiguration marks every registration failure.
var ErrConfiguration = errors.New("model configuration error")

// ConfigurationError is returned when a model definition cannot be turned
// into a descriptor. It is fatal and raised before any query is planned.
type ConfigurationError struct {
	Model  string
	Reason string
	// Cause is the underlying failure, such as a schema parse error.
	Cause error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("model %s: %s", e.Model, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Cause }

// Is reports ErrConfiguration identity so callers can use errors.Is.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func configErrorf(model, format string, args ...any) error {
	return errors.WithStack(&ConfigurationError{Model: model, Reason: fmt.Sprintf(format, args...)})
}
