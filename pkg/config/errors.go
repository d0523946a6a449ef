package config

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingRequiredEnv indicates a mandatory environment variable was
	// not set.
	ErrMissingRequiredEnv = errors.New("missing required environment variable")

	// ErrInvalidValue indicates an environment variable held a value that
	// could not be parsed into its expected type.
	ErrInvalidValue = errors.New("invalid configuration value")
)

// LoadError wraps a configuration loading failure with the environment
// variable that caused it.
type LoadError struct {
	Var string // environment variable name
	Err error  // underlying error
}

// Error returns formatted error message
func (e *LoadError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Var, e.Err)
}

// Unwrap returns the underlying error
func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewLoadError creates a new load error
func NewLoadError(envVar string, err error) *LoadError {
	return &LoadError{Var: envVar, Err: err}
}
