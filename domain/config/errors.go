package config

import "errors"

// Sentinel errors returned while loading configuration and building from it.
var (
	ErrConfigNotFound    = errors.New("configuration file not found")
	ErrInvalidFormat     = errors.New("invalid configuration format")
	ErrUnsupportedFormat = errors.New("unsupported configuration format")
	ErrValidationFailed  = errors.New("configuration validation failed")
	// ErrMissingEnvVar is returned for ${VAR:?msg} and, in strict mode, any unset variable.
	ErrMissingEnvVar = errors.New("required environment variable not set")
	ErrBuildFailed   = errors.New("failed to build agent from configuration")
)
