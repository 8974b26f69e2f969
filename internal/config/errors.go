package config

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	// ErrConfigurationMissing means a setting the selected backend needs was not provided
	ErrConfigurationMissing = errors.New("configuration missing")
	// ErrInvalidConfig means a setting was provided but cannot be used
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig means the config file or environment could not be read
	ErrLoadConfig = errors.New("load config failed")
)
