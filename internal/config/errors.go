package config

import "errors"

var (
	// ErrUnknownKey indicates a key outside the supported set.
	ErrUnknownKey = errors.New("unknown config key")

	// ErrInvalidValue indicates a value that fails validation for its key.
	ErrInvalidValue = errors.New("invalid config value")
)
