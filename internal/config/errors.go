package config

import "errors"

var (
	// ErrNoModes indicates the config file declares no modes.
	ErrNoModes = errors.New("config declares no modes")

	// ErrUnknownDefaultMode indicates default_mode names a mode that is
	// not declared.
	ErrUnknownDefaultMode = errors.New("default_mode is not a declared mode")

	// ErrBadModeOrder indicates mode_order references an undeclared mode
	// or omits a declared one.
	ErrBadModeOrder = errors.New("mode_order does not match declared modes")
)
