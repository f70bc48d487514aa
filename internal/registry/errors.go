package registry

import (
	"errors"
	"fmt"
)

// Domain errors for the registry package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, registry.ErrConfig) {
//	    // configuration is unusable, do not start sessions
//	}
var (
	// ErrConfig is the sentinel wrapped by every ConfigError.
	ErrConfig = errors.New("registry: invalid configuration")

	// ErrDeviceNotFound is returned when a device identity or name has no
	// descriptor in the registry.
	ErrDeviceNotFound = errors.New("registry: device not found")

	// ErrTransformNotFound is returned when a qualified transform name has
	// no catalog entry.
	ErrTransformNotFound = errors.New("registry: transform not found")

	// ErrCommandNotFound is returned when a command key has no template.
	ErrCommandNotFound = errors.New("registry: command not found")

	// ErrVisualisationNotFound is returned when the selected visualisation
	// does not exist.
	ErrVisualisationNotFound = errors.New("registry: visualisation not found")
)

// ConfigError describes a referential-integrity violation found while
// building the registry. It names the document section and the offending
// reference so the operator can locate the bad entry.
type ConfigError struct {
	Section string // document section, e.g. "input_devices"
	Ref     string // offending reference, e.g. "Bluetooth_mouse.axes: wheel"
	Reason  string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("registry: invalid configuration: %s: %s: %s", e.Section, e.Ref, e.Reason)
}

// Unwrap makes ConfigError match ErrConfig via errors.Is.
func (e *ConfigError) Unwrap() error {
	return ErrConfig
}

// configErrorf builds a ConfigError for the given section and reference.
func configErrorf(section, ref, format string, args ...any) *ConfigError {
	return &ConfigError{
		Section: section,
		Ref:     ref,
		Reason:  fmt.Sprintf(format, args...),
	}
}
