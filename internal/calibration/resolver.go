// Package calibration merges the default calibration profile with
// per-device overrides and routes polled controls to actuation command
// keys.
package calibration

import (
	"github.com/MSandovalPhD/mdof-core/internal/registry"
)

// Effective is a fully resolved calibration for one device: every field
// has a concrete value. Built once when a session opens; read-only after.
type Effective struct {
	Deadzone    float64
	ScaleFactor float64

	// axisCommands and buttonCommands route individual controls to a
	// command key other than the device default.
	axisCommands   map[string]string
	buttonCommands map[string]string
}

// Resolve merges the registry's default profile with the device's own
// profile. The merge is field-by-field: a device profile overrides only
// the fields it declares, everything else inherits the default.
//
// Parameters:
//   - reg: Validated registry
//   - dev: Device the calibration applies to
//
// Returns:
//   - Effective: Concrete calibration for the device
func Resolve(reg *registry.Registry, dev registry.DeviceDescriptor) Effective {
	def := reg.DefaultCalibration()

	// Build returns a default profile with both scalar fields populated.
	eff := Effective{
		Deadzone:       *def.Deadzone,
		ScaleFactor:    *def.ScaleFactor,
		axisCommands:   def.AxisMapping,
		buttonCommands: def.ButtonMapping,
	}

	profile, ok := reg.DeviceCalibration(dev.Name)
	if !ok {
		return eff
	}

	if profile.Deadzone != nil {
		eff.Deadzone = *profile.Deadzone
	}
	if profile.ScaleFactor != nil {
		eff.ScaleFactor = *profile.ScaleFactor
	}
	if profile.AxisMapping != nil {
		eff.axisCommands = profile.AxisMapping
	}
	if profile.ButtonMapping != nil {
		eff.buttonCommands = profile.ButtonMapping
	}
	return eff
}

// RouteAxis returns the command key an axis value dispatches under: the
// profile's mapping entry if one exists, otherwise the fallback (the
// device's default command key).
func (e Effective) RouteAxis(axis, fallback string) string {
	if key, ok := e.axisCommands[axis]; ok {
		return key
	}
	return fallback
}

// RouteButton returns the command key a button press dispatches under,
// falling back to the device default when no mapping entry exists.
func (e Effective) RouteButton(button, fallback string) string {
	if key, ok := e.buttonCommands[button]; ok {
		return key
	}
	return fallback
}

// HasButtonCommand reports whether the button has an explicit mapping.
// Buttons without a mapping and without placeholders in the device's
// default command produce no dispatch.
func (e Effective) HasButtonCommand(button string) bool {
	_, ok := e.buttonCommands[button]
	return ok
}
