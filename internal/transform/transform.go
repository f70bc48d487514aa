// Package transform implements the numeric transform catalog applied to
// device axis samples: linear and non-linear response curves keyed by
// qualified name ("family.kind").
//
// Stateless transforms are pure functions of the input value. Stateful
// transforms (non_linear.smoothed, non_linear.adaptive) carry their own
// history; one Transform instance must be created per (device, axis) and
// never shared between sessions.
package transform

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors for the transform package.
var (
	// ErrUnknown is returned when a qualified name has no catalog entry.
	ErrUnknown = errors.New("transform: unknown transform")

	// ErrInvalidParam is returned when a parameter is missing, unrecognised
	// or out of range for the transform kind.
	ErrInvalidParam = errors.New("transform: invalid parameter")
)

// Params maps parameter names to values for a transform instantiation.
type Params map[string]float64

// Transform evaluates one scalar axis value. The capture timestamp feeds
// time-dependent transforms (non_linear.adaptive); stateless transforms
// ignore it.
type Transform interface {
	Apply(x float64, at time.Time) float64
}

// constructor describes one catalog entry: the recognised parameter names
// and the factory that validates parameters and builds the transform.
type constructor struct {
	params []string
	build  func(p Params) (Transform, error)
}

// catalog holds every supported family.kind. Parameter defaults come from
// the pipeline document's transformations section, merged by the registry
// before New is called; a parameter still missing here is an error, never
// a silent zero.
var catalog = map[string]constructor{
	"linear.direct": {
		params: []string{"deadzone", "scale"},
		build:  newDirect,
	},
	"linear.scaled": {
		params: []string{"input_min", "input_max", "output_min", "output_max"},
		build:  newScaled,
	},
	"linear.normalised": {
		params: []string{"deadzone", "max_magnitude"},
		build:  newNormalised,
	},
	"non_linear.exponential": {
		params: []string{"base", "factor", "deadzone"},
		build:  newExponential,
	},
	"non_linear.smoothed": {
		params: []string{"window_size"},
		build:  newSmoothed,
	},
	"non_linear.threshold": {
		params: []string{"threshold", "high_value", "low_value"},
		build:  newThreshold,
	},
	"non_linear.adaptive": {
		params: []string{"sensitivity"},
		build:  newAdaptive,
	},
}

// Known reports whether the qualified name has a catalog entry.
func Known(name string) bool {
	_, ok := catalog[name]
	return ok
}

// Names returns all supported qualified names. Order is unspecified.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	return names
}

// ParamNames returns the recognised parameter names for a qualified name.
//
// Returns:
//   - []string: Parameter names in declaration order
//   - error: ErrUnknown if the name has no catalog entry
func ParamNames(name string) ([]string, error) {
	c, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return c.params, nil
}

// New instantiates a transform by qualified name.
//
// Every parameter in params must be recognised by the catalog entry, and
// every parameter the kind requires must be present. This front-loads all
// parameter errors to configuration time; Apply never fails.
//
// Parameters:
//   - name: Qualified name, e.g. "linear.direct"
//   - params: Fully merged parameters (catalog defaults + overrides)
//
// Returns:
//   - Transform: Ready-to-use transform (exclusive to one axis if stateful)
//   - error: ErrUnknown or ErrInvalidParam
func New(name string, params Params) (Transform, error) {
	c, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}

	for key := range params {
		if !contains(c.params, key) {
			return nil, fmt.Errorf("%w: %s does not accept %q", ErrInvalidParam, name, key)
		}
	}

	return c.build(params)
}

// require fetches a mandatory parameter.
func require(p Params, name, key string) (float64, error) {
	v, ok := p[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s requires %q", ErrInvalidParam, name, key)
	}
	return v, nil
}

func contains(names []string, key string) bool {
	for _, n := range names {
		if n == key {
			return true
		}
	}
	return false
}
