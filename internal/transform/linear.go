package transform

import (
	"fmt"
	"math"
	"time"
)

// direct applies a deadzone then a constant scale.
type direct struct {
	deadzone float64
	scale    float64
}

func newDirect(p Params) (Transform, error) {
	deadzone, err := require(p, "linear.direct", "deadzone")
	if err != nil {
		return nil, err
	}
	scale, err := require(p, "linear.direct", "scale")
	if err != nil {
		return nil, err
	}
	if deadzone < 0 {
		return nil, fmt.Errorf("%w: linear.direct deadzone must be >= 0, got %g", ErrInvalidParam, deadzone)
	}
	return direct{deadzone: deadzone, scale: scale}, nil
}

func (t direct) Apply(x float64, _ time.Time) float64 {
	if math.Abs(x) < t.deadzone {
		return 0
	}
	return x * t.scale
}

// scaled remaps a value linearly from an input range onto an output range.
// Inputs outside the input range clamp before remapping, so the result is
// always within the output range.
type scaled struct {
	inMin, inMax   float64
	outMin, outMax float64
}

func newScaled(p Params) (Transform, error) {
	inMin, err := require(p, "linear.scaled", "input_min")
	if err != nil {
		return nil, err
	}
	inMax, err := require(p, "linear.scaled", "input_max")
	if err != nil {
		return nil, err
	}
	outMin, err := require(p, "linear.scaled", "output_min")
	if err != nil {
		return nil, err
	}
	outMax, err := require(p, "linear.scaled", "output_max")
	if err != nil {
		return nil, err
	}
	if inMin >= inMax {
		return nil, fmt.Errorf("%w: linear.scaled input_min (%g) must be < input_max (%g)", ErrInvalidParam, inMin, inMax)
	}
	return scaled{inMin: inMin, inMax: inMax, outMin: outMin, outMax: outMax}, nil
}

func (t scaled) Apply(x float64, _ time.Time) float64 {
	if x < t.inMin {
		x = t.inMin
	}
	if x > t.inMax {
		x = t.inMax
	}
	ratio := (x - t.inMin) / (t.inMax - t.inMin)
	return t.outMin + ratio*(t.outMax-t.outMin)
}

// normalised applies a deadzone then divides by the declared maximum
// magnitude, clamping the result to [-1, 1].
type normalised struct {
	deadzone float64
	maxMag   float64
}

func newNormalised(p Params) (Transform, error) {
	deadzone, err := require(p, "linear.normalised", "deadzone")
	if err != nil {
		return nil, err
	}
	maxMag, err := require(p, "linear.normalised", "max_magnitude")
	if err != nil {
		return nil, err
	}
	if deadzone < 0 {
		return nil, fmt.Errorf("%w: linear.normalised deadzone must be >= 0, got %g", ErrInvalidParam, deadzone)
	}
	if maxMag <= 0 {
		return nil, fmt.Errorf("%w: linear.normalised max_magnitude must be > 0, got %g", ErrInvalidParam, maxMag)
	}
	return normalised{deadzone: deadzone, maxMag: maxMag}, nil
}

func (t normalised) Apply(x float64, _ time.Time) float64 {
	if math.Abs(x) < t.deadzone {
		return 0
	}
	v := x / t.maxMag
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
