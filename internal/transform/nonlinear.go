package transform

import (
	"fmt"
	"math"
	"time"
)

// exponential grows the output exponentially with input magnitude, keeping
// the input's sign: sign(x) * factor * (base^|x| - 1) / (base - 1).
type exponential struct {
	base     float64
	factor   float64
	deadzone float64
}

func newExponential(p Params) (Transform, error) {
	base, err := require(p, "non_linear.exponential", "base")
	if err != nil {
		return nil, err
	}
	factor, err := require(p, "non_linear.exponential", "factor")
	if err != nil {
		return nil, err
	}
	deadzone, err := require(p, "non_linear.exponential", "deadzone")
	if err != nil {
		return nil, err
	}
	if base <= 0 || base == 1 {
		return nil, fmt.Errorf("%w: non_linear.exponential base must be > 0 and != 1, got %g", ErrInvalidParam, base)
	}
	if deadzone < 0 {
		return nil, fmt.Errorf("%w: non_linear.exponential deadzone must be >= 0, got %g", ErrInvalidParam, deadzone)
	}
	return exponential{base: base, factor: factor, deadzone: deadzone}, nil
}

func (t exponential) Apply(x float64, _ time.Time) float64 {
	if math.Abs(x) < t.deadzone {
		return 0
	}
	magnitude := t.factor * (math.Pow(t.base, math.Abs(x)) - 1) / (t.base - 1)
	if x < 0 {
		return -magnitude
	}
	return magnitude
}

// smoothed returns the arithmetic mean of the last window_size samples.
// The ring buffer evicts the oldest sample once full; before that the mean
// covers only the samples received so far.
type smoothed struct {
	window []float64
	next   int
	count  int
	sum    float64
}

func newSmoothed(p Params) (Transform, error) {
	size, err := require(p, "non_linear.smoothed", "window_size")
	if err != nil {
		return nil, err
	}
	if size < 1 || size != math.Trunc(size) {
		return nil, fmt.Errorf("%w: non_linear.smoothed window_size must be a positive integer, got %g", ErrInvalidParam, size)
	}
	return &smoothed{window: make([]float64, int(size))}, nil
}

func (t *smoothed) Apply(x float64, _ time.Time) float64 {
	if t.count == len(t.window) {
		t.sum -= t.window[t.next]
	} else {
		t.count++
	}
	t.window[t.next] = x
	t.sum += x
	t.next = (t.next + 1) % len(t.window)
	return t.sum / float64(t.count)
}

// threshold quantises the input: high_value when |x| >= threshold
// (boundary inclusive), low_value otherwise.
type threshold struct {
	threshold float64
	high      float64
	low       float64
}

func newThreshold(p Params) (Transform, error) {
	th, err := require(p, "non_linear.threshold", "threshold")
	if err != nil {
		return nil, err
	}
	high, err := require(p, "non_linear.threshold", "high_value")
	if err != nil {
		return nil, err
	}
	low, err := require(p, "non_linear.threshold", "low_value")
	if err != nil {
		return nil, err
	}
	return threshold{threshold: th, high: high, low: low}, nil
}

func (t threshold) Apply(x float64, _ time.Time) float64 {
	if math.Abs(x) >= t.threshold {
		return t.high
	}
	return t.low
}

// adaptive outputs velocity * sensitivity, where velocity is the change in
// value over the change in capture time since the previous sample. The
// first sample, and any sample whose timestamp does not advance, yields 0.
type adaptive struct {
	sensitivity float64
	lastValue   float64
	lastAt      time.Time
	primed      bool
}

func newAdaptive(p Params) (Transform, error) {
	sensitivity, err := require(p, "non_linear.adaptive", "sensitivity")
	if err != nil {
		return nil, err
	}
	return &adaptive{sensitivity: sensitivity}, nil
}

func (t *adaptive) Apply(x float64, at time.Time) float64 {
	var velocity float64
	if t.primed {
		dt := at.Sub(t.lastAt).Seconds()
		if dt > 0 {
			velocity = (x - t.lastValue) / dt
		}
	}
	t.lastValue = x
	t.lastAt = at
	t.primed = true
	return velocity * t.sensitivity
}
