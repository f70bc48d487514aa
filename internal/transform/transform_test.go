package transform

import (
	"errors"
	"math"
	"testing"
	"time"
)

func mustNew(t *testing.T, name string, params Params) Transform {
	t.Helper()
	tr, err := New(name, params)
	if err != nil {
		t.Fatalf("New(%q) returned error: %v", name, err)
	}
	return tr
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNewUnknownName(t *testing.T) {
	_, err := New("linear.bogus", Params{})
	if !errors.Is(err, ErrUnknown) {
		t.Errorf("expected ErrUnknown, got %v", err)
	}
}

func TestNewUnrecognisedParam(t *testing.T) {
	_, err := New("linear.direct", Params{"deadzone": 0.1, "scale": 1.0, "gamma": 2.0})
	if !errors.Is(err, ErrInvalidParam) {
		t.Errorf("expected ErrInvalidParam for unrecognised key, got %v", err)
	}
}

func TestNewMissingParam(t *testing.T) {
	_, err := New("linear.direct", Params{"deadzone": 0.1})
	if !errors.Is(err, ErrInvalidParam) {
		t.Errorf("expected ErrInvalidParam for missing scale, got %v", err)
	}
}

func TestParamNames(t *testing.T) {
	names, err := ParamNames("non_linear.exponential")
	if err != nil {
		t.Fatalf("ParamNames returned error: %v", err)
	}
	want := []string{"base", "factor", "deadzone"}
	if len(names) != len(want) {
		t.Fatalf("expected %d parameter names, got %d", len(want), len(names))
	}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("parameter %d: expected %q, got %q", i, n, names[i])
		}
	}

	if _, err := ParamNames("nope"); !errors.Is(err, ErrUnknown) {
		t.Errorf("expected ErrUnknown for unknown name, got %v", err)
	}
}

func TestDirect(t *testing.T) {
	tests := []struct {
		name     string
		deadzone float64
		scale    float64
		input    float64
		expected float64
	}{
		{"inside deadzone", 0.1, 2.0, 0.05, 0},
		{"inside deadzone negative", 0.1, 2.0, -0.05, 0},
		{"at deadzone boundary", 0.1, 2.0, 0.1, 0.2},
		{"above deadzone", 0.1, 2.0, 0.5, 1.0},
		{"negative preserved", 0.1, 2.0, -0.5, -1.0},
		{"zero deadzone passes zero", 0, 3.0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := mustNew(t, "linear.direct", Params{"deadzone": tt.deadzone, "scale": tt.scale})
			got := tr.Apply(tt.input, time.Time{})
			if !approxEqual(got, tt.expected) {
				t.Errorf("Apply(%g) = %g, expected %g", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDirectNegativeDeadzone(t *testing.T) {
	_, err := New("linear.direct", Params{"deadzone": -0.1, "scale": 1.0})
	if !errors.Is(err, ErrInvalidParam) {
		t.Errorf("expected ErrInvalidParam, got %v", err)
	}
}

func TestScaled(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"midpoint", 0, 0.5},
		{"lower bound", -1, 0},
		{"upper bound", 1, 1},
		{"below range clamps", -5, 0},
		{"above range clamps", 5, 1},
		{"quarter", -0.5, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := mustNew(t, "linear.scaled", Params{
				"input_min": -1, "input_max": 1,
				"output_min": 0, "output_max": 1,
			})
			got := tr.Apply(tt.input, time.Time{})
			if !approxEqual(got, tt.expected) {
				t.Errorf("Apply(%g) = %g, expected %g", tt.input, got, tt.expected)
			}
		})
	}
}

func TestScaledInvertedRange(t *testing.T) {
	_, err := New("linear.scaled", Params{
		"input_min": 1, "input_max": -1,
		"output_min": 0, "output_max": 1,
	})
	if !errors.Is(err, ErrInvalidParam) {
		t.Errorf("expected ErrInvalidParam for input_min >= input_max, got %v", err)
	}
}

func TestNormalised(t *testing.T) {
	tests := []struct {
		name     string
		maxMag   float64
		input    float64
		expected float64
	}{
		{"inside deadzone", 2.0, 0.05, 0},
		{"half magnitude", 2.0, 1.0, 0.5},
		{"full magnitude", 2.0, 2.0, 1.0},
		{"clamps above one", 2.0, 5.0, 1.0},
		{"clamps below minus one", 2.0, -5.0, -1.0},
		{"negative half", 2.0, -1.0, -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := mustNew(t, "linear.normalised", Params{"deadzone": 0.1, "max_magnitude": tt.maxMag})
			got := tr.Apply(tt.input, time.Time{})
			if !approxEqual(got, tt.expected) {
				t.Errorf("Apply(%g) = %g, expected %g", tt.input, got, tt.expected)
			}
		})
	}
}

func TestExponential(t *testing.T) {
	tr := mustNew(t, "non_linear.exponential", Params{"base": 2.0, "factor": 1.0, "deadzone": 0.1})

	// (2^1 - 1) / (2 - 1) = 1
	if got := tr.Apply(1.0, time.Time{}); !approxEqual(got, 1.0) {
		t.Errorf("Apply(1.0) = %g, expected 1.0", got)
	}

	// Sign symmetry: f(-x) == -f(x).
	pos := tr.Apply(0.7, time.Time{})
	neg := tr.Apply(-0.7, time.Time{})
	if !approxEqual(pos, -neg) {
		t.Errorf("sign symmetry violated: f(0.7)=%g, f(-0.7)=%g", pos, neg)
	}

	if got := tr.Apply(0.05, time.Time{}); got != 0 {
		t.Errorf("Apply inside deadzone = %g, expected 0", got)
	}
}

func TestExponentialInvalidBase(t *testing.T) {
	for _, base := range []float64{0, -2, 1} {
		_, err := New("non_linear.exponential", Params{"base": base, "factor": 1.0, "deadzone": 0})
		if !errors.Is(err, ErrInvalidParam) {
			t.Errorf("base %g: expected ErrInvalidParam, got %v", base, err)
		}
	}
}

func TestSmoothed(t *testing.T) {
	tr := mustNew(t, "non_linear.smoothed", Params{"window_size": 3})

	// Partial window: mean over samples received so far.
	if got := tr.Apply(3, time.Time{}); !approxEqual(got, 3) {
		t.Errorf("first sample mean = %g, expected 3", got)
	}
	if got := tr.Apply(5, time.Time{}); !approxEqual(got, 4) {
		t.Errorf("two-sample mean = %g, expected 4", got)
	}
	if got := tr.Apply(7, time.Time{}); !approxEqual(got, 5) {
		t.Errorf("full-window mean = %g, expected 5", got)
	}

	// Oldest sample (3) evicted: mean of 5, 7, 9.
	if got := tr.Apply(9, time.Time{}); !approxEqual(got, 7) {
		t.Errorf("post-eviction mean = %g, expected 7", got)
	}
}

func TestSmoothedIdenticalSamples(t *testing.T) {
	tr := mustNew(t, "non_linear.smoothed", Params{"window_size": 3})

	// A full window of identical samples returns the sample unchanged.
	var got float64
	for i := 0; i < 3; i++ {
		got = tr.Apply(4.2, time.Time{})
	}
	if !approxEqual(got, 4.2) {
		t.Errorf("mean of identical samples = %g, expected 4.2", got)
	}
}

func TestSmoothedInvalidWindow(t *testing.T) {
	for _, size := range []float64{0, -1, 2.5} {
		_, err := New("non_linear.smoothed", Params{"window_size": size})
		if !errors.Is(err, ErrInvalidParam) {
			t.Errorf("window_size %g: expected ErrInvalidParam, got %v", size, err)
		}
	}
}

func TestSmoothedInstancesIndependent(t *testing.T) {
	a := mustNew(t, "non_linear.smoothed", Params{"window_size": 2})
	b := mustNew(t, "non_linear.smoothed", Params{"window_size": 2})

	a.Apply(10, time.Time{})
	if got := b.Apply(2, time.Time{}); !approxEqual(got, 2) {
		t.Errorf("instance b saw instance a's state: mean = %g, expected 2", got)
	}
}

func TestThreshold(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"below threshold", 0.4, 0},
		{"at threshold boundary", 0.5, 1},
		{"above threshold", 0.9, 1},
		{"negative magnitude counts", -0.6, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := mustNew(t, "non_linear.threshold", Params{"threshold": 0.5, "high_value": 1, "low_value": 0})
			got := tr.Apply(tt.input, time.Time{})
			if got != tt.expected {
				t.Errorf("Apply(%g) = %g, expected %g", tt.input, got, tt.expected)
			}
		})
	}
}

func TestAdaptive(t *testing.T) {
	tr := mustNew(t, "non_linear.adaptive", Params{"sensitivity": 2.0})
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// First sample has no prior: velocity 0.
	if got := tr.Apply(1.0, t0); got != 0 {
		t.Errorf("first sample = %g, expected 0", got)
	}

	// Value rises by 1 over 0.5s: velocity 2, scaled by sensitivity 2.
	if got := tr.Apply(2.0, t0.Add(500*time.Millisecond)); !approxEqual(got, 4.0) {
		t.Errorf("velocity sample = %g, expected 4.0", got)
	}

	// Timestamp not advancing yields velocity 0.
	if got := tr.Apply(3.0, t0.Add(500*time.Millisecond)); got != 0 {
		t.Errorf("zero-dt sample = %g, expected 0", got)
	}
}

func TestAdaptiveIdenticalSamples(t *testing.T) {
	// Two identical consecutive samples yield 0 regardless of sensitivity.
	for _, sensitivity := range []float64{0.5, 2.0, 100.0} {
		tr := mustNew(t, "non_linear.adaptive", Params{"sensitivity": sensitivity})
		t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

		tr.Apply(0.7, t0)
		if got := tr.Apply(0.7, t0.Add(time.Second)); got != 0 {
			t.Errorf("sensitivity %g: identical samples = %g, expected 0", sensitivity, got)
		}
	}
}

func TestKnownCoversCatalog(t *testing.T) {
	for _, name := range []string{
		"linear.direct", "linear.scaled", "linear.normalised",
		"non_linear.exponential", "non_linear.smoothed",
		"non_linear.threshold", "non_linear.adaptive",
	} {
		if !Known(name) {
			t.Errorf("Known(%q) = false, expected true", name)
		}
	}
	if Known("linear.cubic") {
		t.Error("Known(\"linear.cubic\") = true, expected false")
	}
}
