package actuation

import "testing"

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{"zero", 0, "0.0"},
		{"negative zero normalised", -0.0001, "0.0"},
		{"trailing zeros trimmed", 0.5, "0.5"},
		{"three decimals kept", 0.0394, "0.039"},
		{"negative preserved", -0.0394, "-0.039"},
		{"integer keeps one fractional digit", 1.0, "1.0"},
		{"rounds up past half", 12.3456, "12.346"},
		{"sub-precision rounds away", 0.0004, "0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.input); got != tt.expected {
				t.Errorf("FormatValue(%g) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

// Half-to-even at the third decimal. The inputs are exact binary fractions
// so the tie at x*1000 is a true .5 and the test is deterministic.
func TestFormatValueHalfEven(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{2.0625, "2.062"},   // 2062.5 ties to 2062 (even)
		{2.1875, "2.188"},   // 2187.5 ties to 2188 (even)
		{0.0625, "0.062"},   // 62.5 ties to 62
		{0.1875, "0.188"},   // 187.5 ties to 188
		{-2.0625, "-2.062"}, // symmetric for negatives
		{-2.1875, "-2.188"},
	}

	for _, tt := range tests {
		if got := FormatValue(tt.input); got != tt.expected {
			t.Errorf("FormatValue(%v) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}
