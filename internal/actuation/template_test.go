package actuation

import (
	"errors"
	"testing"
)

func TestParseTemplate(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		floats      int
		strings     int
		literal     bool
		expectError bool
	}{
		{"rotation command", "addrotation %.3f %.3f %.3f %s", 3, 1, false, false},
		{"single axis", "mouse %.3f", 1, 0, false, false},
		{"literal brake", "BRAKE", 0, 0, true, false},
		{"literal release", "RELEASE", 0, 0, true, false},
		{"unsupported verb", "speed %d", 0, 0, false, true},
		{"unsupported precision", "speed %.2f", 0, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := ParseTemplate(tt.raw)
			if tt.expectError {
				if !errors.Is(err, ErrBadTemplate) {
					t.Fatalf("expected ErrBadTemplate, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTemplate(%q) returned error: %v", tt.raw, err)
			}
			if tmpl.FloatArity() != tt.floats {
				t.Errorf("FloatArity = %d, expected %d", tmpl.FloatArity(), tt.floats)
			}
			if tmpl.StringArity() != tt.strings {
				t.Errorf("StringArity = %d, expected %d", tmpl.StringArity(), tt.strings)
			}
			if tmpl.IsLiteral() != tt.literal {
				t.Errorf("IsLiteral = %v, expected %v", tmpl.IsLiteral(), tt.literal)
			}
		})
	}
}

func TestRender(t *testing.T) {
	tmpl, err := ParseTemplate("addrotation %.3f %.3f %.3f %s")
	if err != nil {
		t.Fatalf("ParseTemplate returned error: %v", err)
	}

	got, err := tmpl.Render([]float64{0.0, 0.0394, 0.0}, []string{"1"})
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if want := "addrotation 0.0 0.039 0.0 1"; got != want {
		t.Errorf("Render = %q, expected %q", got, want)
	}
}

func TestRenderArityMismatch(t *testing.T) {
	tmpl, err := ParseTemplate("addrotation %.3f %.3f %.3f %s")
	if err != nil {
		t.Fatalf("ParseTemplate returned error: %v", err)
	}

	if _, err := tmpl.Render([]float64{0.0, 0.1}, []string{"1"}); !errors.Is(err, ErrArity) {
		t.Errorf("short values: expected ErrArity, got %v", err)
	}
	if _, err := tmpl.Render([]float64{0.0, 0.1, 0.2}, nil); !errors.Is(err, ErrArity) {
		t.Errorf("missing string arg: expected ErrArity, got %v", err)
	}
}

func TestRenderLiteralPassthrough(t *testing.T) {
	tmpl, err := ParseTemplate("BRAKE")
	if err != nil {
		t.Fatalf("ParseTemplate returned error: %v", err)
	}

	got, err := tmpl.Render(nil, nil)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if got != "BRAKE" {
		t.Errorf("Render = %q, expected %q", got, "BRAKE")
	}
}
