package synth

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/MSandovalPhD/mdof-core/internal/registry"
	"github.com/MSandovalPhD/mdof-core/internal/session"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	doc := &registry.Document{
		Ontology: registry.OntologyDoc{
			DeviceTypes: map[string]registry.DeviceTypeDoc{
				"gamepad": {Axes: []string{"x", "y", "z"}, Buttons: []string{"trigger"}},
			},
			Visualisations: registry.VisOntologyDoc{Types: []string{"3d"}},
		},
		Visualisation: registry.VisualisationDoc{
			Selected: "drishti",
			Targets: map[string]registry.TargetDoc{
				"drishti": {Type: "3d", UDPHost: "127.0.0.1", UDPPort: 7755, Command: "rotation"},
			},
		},
		Actuation: registry.ActuationDoc{
			Commands: map[string]string{"rotation": "addrotation %.3f %.3f %.3f %s"},
		},
		InputDevices: map[string]registry.DeviceDoc{
			"SpaceMouse": {
				VID: "256f", PID: "c652", Type: "gamepad", Library: "synth",
				Axes: []string{"x", "y", "z"}, Buttons: []string{"trigger"},
				Command: "rotation",
			},
		},
	}

	r, err := registry.Build(doc, "")
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	return r
}

func TestOpenUnknownIdentity(t *testing.T) {
	d := New(testRegistry(t))

	_, err := d.Open(registry.Identity{VID: "dead", PID: "beef"})
	if !errors.Is(err, session.ErrDeviceNotFound) {
		t.Errorf("expected session.ErrDeviceNotFound, got %v", err)
	}
}

func TestWaveformDeterministic(t *testing.T) {
	d := New(testRegistry(t))
	id := registry.Identity{VID: "256f", PID: "c652"}

	a, err := d.Open(id)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	b, err := d.Open(id)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	for i := 0; i < 50; i++ {
		sa, err := a.Poll(context.Background())
		if err != nil {
			t.Fatalf("poll %d returned error: %v", i, err)
		}
		sb, err := b.Poll(context.Background())
		if err != nil {
			t.Fatalf("poll %d returned error: %v", i, err)
		}
		for axis, va := range sa.Axes {
			if vb := sb.Axes[axis]; va != vb {
				t.Fatalf("poll %d axis %s: %g != %g", i, axis, va, vb)
			}
			if math.Abs(va) > 1 {
				t.Fatalf("poll %d axis %s out of range: %g", i, axis, va)
			}
		}
	}
}

func TestAxesPhaseShifted(t *testing.T) {
	d := New(testRegistry(t))
	h, err := d.Open(registry.Identity{VID: "256f", PID: "c652"})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	// Tick 0: sin(0)=0 on x, sin(pi/2)=1 on y, sin(pi)=0 on z.
	sample, err := h.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}
	if math.Abs(sample.Axes["x"]) > 1e-9 {
		t.Errorf("x at tick 0 = %g, expected 0", sample.Axes["x"])
	}
	if math.Abs(sample.Axes["y"]-1) > 1e-9 {
		t.Errorf("y at tick 0 = %g, expected 1", sample.Axes["y"])
	}
}

func TestClosedHandleSignalsRemoval(t *testing.T) {
	d := New(testRegistry(t))
	h, err := d.Open(registry.Identity{VID: "256f", PID: "c652"})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	if err := h.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if _, err := h.Poll(context.Background()); !errors.Is(err, session.ErrDeviceRemoved) {
		t.Errorf("expected session.ErrDeviceRemoved, got %v", err)
	}
}
