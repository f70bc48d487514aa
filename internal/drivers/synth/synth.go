// Package synth provides a synthetic input driver: deterministic
// waveforms instead of hardware. It backs demos, soak tests and any
// environment without HID access. Hardware drivers implement the same
// session.Driver contract.
package synth

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/MSandovalPhD/mdof-core/internal/registry"
	"github.com/MSandovalPhD/mdof-core/internal/session"
)

// Waveform shape constants. One full axis cycle spans period polls;
// buttons press for pressTicks polls every buttonPeriod polls.
const (
	period       = 200
	amplitude    = 1.0
	buttonPeriod = 100
	pressTicks   = 3
)

// Driver opens synthetic handles for any device the registry knows.
type Driver struct {
	reg *registry.Registry
}

// New creates a synthetic driver over the registry's device table.
func New(reg *registry.Registry) *Driver {
	return &Driver{reg: reg}
}

// Open returns a waveform handle for the identity.
//
// Returns:
//   - session.Handle: Synthetic handle
//   - error: session.ErrDeviceNotFound if the identity is not configured
func (d *Driver) Open(id registry.Identity) (session.Handle, error) {
	dev, err := d.reg.DeviceByIdentity(id)
	if err != nil {
		return nil, session.ErrDeviceNotFound
	}
	return &handle{dev: dev}, nil
}

// handle generates one sine wave per axis, phase-shifted so axes are
// distinguishable, and periodic button presses. State advances per poll,
// so output is deterministic regardless of poll cadence.
type handle struct {
	mu     sync.Mutex
	dev    registry.DeviceDescriptor
	tick   int
	closed bool
}

func (h *handle) Poll(_ context.Context) (session.Sample, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return session.Sample{}, session.ErrDeviceRemoved
	}

	sample := session.Sample{
		Axes:    make(map[string]float64, len(h.dev.Axes)),
		Buttons: make(map[string]bool, len(h.dev.Buttons)),
		At:      time.Now(),
	}

	for i, axis := range h.dev.Axes {
		phase := float64(i) * math.Pi / 2
		sample.Axes[axis] = amplitude * math.Sin(2*math.Pi*float64(h.tick)/period+phase)
	}
	for i, button := range h.dev.Buttons {
		offset := (h.tick + i*buttonPeriod/2) % buttonPeriod
		sample.Buttons[button] = offset < pressTicks
	}

	h.tick++
	return sample, nil
}

func (h *handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}
