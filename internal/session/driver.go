package session

import (
	"context"
	"errors"
	"time"

	"github.com/MSandovalPhD/mdof-core/internal/registry"
)

// Domain errors for driver interactions.
var (
	// ErrDeviceNotFound is returned by Open when no physical device
	// matches the requested identity.
	ErrDeviceNotFound = errors.New("session: device not found")

	// ErrDeviceRemoved is returned by Poll when the device disconnects.
	// The session observes it and transitions to Stopping.
	ErrDeviceRemoved = errors.New("session: device removed")
)

// Sample is one poll result: raw axis values, button states and the
// capture timestamp feeding time-dependent transforms.
type Sample struct {
	Axes    map[string]float64
	Buttons map[string]bool
	At      time.Time
}

// Handle is an open device. Poll blocks at most until the context is
// cancelled; Close releases the underlying resource.
type Handle interface {
	Poll(ctx context.Context) (Sample, error)
	Close() error
}

// Driver opens devices by identity. Implementations live under
// internal/drivers; the synthetic driver ships with mdofd, hardware
// backends register their own.
type Driver interface {
	Open(id registry.Identity) (Handle, error)
}
