package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MSandovalPhD/mdof-core/internal/actuation"
	"github.com/MSandovalPhD/mdof-core/internal/infrastructure/logging"
	"github.com/MSandovalPhD/mdof-core/internal/registry"
)

// ErrNoSessions is returned by StartAll when no device could be opened.
var ErrNoSessions = errors.New("session: no sessions started")

// Orchestrator starts one session per selected device and supervises
// them. Sessions are fully independent: a failure in one never blocks or
// stops the others.
type Orchestrator struct {
	reg          *registry.Registry
	driver       Driver
	dispatcher   *actuation.Dispatcher
	pollInterval time.Duration
	log          *logging.Logger
	opts         Options

	mu       sync.Mutex
	sessions map[string]*Session
	wg       sync.WaitGroup
}

// NewOrchestrator creates an orchestrator. The dispatcher and registry
// are shared across every session; both are safe for concurrent use.
func NewOrchestrator(reg *registry.Registry, driver Driver, dispatcher *actuation.Dispatcher, pollInterval time.Duration, log *logging.Logger, opts Options) *Orchestrator {
	return &Orchestrator{
		reg:          reg,
		driver:       driver,
		dispatcher:   dispatcher,
		pollInterval: pollInterval,
		log:          log,
		opts:         opts,
		sessions:     make(map[string]*Session),
	}
}

// StartAll opens and runs one session per named device, each on its own
// goroutine. Devices that fail to open are logged and skipped; the rest
// start normally. An empty names slice selects every configured device.
//
// Parameters:
//   - ctx: Cancellation context shared by all sessions
//   - names: Device names to activate, or nil/empty for all
//
// Returns:
//   - error: ErrDeviceNotFound (wrapped) if a requested name is not
//     configured; ErrNoSessions if nothing could be opened
func (o *Orchestrator) StartAll(ctx context.Context, names []string) error {
	var devices []registry.DeviceDescriptor
	if len(names) == 0 {
		devices = o.reg.Devices()
	} else {
		for _, name := range names {
			dev, err := o.reg.DeviceByName(name)
			if err != nil {
				return fmt.Errorf("selecting devices: %w", err)
			}
			devices = append(devices, dev)
		}
	}

	started := 0
	for _, dev := range devices {
		if err := o.start(ctx, dev); err != nil {
			// Isolation: one device failing to open never stops the rest.
			o.log.Error("session failed to open", "device", dev.Name, "error", err)
			continue
		}
		started++
	}

	if started == 0 {
		return ErrNoSessions
	}
	o.log.Info("sessions started", "count", started)
	return nil
}

// start opens one session and launches its poll loop.
func (o *Orchestrator) start(ctx context.Context, dev registry.DeviceDescriptor) error {
	o.mu.Lock()
	if _, running := o.sessions[dev.Name]; running {
		o.mu.Unlock()
		return fmt.Errorf("%w: session for %q already running", ErrState, dev.Name)
	}
	o.mu.Unlock()

	sess := New(dev, o.reg, o.driver, o.dispatcher, o.pollInterval, o.log, o.opts)
	if err := sess.Open(); err != nil {
		return err
	}

	o.mu.Lock()
	o.sessions[dev.Name] = sess
	o.mu.Unlock()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if err := sess.Run(ctx); err != nil {
			o.log.Error("session run failed", "device", dev.Name, "error", err)
		}
		o.mu.Lock()
		delete(o.sessions, dev.Name)
		o.mu.Unlock()
	}()
	return nil
}

// Stop requests a cooperative stop of one device's session and waits for
// it to close. Other sessions are unaffected.
//
// Returns:
//   - error: ErrDeviceNotFound if no session is running for the name
func (o *Orchestrator) Stop(name string) error {
	o.mu.Lock()
	sess, ok := o.sessions[name]
	o.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: no running session for %q", ErrDeviceNotFound, name)
	}
	sess.Stop()
	<-sess.Done()
	return nil
}

// StopAll requests a stop on every running session and waits until all
// poll loops have exited and released their device handles.
func (o *Orchestrator) StopAll() {
	o.mu.Lock()
	for _, sess := range o.sessions {
		sess.Stop()
	}
	o.mu.Unlock()
	o.wg.Wait()
}

// Running returns the names of devices with a live session.
func (o *Orchestrator) Running() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	names := make([]string, 0, len(o.sessions))
	for name := range o.sessions {
		names = append(names, name)
	}
	return names
}
