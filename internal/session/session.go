// Package session runs the per-device poll loop: raw samples in,
// calibrated and transformed command dispatches out. One Session owns one
// device handle and the transform state for that device's axes; sessions
// never share mutable state, so any number can run concurrently against
// the same read-only registry.
package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MSandovalPhD/mdof-core/internal/actuation"
	"github.com/MSandovalPhD/mdof-core/internal/calibration"
	"github.com/MSandovalPhD/mdof-core/internal/infrastructure/logging"
	"github.com/MSandovalPhD/mdof-core/internal/registry"
	"github.com/MSandovalPhD/mdof-core/internal/transform"
)

// ErrState is returned when a lifecycle method is called in the wrong
// state, e.g. Run before Open.
var ErrState = errors.New("session: invalid state")

// stepArgument fills the "%s" placeholder of rotation-style templates.
// Visualisation hosts interpret it as the per-datagram step size.
const stepArgument = "1"

// State is the session lifecycle state.
type State int

// Session lifecycle states. Transitions only move forward:
// Created -> Opened -> Running -> Stopping -> Closed.
const (
	StateCreated State = iota
	StateOpened
	StateRunning
	StateStopping
	StateClosed
)

// String returns the lowercase state name, used in logs and telemetry.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateOpened:
		return "opened"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// binding is one axis's resolved processing chain: the transform instance
// (nil means pass-through), the default output command key and the numeric
// placeholder the value lands in.
type binding struct {
	tr      transform.Transform
	output  string
	channel int
}

// Options carries the optional collaborators. All fields are nil-safe:
// a nil collaborator disables that concern.
type Options struct {
	Recorder Recorder
	Metrics  MetricsWriter
	Status   StatusPublisher
}

// Session polls one device and dispatches its samples.
type Session struct {
	dev          registry.DeviceDescriptor
	reg          *registry.Registry
	driver       Driver
	dispatcher   *actuation.Dispatcher
	log          *logging.Logger
	pollInterval time.Duration
	recorder     Recorder
	metrics      MetricsWriter
	status       StatusPublisher
	runID        string

	mu     sync.Mutex
	state  State
	handle Handle

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	eff         calibration.Effective
	bindings    map[string]binding
	lastButtons map[string]bool
}

// New creates a session in the Created state.
//
// Parameters:
//   - dev: Device descriptor from the registry
//   - reg: Validated registry (shared, read-only)
//   - driver: Device driver backend
//   - dispatcher: Actuation dispatcher for the active visualisation
//   - pollInterval: Delay between polls
//   - log: Logger (a device-scoped child is derived)
//   - opts: Optional collaborators
//
// Returns:
//   - *Session: Session ready to Open
func New(dev registry.DeviceDescriptor, reg *registry.Registry, driver Driver, dispatcher *actuation.Dispatcher, pollInterval time.Duration, log *logging.Logger, opts Options) *Session {
	runID := uuid.NewString()
	return &Session{
		dev:          dev,
		reg:          reg,
		driver:       driver,
		dispatcher:   dispatcher,
		log:          log.With("device", dev.Name, "run_id", runID),
		pollInterval: pollInterval,
		recorder:     opts.Recorder,
		metrics:      opts.Metrics,
		status:       opts.Status,
		runID:        runID,
		state:        StateCreated,
		stopCh:       make(chan struct{}),
		done:         make(chan struct{}),
		lastButtons:  make(map[string]bool),
	}
}

// RunID returns the unique identifier of this session run.
func (s *Session) RunID() string {
	return s.runID
}

// Device returns the descriptor of the device this session polls.
func (s *Session) Device() registry.DeviceDescriptor {
	return s.dev
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done returns a channel closed when the session reaches Closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Open acquires the device handle, resolves calibration and instantiates
// one transform per mapped axis. The transform instances are exclusive to
// this session; stateful transforms start cold.
//
// Returns:
//   - error: ErrState if not in Created; ErrDeviceNotFound or a wrapped
//     driver error if the device cannot be opened
func (s *Session) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCreated {
		return fmt.Errorf("%w: open in state %s", ErrState, s.state)
	}

	handle, err := s.driver.Open(s.dev.Identity)
	if err != nil {
		return fmt.Errorf("opening device %q: %w", s.dev.Name, err)
	}

	bindings, err := s.buildBindings()
	if err != nil {
		handle.Close()
		return err
	}

	s.handle = handle
	s.bindings = bindings
	s.eff = calibration.Resolve(s.reg, s.dev)
	s.state = StateOpened

	s.log.Info("device opened", "type", s.dev.Type, "library", s.dev.Library)
	s.notifyStatus(StateOpened)
	return nil
}

// buildBindings resolves every axis to its transform, output command and
// placeholder channel. Axes without a device_mappings entry pass the
// calibrated raw value through to the device's default command, landing
// in the placeholder matching the axis ordinal.
func (s *Session) buildBindings() (map[string]binding, error) {
	mappings := s.reg.AxisMappings(s.dev.Type)
	bindings := make(map[string]binding, len(s.dev.Axes))

	for ordinal, axis := range s.dev.Axes {
		m, ok := mappings[axis]
		if !ok {
			bindings[axis] = binding{output: s.dev.Command, channel: ordinal}
			continue
		}
		tr, err := transform.New(m.Transform.Name, m.Transform.Params)
		if err != nil {
			// The registry validated this spec at build time.
			return nil, fmt.Errorf("instantiating transform for %s.%s: %w", s.dev.Name, axis, err)
		}
		bindings[axis] = binding{tr: tr, output: m.Output, channel: m.Channel}
	}
	return bindings, nil
}

// Run executes the poll loop until the context is cancelled, Stop is
// called or the device is removed. It always drives the session through
// Stopping to Closed before returning, releasing the device handle.
//
// Returns:
//   - error: ErrState if the session was not Opened; nil otherwise
//     (poll and dispatch failures are logged, not returned)
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateOpened {
		s.mu.Unlock()
		return fmt.Errorf("%w: run in state %s", ErrState, s.state)
	}
	s.state = StateRunning
	s.mu.Unlock()

	s.log.Info("session running", "poll_interval", s.pollInterval)
	s.notifyStatus(StateRunning)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			s.log.Info("context cancelled, stopping")
			break loop
		case <-s.stopCh:
			s.log.Info("stop requested")
			break loop
		case <-ticker.C:
			if removed := s.iterate(ctx); removed {
				break loop
			}
		}
	}

	s.shutdown()
	return nil
}

// iterate performs one poll-transform-dispatch cycle. It reports true
// when the device signalled removal and the loop must exit.
func (s *Session) iterate(ctx context.Context) bool {
	sample, err := s.handle.Poll(ctx)
	if err != nil {
		if errors.Is(err, ErrDeviceRemoved) {
			s.log.Warn("device removed")
			return true
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		// Transient poll failure: retry on the next cycle.
		s.log.Warn("poll failed", "error", err)
		return false
	}

	s.dispatchAxes(ctx, sample)
	s.dispatchButtons(ctx, sample)
	return false
}

// pendingDispatch accumulates the axis values destined for one command
// key within a single sample.
type pendingDispatch struct {
	values   []float64
	controls []string
	raws     []float64
	outputs  []float64
}

// dispatchAxes calibrates and transforms each sampled axis, groups the
// results by routed command key and sends one datagram per key. Axes of
// one sample that share a command land in the same datagram.
func (s *Session) dispatchAxes(ctx context.Context, sample Sample) {
	pending := make(map[string]*pendingDispatch)
	var order []string

	for _, axis := range s.dev.Axes {
		raw, ok := sample.Axes[axis]
		if !ok {
			continue
		}

		calibrated := raw
		if math.Abs(raw) < s.eff.Deadzone {
			calibrated = 0
		} else {
			calibrated = raw * s.eff.ScaleFactor
		}

		b := s.bindings[axis]
		value := calibrated
		if b.tr != nil {
			value = b.tr.Apply(calibrated, sample.At)
		}

		if s.metrics != nil {
			s.metrics.WriteAxisSample(s.dev.Name, axis, raw, value, sample.At)
		}

		key := s.eff.RouteAxis(axis, b.output)
		tmpl, err := s.reg.CommandTemplate(key)
		if err != nil {
			s.log.Warn("axis routed to unknown command", "axis", axis, "command", key)
			continue
		}
		if b.channel >= tmpl.FloatArity() {
			s.log.Debug("axis channel beyond template arity, skipped", "axis", axis, "command", key, "channel", b.channel)
			continue
		}

		p, ok := pending[key]
		if !ok {
			p = &pendingDispatch{values: make([]float64, tmpl.FloatArity())}
			pending[key] = p
			order = append(order, key)
		}
		p.values[b.channel] = value
		p.controls = append(p.controls, axis)
		p.raws = append(p.raws, raw)
		p.outputs = append(p.outputs, value)
	}

	for _, key := range order {
		p := pending[key]
		tmpl, _ := s.reg.CommandTemplate(key)

		args := make([]string, tmpl.StringArity())
		for i := range args {
			args[i] = stepArgument
		}

		payload, err := s.dispatcher.DispatchValues(tmpl, p.values, args)
		if err != nil {
			// Best-effort transport: keep polling.
			s.log.Warn("dispatch failed", "command", key, "error", err)
			continue
		}
		s.record(ctx, key, payload, sample.At, p)
	}
}

// dispatchButtons sends a command on each press edge (released on the
// previous sample, pressed now). Releases and held buttons are silent.
func (s *Session) dispatchButtons(ctx context.Context, sample Sample) {
	for _, button := range s.dev.Buttons {
		pressed, ok := sample.Buttons[button]
		if !ok {
			continue
		}
		wasPressed := s.lastButtons[button]
		s.lastButtons[button] = pressed
		if !pressed || wasPressed {
			continue
		}

		key := s.eff.RouteButton(button, s.dev.Command)
		tmpl, err := s.reg.CommandTemplate(key)
		if err != nil {
			s.log.Warn("button routed to unknown command", "button", button, "command", key)
			continue
		}

		var payload string
		if tmpl.IsLiteral() {
			payload, err = s.dispatcher.DispatchLiteral(tmpl)
		} else {
			// Placeholder commands receive the press as 1.0 on channel 0.
			values := make([]float64, tmpl.FloatArity())
			values[0] = 1.0
			args := make([]string, tmpl.StringArity())
			for i := range args {
				args[i] = stepArgument
			}
			payload, err = s.dispatcher.DispatchValues(tmpl, values, args)
		}
		if err != nil {
			s.log.Warn("button dispatch failed", "button", button, "command", key, "error", err)
			continue
		}

		s.record(ctx, key, payload, sample.At, &pendingDispatch{
			controls: []string{button},
			raws:     []float64{1},
			outputs:  []float64{1},
		})
	}
}

// record writes one datalog row per contributing control.
func (s *Session) record(ctx context.Context, key, payload string, at time.Time, p *pendingDispatch) {
	if s.recorder == nil {
		return
	}
	for i, control := range p.controls {
		rec := DispatchRecord{
			RunID:      s.runID,
			Device:     s.dev.Name,
			Control:    control,
			Raw:        p.raws[i],
			Value:      p.outputs[i],
			CommandKey: key,
			Payload:    payload,
			At:         at,
		}
		if err := s.recorder.RecordDispatch(ctx, rec); err != nil {
			s.log.Warn("datalog write failed", "error", err)
			return
		}
	}
}

// shutdown drives Stopping -> Closed: releases the handle, discards the
// transform state and closes the done channel.
func (s *Session) shutdown() {
	s.mu.Lock()
	s.state = StateStopping
	s.mu.Unlock()
	s.notifyStatus(StateStopping)

	if err := s.handle.Close(); err != nil {
		s.log.Warn("closing device handle", "error", err)
	}

	s.mu.Lock()
	s.state = StateClosed
	s.bindings = nil
	s.mu.Unlock()
	s.notifyStatus(StateClosed)

	s.log.Info("session closed")
	close(s.done)
}

// Stop requests a cooperative stop. The poll loop observes it between
// iterations; the current iteration completes before shutdown. Safe to
// call multiple times and from any goroutine.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

// notifyStatus publishes a state change through the optional publisher.
func (s *Session) notifyStatus(state State) {
	if s.status == nil {
		return
	}
	if err := s.status.PublishStatus(s.dev.Name, state.String()); err != nil {
		s.log.Debug("status publish failed", "error", err)
	}
}
