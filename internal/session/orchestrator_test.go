package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MSandovalPhD/mdof-core/internal/actuation"
	"github.com/MSandovalPhD/mdof-core/internal/registry"
)

func newTestOrchestrator(t *testing.T, reg *registry.Registry, driver Driver, sender actuation.Sender) *Orchestrator {
	t.Helper()
	return NewOrchestrator(reg, driver, actuation.NewDispatcher(sender), time.Millisecond, testLogger(), Options{})
}

func TestOrchestratorStartAll(t *testing.T) {
	reg := testRegistry(t)
	driver := &fakeDriver{handles: map[registry.Identity]*fakeHandle{
		{VID: "256f", PID: "c652"}: {},
		{VID: "046d", PID: "b03a"}: {},
	}}
	sender := &captureSender{}

	o := newTestOrchestrator(t, reg, driver, sender)
	if err := o.StartAll(context.Background(), nil); err != nil {
		t.Fatalf("StartAll returned error: %v", err)
	}
	defer o.StopAll()

	waitFor(t, 2*time.Second, func() bool { return len(o.Running()) == 2 })
}

func TestOrchestratorSelectsNamedDevices(t *testing.T) {
	reg := testRegistry(t)
	driver := &fakeDriver{handles: map[registry.Identity]*fakeHandle{
		{VID: "046d", PID: "b03a"}: {},
	}}

	o := newTestOrchestrator(t, reg, driver, &captureSender{})
	if err := o.StartAll(context.Background(), []string{"Bluetooth_mouse"}); err != nil {
		t.Fatalf("StartAll returned error: %v", err)
	}
	defer o.StopAll()

	running := o.Running()
	if len(running) != 1 || running[0] != "Bluetooth_mouse" {
		t.Errorf("running = %v, expected [Bluetooth_mouse]", running)
	}
}

func TestOrchestratorUnknownDevice(t *testing.T) {
	reg := testRegistry(t)
	o := newTestOrchestrator(t, reg, &fakeDriver{}, &captureSender{})

	err := o.StartAll(context.Background(), []string{"Ghost_pad"})
	if !errors.Is(err, registry.ErrDeviceNotFound) {
		t.Errorf("expected registry.ErrDeviceNotFound, got %v", err)
	}
}

func TestOrchestratorOpenFailureIsolated(t *testing.T) {
	reg := testRegistry(t)
	// Only the mouse is physically present; the gamepad fails to open.
	driver := &fakeDriver{handles: map[registry.Identity]*fakeHandle{
		{VID: "046d", PID: "b03a"}: {},
	}}

	o := newTestOrchestrator(t, reg, driver, &captureSender{})
	if err := o.StartAll(context.Background(), nil); err != nil {
		t.Fatalf("StartAll returned error: %v", err)
	}
	defer o.StopAll()

	running := o.Running()
	if len(running) != 1 || running[0] != "Bluetooth_mouse" {
		t.Errorf("running = %v, expected only the mouse", running)
	}
}

func TestOrchestratorNoSessions(t *testing.T) {
	reg := testRegistry(t)
	o := newTestOrchestrator(t, reg, &fakeDriver{}, &captureSender{})

	if err := o.StartAll(context.Background(), nil); !errors.Is(err, ErrNoSessions) {
		t.Errorf("expected ErrNoSessions, got %v", err)
	}
}

func TestOrchestratorStopOne(t *testing.T) {
	reg := testRegistry(t)
	driver := &fakeDriver{handles: map[registry.Identity]*fakeHandle{
		{VID: "256f", PID: "c652"}: {},
		{VID: "046d", PID: "b03a"}: {},
	}}

	o := newTestOrchestrator(t, reg, driver, &captureSender{})
	if err := o.StartAll(context.Background(), nil); err != nil {
		t.Fatalf("StartAll returned error: %v", err)
	}
	defer o.StopAll()

	if err := o.Stop("SpaceMouse"); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		running := o.Running()
		return len(running) == 1 && running[0] == "Bluetooth_mouse"
	})

	if err := o.Stop("SpaceMouse"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("expected ErrDeviceNotFound for stopped session, got %v", err)
	}
}

func TestOrchestratorStopAllWaits(t *testing.T) {
	reg := testRegistry(t)
	gamepad := &fakeHandle{}
	mouse := &fakeHandle{}
	driver := &fakeDriver{handles: map[registry.Identity]*fakeHandle{
		{VID: "256f", PID: "c652"}: gamepad,
		{VID: "046d", PID: "b03a"}: mouse,
	}}

	o := newTestOrchestrator(t, reg, driver, &captureSender{})
	if err := o.StartAll(context.Background(), nil); err != nil {
		t.Fatalf("StartAll returned error: %v", err)
	}

	o.StopAll()

	if !gamepad.isClosed() || !mouse.isClosed() {
		t.Error("expected all device handles released after StopAll")
	}
	if len(o.Running()) != 0 {
		t.Errorf("running = %v, expected none", o.Running())
	}
}
