package session

import (
	"context"
	"time"
)

// DispatchRecord is one dispatched command, as written to the datalog.
type DispatchRecord struct {
	RunID      string
	Device     string
	Control    string // axis or button name that triggered the dispatch
	Raw        float64
	Value      float64
	CommandKey string
	Payload    string
	At         time.Time
}

// Recorder persists dispatch history. Implemented by the datalog store;
// a nil Recorder disables recording.
type Recorder interface {
	RecordDispatch(ctx context.Context, rec DispatchRecord) error
}

// MetricsWriter receives per-axis sample metrics. Implemented by the
// InfluxDB writer; a nil MetricsWriter disables metrics. Writes are
// fire-and-forget.
type MetricsWriter interface {
	WriteAxisSample(device, axis string, raw, value float64, at time.Time)
}

// StatusPublisher announces session state changes. Implemented by the
// MQTT telemetry client; a nil StatusPublisher disables telemetry.
type StatusPublisher interface {
	PublishStatus(device, state string) error
}
