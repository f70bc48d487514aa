package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteAxisSample records one polled axis value before and after the
// transform chain. Implements session.MetricsWriter.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - device: Device name (e.g. "SpaceMouse")
//   - axis: Axis name (e.g. "x")
//   - raw: Value as polled from the driver
//   - value: Value after calibration and transform
//   - at: Sample capture time
func (c *Client) WriteAxisSample(device, axis string, raw, value float64, at time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"axis_samples",
		map[string]string{
			"device": device,
			"axis":   axis,
		},
		map[string]interface{}{
			"raw":   raw,
			"value": value,
		},
		at,
	)

	c.writeAPI.WritePoint(point)
}

// WriteDispatchCount records a per-device dispatch counter sample, used
// for rate dashboards.
func (c *Client) WriteDispatchCount(device string, count int, at time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"dispatches",
		map[string]string{
			"device": device,
		},
		map[string]interface{}{
			"count": count,
		},
		at,
	)

	c.writeAPI.WritePoint(point)
}
