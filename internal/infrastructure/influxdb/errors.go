package influxdb

import "errors"

// Domain-specific errors for InfluxDB operations.
var (
	// ErrDisabled is returned by Connect when metrics are disabled.
	ErrDisabled = errors.New("influxdb: metrics disabled")

	// ErrConnectionFailed is returned when the server cannot be reached
	// or reports unhealthy.
	ErrConnectionFailed = errors.New("influxdb: connection failed")
)
