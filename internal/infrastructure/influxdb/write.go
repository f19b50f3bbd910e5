package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementDeviceMetrics is the measurement device state points are written to.
const MeasurementDeviceMetrics = "device_metrics"

// StateFields returns the subset of state that InfluxDB can store as
// fields: numbers and booleans. Integers are widened to float64 so a
// field keeps one type across writes.
func StateFields(state map[string]any) map[string]any {
	fields := make(map[string]any, len(state))
	for k, v := range state {
		switch val := v.(type) {
		case bool:
			fields[k] = val
		case int:
			fields[k] = float64(val)
		case int64:
			fields[k] = float64(val)
		case float32:
			fields[k] = float64(val)
		case float64:
			fields[k] = val
		}
	}
	return fields
}

// NewDeviceStatePoint builds the device_metrics point for one state
// snapshot.
//
// Parameters:
//   - ip: Device address, stored as the device_ip tag
//   - kind: light, thermostat or camera, stored as the kind tag
//   - subnet: Catalog subnet name; omitted from the tags when empty
//   - state: Device state; only StateFields survive
//   - at: Point timestamp, normally the time of the change
//
// Returns:
//   - *write.Point: The point, or nil when state has no storable fields
func NewDeviceStatePoint(ip, kind, subnet string, state map[string]any, at time.Time) *write.Point {
	fields := StateFields(state)
	if len(fields) == 0 {
		return nil
	}
	tags := map[string]string{
		"device_ip": ip,
		"kind":      kind,
	}
	if subnet != "" {
		tags["subnet"] = subnet
	}
	return write.NewPoint(MeasurementDeviceMetrics, tags, fields, at)
}

// WriteDeviceState queues one device state point without blocking. It is a
// no-op on a nil or closed client and for states with nothing to store, so
// the telemetry publisher can call it unconditionally. Arguments are those
// of NewDeviceStatePoint.
func (c *Client) WriteDeviceState(ip, kind, subnet string, state map[string]any, at time.Time) {
	if !c.IsConnected() {
		return
	}
	if point := NewDeviceStatePoint(ip, kind, subnet, state, at); point != nil {
		c.writeAPI.WritePoint(point)
		c.queued.Add(1)
	}
}
