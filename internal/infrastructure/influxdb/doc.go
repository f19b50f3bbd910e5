// Package influxdb records device state as time series in InfluxDB 2.x.
//
// Every applied command produces one point in the device_metrics
// measurement, tagged with the device IP, kind, subnet and site. Only numeric and
// boolean state fields are written (brightness, target_temp, power,
// recording and so on); strings such as a motion label stay in the command
// history.
//
// Writes are non-blocking and batched by the client library according to
// influxdb.batch_size and influxdb.flush_interval. Asynchronous write
// failures are delivered through SetOnError.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB, cfg.Site.ID)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry runs without a time-series sink
//	}
//	defer client.Close()
//
//	client.WriteDeviceState("192.168.1.10", "light", "lighting", state, time.Now())
package influxdb
