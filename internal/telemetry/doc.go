// Package telemetry moves device state changes in and out of HomeNet.
//
// Publisher receives every applied change from the dispatcher (it
// implements dispatch.Notifier) and fans it out on a background worker to
// whichever sinks are configured: a retained MQTT state topic, an
// InfluxDB point, a command history row and a WebSocket broadcast. The
// queue between the two is bounded; when it is full the change is
// dropped and counted so a slow sink can never stall command handling.
//
// Listener is the inbound side. It subscribes to camera motion and device
// availability topics and applies what it receives to the registry,
// passing the resulting changes to the same Publisher.
package telemetry
