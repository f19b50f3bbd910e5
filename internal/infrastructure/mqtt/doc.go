// Package mqtt provides MQTT connectivity for HomeNet.
//
// HomeNet uses MQTT in two directions:
//   - Outbound: every applied command publishes the device's new state as a
//     retained message on homenet/state/<kind>/<ip>.
//   - Inbound: camera motion events and device availability reports are
//     received on homenet/event/camera/<ip>/motion and
//     homenet/availability/<ip>.
//
// The client reconnects automatically with backoff, restores its
// subscriptions after every reconnect and announces itself on
// homenet/system/status, with a Last Will that marks it offline if the
// process dies.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.DeviceState("light", "192.168.1.10")
//	err = client.PublishRetained(topic, payload)
package mqtt
