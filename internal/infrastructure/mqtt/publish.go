package mqtt

import "fmt"

// maxPayloadSize caps outgoing payloads at 1 MiB.
const maxPayloadSize = 1 << 20

// Publish sends payload and, for QoS above 0, waits for the broker to
// acknowledge it.
//
// Parameters:
//   - topic: Full topic, without wildcards (see Topics)
//   - payload: At most 1 MiB
//   - qos: 0, 1 or 2
//   - retained: Whether the broker keeps the message for late subscribers
//
// Returns:
//   - error: ErrInvalidTopic, ErrInvalidQoS or ErrNotConnected before sending;
//     ErrPublishFailed for oversize payloads, timeouts and broker errors
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	switch {
	case topic == "":
		return ErrInvalidTopic
	case qos > maxQoS:
		return ErrInvalidQoS
	case len(payload) > maxPayloadSize:
		return fmt.Errorf("%w: payload is %d bytes, limit %d", ErrPublishFailed, len(payload), maxPayloadSize)
	case !c.IsConnected():
		return ErrNotConnected
	}
	return wait(c.client.Publish(topic, qos, retained, payload), defaultPublishTimeout, ErrPublishFailed)
}

// PublishRetained publishes at the configured QoS with the retain flag,
// so a new subscriber to a device state topic sees the latest state.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, payload, c.QoS(), true)
}

// QoS returns the configured default QoS.
func (c *Client) QoS() byte {
	// #nosec G115 -- config.Validate limits QoS to 0..2
	return byte(c.cfg.QoS)
}
