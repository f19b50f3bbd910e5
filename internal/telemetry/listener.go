package telemetry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nerrad567/homenet/internal/device"
	"github.com/nerrad567/homenet/internal/dispatch"
	"github.com/nerrad567/homenet/internal/infrastructure/mqtt"
)

// Availability payloads.
const (
	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

// ErrUnexpectedTopic is returned by the handlers for a topic they do not
// own.
var ErrUnexpectedTopic = errors.New("telemetry: unexpected topic")

// Subscriber registers MQTT handlers (satisfied by *mqtt.Client).
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Listener applies inbound MQTT events to the registry.
type Listener struct {
	registry *device.Registry
	notifier dispatch.Notifier
	logger   Logger
}

// NewListener creates a Listener. notifier may be nil.
func NewListener(reg *device.Registry, notifier dispatch.Notifier) *Listener {
	return &Listener{
		registry: reg,
		notifier: notifier,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the listener.
func (l *Listener) SetLogger(logger Logger) {
	l.logger = logger
}

// Subscribe registers the motion and availability handlers on sub.
func (l *Listener) Subscribe(sub Subscriber, qos byte) error {
	topics := mqtt.Topics{}
	if err := sub.Subscribe(topics.AllCameraMotion(), qos, l.HandleMotion); err != nil {
		return fmt.Errorf("subscribing to motion events: %w", err)
	}
	if err := sub.Subscribe(topics.AllAvailability(), qos, l.HandleAvailability); err != nil {
		return fmt.Errorf("subscribing to availability: %w", err)
	}
	l.logger.Info("listening for device events",
		"motion", topics.AllCameraMotion(), "availability", topics.AllAvailability())
	return nil
}

// HandleMotion records a motion event. The payload is the label, taken
// verbatim apart from surrounding whitespace.
func (l *Listener) HandleMotion(topic string, payload []byte) error {
	ip, ok := mqtt.ParseCameraMotion(topic)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnexpectedTopic, topic)
	}
	label := strings.TrimSpace(string(payload))

	change, err := l.registry.Apply(ip, device.PrefixMotion+label)
	if err != nil {
		return fmt.Errorf("motion event for %s: %w", ip, err)
	}
	l.publish(change)
	return nil
}

// HandleAvailability sets the online flag from an "online" or "offline"
// payload (case-insensitive).
func (l *Listener) HandleAvailability(topic string, payload []byte) error {
	ip, ok := mqtt.ParseAvailability(topic)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnexpectedTopic, topic)
	}

	var online bool
	switch strings.ToLower(strings.TrimSpace(string(payload))) {
	case PayloadOnline:
		online = true
	case PayloadOffline:
		online = false
	default:
		return fmt.Errorf("availability for %s: unknown payload %q", ip, payload)
	}

	change, err := l.registry.SetOnline(ip, online)
	if err != nil {
		return fmt.Errorf("availability for %s: %w", ip, err)
	}
	l.publish(change)
	return nil
}

func (l *Listener) publish(c device.Change) {
	c.Source = device.SourceMQTT
	if l.notifier != nil {
		l.notifier.Notify(c)
	}
}
