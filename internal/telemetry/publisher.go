package telemetry

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/homenet/internal/device"
	"github.com/nerrad567/homenet/internal/infrastructure/mqtt"
)

const (
	// DefaultQueueSize is used when NewPublisher is given a non-positive size.
	DefaultQueueSize = 256

	// EventStateChanged is the WebSocket channel state changes go out on.
	EventStateChanged = "device.state_changed"

	historyWriteTimeout = 5 * time.Second
)

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// StatePublisher publishes retained messages (satisfied by *mqtt.Client).
type StatePublisher interface {
	PublishRetained(topic string, payload []byte) error
}

// PointWriter queues time-series points (satisfied by *influxdb.Client).
type PointWriter interface {
	WriteDeviceState(ip, kind, subnet string, state map[string]any, at time.Time)
}

// HistoryRecorder stores changes (satisfied by device.HistoryRepository).
type HistoryRecorder interface {
	RecordChange(ctx context.Context, c device.Change) error
}

// Broadcaster pushes events to live clients (satisfied by *api.Hub).
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// Sinks lists the destinations of a Publisher. Nil fields are skipped.
type Sinks struct {
	State     StatePublisher
	Points    PointWriter
	History   HistoryRecorder
	Broadcast Broadcaster
}

// StateMessage is the JSON body of a state topic and of a WebSocket
// state event.
type StateMessage struct {
	IP        string       `json:"ip"`
	Kind      device.Kind  `json:"kind"`
	Subnet    string       `json:"subnet"`
	Online    bool         `json:"online"`
	Status    string       `json:"status"`
	State     device.State `json:"state"`
	Command   string       `json:"command"`
	Source    string       `json:"source"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewStateMessage converts c into its published form.
func NewStateMessage(c device.Change) StateMessage {
	return StateMessage{
		IP:        c.IP,
		Kind:      c.Kind,
		Subnet:    c.Subnet,
		Online:    c.Online,
		Status:    c.Status,
		State:     c.State,
		Command:   c.Command,
		Source:    c.Source,
		Timestamp: c.At,
	}
}

// Publisher fans state changes out to its sinks on one worker goroutine.
// Changes are delivered to every sink in the order they were notified.
type Publisher struct {
	sinks  Sinks
	queue  chan device.Change
	logger Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// NewPublisher creates a Publisher and starts its worker.
func NewPublisher(sinks Sinks, queueSize int) *Publisher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	p := &Publisher{
		sinks:  sinks,
		queue:  make(chan device.Change, queueSize),
		logger: noopLogger{},
	}
	p.wg.Add(1)
	go p.run()
	return p
}

// SetLogger sets the logger for the publisher. Call before the first
// Notify.
func (p *Publisher) SetLogger(logger Logger) {
	p.logger = logger
}

// Notify queues c without blocking. When the queue is full, or the
// publisher is closed, c is dropped.
func (p *Publisher) Notify(c device.Change) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.dropped.Add(1)
		return
	}

	select {
	case p.queue <- c:
	default:
		p.dropped.Add(1)
		p.logger.Warn("telemetry queue full, dropping state change",
			"ip", c.IP, "command", c.Command, "dropped_total", p.dropped.Load())
	}
}

// Close stops accepting changes, delivers everything already queued and
// waits for the worker to exit. Safe to call more than once.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

// Delivered returns how many changes the worker has processed.
func (p *Publisher) Delivered() uint64 {
	return p.delivered.Load()
}

// Dropped returns how many changes were discarded.
func (p *Publisher) Dropped() uint64 {
	return p.dropped.Load()
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for c := range p.queue {
		p.deliver(c)
		p.delivered.Add(1)
	}
}

func (p *Publisher) deliver(c device.Change) {
	msg := NewStateMessage(c)

	if p.sinks.State != nil {
		payload, err := json.Marshal(msg)
		if err != nil {
			p.logger.Error("marshalling state message", "ip", c.IP, "error", err)
		} else if err := p.sinks.State.PublishRetained(mqtt.Topics{}.DeviceState(string(c.Kind), c.IP), payload); err != nil {
			p.logger.Warn("publishing device state", "ip", c.IP, "error", err)
		}
	}

	if p.sinks.Points != nil {
		p.sinks.Points.WriteDeviceState(c.IP, string(c.Kind), c.Subnet, c.State, c.At)
	}

	if p.sinks.History != nil {
		ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
		if err := p.sinks.History.RecordChange(ctx, c); err != nil {
			p.logger.Warn("recording command history", "ip", c.IP, "error", err)
		}
		cancel()
	}

	if p.sinks.Broadcast != nil {
		p.sinks.Broadcast.Broadcast(EventStateChanged, msg)
	}

	p.logger.Debug("state change published", "ip", c.IP, "command", c.Command, "source", c.Source)
}
