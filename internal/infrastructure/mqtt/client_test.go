package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/homenet/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	cfg := config.Default().MQTT
	cfg.Enabled = true
	cfg.Broker.Host = "127.0.0.1"
	cfg.Broker.ClientID = "homenet-test-" + time.Now().Format("150405.000")
	return cfg
}

// connectOrSkip connects to a local broker, skipping when none listens.
func connectOrSkip(t *testing.T) *Client {
	t.Helper()
	cfg := testConfig()
	conn, err := net.DialTimeout("tcp", BrokerURL(cfg)[len("tcp://"):], 500*time.Millisecond)
	if err != nil {
		t.Skipf("no MQTT broker on %s:%d", cfg.Broker.Host, cfg.Broker.Port)
	}
	conn.Close()

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestBrokerURL(t *testing.T) {
	cfg := testConfig()
	if got := BrokerURL(cfg); got != "tcp://127.0.0.1:1883" {
		t.Errorf("BrokerURL() = %q", got)
	}
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883
	if got := BrokerURL(cfg); got != "ssl://127.0.0.1:8883" {
		t.Errorf("BrokerURL(tls) = %q", got)
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "homenet"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)

	if opts.ClientID != cfg.Broker.ClientID {
		t.Errorf("ClientID = %q, want %q", opts.ClientID, cfg.Broker.ClientID)
	}
	if opts.Username != "homenet" || opts.Password != "secret" {
		t.Errorf("credentials = %q/%q", opts.Username, opts.Password)
	}
	if !opts.AutoReconnect || !opts.CleanSession {
		t.Error("expected auto reconnect and clean session")
	}
	if opts.MaxReconnectInterval != 60*time.Second {
		t.Errorf("MaxReconnectInterval = %v", opts.MaxReconnectInterval)
	}
	if !opts.WillEnabled || !opts.WillRetained || opts.WillTopic != "homenet/system/status" {
		t.Errorf("LWT = enabled:%v retained:%v topic:%q", opts.WillEnabled, opts.WillRetained, opts.WillTopic)
	}

	var will statusPayload
	if err := json.Unmarshal(opts.WillPayload, &will); err != nil {
		t.Fatalf("will payload: %v", err)
	}
	if will.Status != "offline" || will.Reason != "unexpected_disconnect" {
		t.Errorf("will payload = %+v", will)
	}
	if opts.TLSConfig != nil {
		t.Error("TLS config set without broker.tls")
	}
}

func TestBuildClientOptionsWithoutAuth(t *testing.T) {
	opts := buildClientOptions(testConfig())
	if opts.Username != "" || opts.Password != "" {
		t.Errorf("expected no credentials, got %q/%q", opts.Username, opts.Password)
	}
}

func TestUnconnectedClientValidation(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}
	noop := func(string, []byte) error { return nil }

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"publish empty topic", c.Publish("", nil, 1, false), ErrInvalidTopic},
		{"publish bad qos", c.Publish("a", nil, 3, false), ErrInvalidQoS},
		{"publish oversized", c.Publish("a", make([]byte, maxPayloadSize+1), 1, false), ErrPublishFailed},
		{"publish disconnected", c.Publish("a", []byte("x"), 1, false), ErrNotConnected},
		{"subscribe empty topic", c.Subscribe("", 1, noop), ErrInvalidTopic},
		{"subscribe bad qos", c.Subscribe("a", 7, noop), ErrInvalidQoS},
		{"subscribe nil handler", c.Subscribe("a", 1, nil), ErrSubscribeFailed},
		{"subscribe disconnected", c.Subscribe("a", 1, noop), ErrNotConnected},
		{"unsubscribe empty", c.Unsubscribe(""), ErrInvalidTopic},
		{"unsubscribe disconnected", c.Unsubscribe("a"), ErrNotConnected},
		{"health", c.HealthCheck(context.Background()), ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("error = %v, want %v", tt.err, tt.want)
			}
		})
	}

	if c.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", c.SubscriptionCount())
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on unconnected client = %v", err)
	}
}

type recordingLogger struct {
	errors []string
	warns  []string
}

func (r *recordingLogger) Error(msg string, _ ...any) { r.errors = append(r.errors, msg) }
func (r *recordingLogger) Warn(msg string, _ ...any)  { r.warns = append(r.warns, msg) }

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func TestWrapHandlerRecoversAndLogs(t *testing.T) {
	logger := &recordingLogger{}
	c := &Client{}
	c.SetLogger(logger)

	c.wrapHandler(func(string, []byte) error { panic("boom") })(nil, fakeMessage{topic: "t"})
	c.wrapHandler(func(string, []byte) error { return errors.New("bad payload") })(nil, fakeMessage{topic: "t"})

	if len(logger.errors) != 1 || !strings.Contains(logger.errors[0], "panic") {
		t.Errorf("errors logged = %v", logger.errors)
	}
	if len(logger.warns) != 1 {
		t.Errorf("warns logged = %v", logger.warns)
	}
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	client := connectOrSkip(t)

	topic := Topics{}.CameraMotion("192.168.1.97")
	received := make(chan string, 1)
	err := client.Subscribe(topic, 1, func(_ string, payload []byte) error {
		received <- string(payload)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if !client.HasSubscription(topic) {
		t.Error("subscription not tracked")
	}

	if err := client.Publish(topic, []byte("person"), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case got := <-received:
		if got != "person" {
			t.Errorf("payload = %q, want person", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message")
	}

	if err := client.Unsubscribe(topic); err != nil {
		t.Errorf("Unsubscribe() error = %v", err)
	}
	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after unsubscribe", client.SubscriptionCount())
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() = %v", err)
	}
}
