package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root of config.yaml.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Server    ServerConfig    `yaml:"server"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Network   NetworkConfig   `yaml:"network"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// SiteConfig identifies the installation. ID tags InfluxDB points.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// ServerConfig contains settings for the line-oriented command transport.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// MaxLineLength is the longest request line accepted, in bytes.
	// Longer lines terminate the connection.
	MaxLineLength int `yaml:"max_line_length"`
}

// APIConfig configures the optional HTTP admin API.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig lists origins, methods and headers browsers may use. An empty
// AllowedOrigins or a "*" entry allows any origin.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig tunes the /ws state stream.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// DatabaseConfig contains SQLite settings for the command history.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig configures the broker used for state fan-out and inbound
// device events.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig delays are in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig configures the device_metrics writer. FlushInterval is in
// seconds.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig selects level (debug|info|warn|error), format (json|text)
// and output (stdout|stderr).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// NetworkConfig contains settings for the simulated home network.
type NetworkConfig struct {
	// GatewayAddress is the source address used when checking whether a
	// device is reachable before a command is applied.
	GatewayAddress string `yaml:"gateway_address"`

	// Interface is the egress interface label put on default routes.
	Interface string `yaml:"interface"`

	// EnforceRouting rejects commands whose target cannot be routed and
	// resolved. When false the routing result is only logged.
	EnforceRouting bool `yaml:"enforce_routing"`
}

// TelemetryConfig contains settings for the state change fan-out.
type TelemetryConfig struct {
	QueueSize int `yaml:"queue_size"`
}

// Load builds a Config from defaults, then the YAML file at path, then
// HOMENET_* environment variables, and validates the result. A malformed
// environment value is an error rather than being ignored.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config with sensible defaults.
// Only the line transport is enabled; every optional integration is off.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "home-001",
			Name: "HomeNet",
		},
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          8080,
			MaxLineLength: 1024,
		},
		API: APIConfig{
			Enabled: false,
			Host:    "127.0.0.1",
			Port:    8081,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Database: DatabaseConfig{
			Enabled:     false,
			Path:        "./data/homenet.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Enabled: false,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "homenet",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Network: NetworkConfig{
			GatewayAddress: "192.168.1.1",
			Interface:      "eth0",
		},
		Telemetry: TelemetryConfig{
			QueueSize: 256,
		},
	}
}

// envBinding maps one environment variable onto a config field.
type envBinding struct {
	name  string
	apply func(c *Config, v string) error
}

func envString(name string, field func(*Config) *string) envBinding {
	return envBinding{name, func(c *Config, v string) error {
		*field(c) = v
		return nil
	}}
}

func envInt(name string, field func(*Config) *int) envBinding {
	return envBinding{name, func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", name, v)
		}
		*field(c) = n
		return nil
	}}
}

func envBool(name string, field func(*Config) *bool) envBinding {
	return envBinding{name, func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not a boolean", name, v)
		}
		*field(c) = b
		return nil
	}}
}

var envBindings = []envBinding{
	envString("HOMENET_SITE_ID", func(c *Config) *string { return &c.Site.ID }),

	envString("HOMENET_SERVER_HOST", func(c *Config) *string { return &c.Server.Host }),
	envInt("HOMENET_SERVER_PORT", func(c *Config) *int { return &c.Server.Port }),

	envBool("HOMENET_API_ENABLED", func(c *Config) *bool { return &c.API.Enabled }),
	envString("HOMENET_API_HOST", func(c *Config) *string { return &c.API.Host }),
	envInt("HOMENET_API_PORT", func(c *Config) *int { return &c.API.Port }),

	envBool("HOMENET_DATABASE_ENABLED", func(c *Config) *bool { return &c.Database.Enabled }),
	envString("HOMENET_DATABASE_PATH", func(c *Config) *string { return &c.Database.Path }),

	envBool("HOMENET_MQTT_ENABLED", func(c *Config) *bool { return &c.MQTT.Enabled }),
	envString("HOMENET_MQTT_HOST", func(c *Config) *string { return &c.MQTT.Broker.Host }),
	envInt("HOMENET_MQTT_PORT", func(c *Config) *int { return &c.MQTT.Broker.Port }),
	envString("HOMENET_MQTT_USERNAME", func(c *Config) *string { return &c.MQTT.Auth.Username }),
	envString("HOMENET_MQTT_PASSWORD", func(c *Config) *string { return &c.MQTT.Auth.Password }),

	envBool("HOMENET_INFLUXDB_ENABLED", func(c *Config) *bool { return &c.InfluxDB.Enabled }),
	envString("HOMENET_INFLUXDB_URL", func(c *Config) *string { return &c.InfluxDB.URL }),
	envString("HOMENET_INFLUXDB_TOKEN", func(c *Config) *string { return &c.InfluxDB.Token }),

	envString("HOMENET_LOG_LEVEL", func(c *Config) *string { return &c.Logging.Level }),
	envString("HOMENET_LOG_FORMAT", func(c *Config) *string { return &c.Logging.Format }),

	envBool("HOMENET_NETWORK_ENFORCE_ROUTING", func(c *Config) *bool { return &c.Network.EnforceRouting }),
}

// applyEnvOverrides applies every set, non-empty HOMENET_* variable. All
// malformed values are reported together; well-formed ones are still
// applied.
func applyEnvOverrides(cfg *Config) error {
	var errs []error
	for _, b := range envBindings {
		v := os.Getenv(b.name)
		if v == "" {
			continue
		}
		if err := b.apply(cfg, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Validate reports every invalid field in one error. Sections that are
// disabled are not checked.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Site.ID != "", "site.id is required")
	check(validPort(c.Server.Port), "server.port %d out of range 1-65535", c.Server.Port)
	check(c.Server.MaxLineLength >= minLineLength,
		"server.max_line_length must be at least %d", minLineLength)

	if c.API.Enabled {
		check(validPort(c.API.Port), "api.port %d out of range 1-65535", c.API.Port)
	}
	if c.Database.Enabled {
		check(c.Database.Path != "", "database.path is required when enabled")
	}
	check(c.MQTT.QoS >= 0 && c.MQTT.QoS <= 2, "mqtt.qos %d is not 0, 1 or 2", c.MQTT.QoS)
	if c.MQTT.Enabled {
		check(c.MQTT.Broker.Host != "", "mqtt.broker.host is required when enabled")
	}
	if c.InfluxDB.Enabled {
		check(c.InfluxDB.URL != "", "influxdb.url is required when enabled")
	}

	gw, err := netip.ParseAddr(c.Network.GatewayAddress)
	check(err == nil && gw.Is4(), "network.gateway_address %q is not a dotted-decimal IPv4 address",
		c.Network.GatewayAddress)
	check(c.Network.Interface != "", "network.interface is required")
	check(c.Telemetry.QueueSize > 0, "telemetry.queue_size must be positive")

	return errors.Join(errs...)
}

const minLineLength = 16

func validPort(p int) bool { return p >= 1 && p <= 65535 }

// ServerAddress returns the host:port the line transport listens on.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Durations converts the second counts to time.Duration values.
func (t APITimeoutConfig) Durations() (read, write, idle time.Duration) {
	return seconds(t.Read), seconds(t.Write), seconds(t.Idle)
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }
