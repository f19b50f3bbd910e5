// HomeNet - simulated home network controller
//
// homenet serves the line-oriented device protocol ("GET /light/1/on")
// over TCP for two lights, a thermostat and a security camera on a
// simulated 192.168.1.0/24 home network. Optional integrations are
// switched on in the config file:
//   - SQLite command history
//   - MQTT state publishing and motion/availability events
//   - InfluxDB device metrics
//   - an HTTP admin API with a WebSocket state stream
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/homenet/migrations"

	"github.com/nerrad567/homenet/internal/api"
	"github.com/nerrad567/homenet/internal/device"
	"github.com/nerrad567/homenet/internal/dispatch"
	"github.com/nerrad567/homenet/internal/infrastructure/config"
	"github.com/nerrad567/homenet/internal/infrastructure/database"
	"github.com/nerrad567/homenet/internal/infrastructure/influxdb"
	"github.com/nerrad567/homenet/internal/infrastructure/logging"
	"github.com/nerrad567/homenet/internal/infrastructure/mqtt"
	"github.com/nerrad567/homenet/internal/network"
	"github.com/nerrad567/homenet/internal/server"
	"github.com/nerrad567/homenet/internal/telemetry"
)

// Version information, set at build time via ldflags:
// go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the service together and blocks until ctx is cancelled.
// Deferred cleanups run in reverse order, so the line server stops first
// and the sinks the telemetry publisher drains into close last.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // startup sequence: one optional block per integration
	log := logging.Default()
	log.Info("starting HomeNet",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Devices and the address table they are bound in.
	registry := device.NewRegistry()
	registry.SetLogger(log.Component("device"))
	arp := network.NewAddressTable()
	router := network.NewRouter(network.Catalog(), cfg.Network.Interface, arp)
	if err := device.Provision(registry, arp); err != nil {
		return fmt.Errorf("provisioning devices: %w", err)
	}
	log.Info("devices provisioned", "devices", registry.Len(), "arp_entries", arp.Len())

	var sinks telemetry.Sinks

	var db *database.DB
	var history device.HistoryRepository
	if cfg.Database.Enabled {
		db, err = database.Open(database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		history = device.NewSQLiteHistoryRepository(db.DB)
		sinks.History = history
		log.Info("command history enabled", "path", cfg.Database.Path)
	} else {
		log.Info("command history disabled")
	}

	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.Component("mqtt"))
		mqttClient.SetOnConnect(func() { log.Info("MQTT reconnected") })
		mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
		sinks.State = mqttClient
		log.Info("MQTT connected",
			"broker", mqtt.BrokerURL(cfg.MQTT),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB, cfg.Site.ID)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		sinks.Points = influxClient
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	var hub *api.Hub
	if cfg.API.Enabled {
		hub = api.NewHub(cfg.WebSocket, log.Component("stream"))
		go hub.Run(ctx)
		sinks.Broadcast = hub
	}

	publisher := telemetry.NewPublisher(sinks, cfg.Telemetry.QueueSize)
	publisher.SetLogger(log.Component("telemetry"))
	defer func() {
		log.Info("draining telemetry", "delivered", publisher.Delivered(), "dropped", publisher.Dropped())
		publisher.Close()
	}()

	dispatcher := dispatch.New(registry, dispatch.Options{
		Router:         router,
		Gateway:        cfg.Network.GatewayAddress,
		EnforceRouting: cfg.Network.EnforceRouting,
		Notifier:       publisher,
	})
	dispatcher.SetLogger(log.Component("dispatch"))

	if mqttClient != nil {
		listener := telemetry.NewListener(registry, publisher)
		listener.SetLogger(log.Component("telemetry"))
		// #nosec G115 -- QoS validated to 0..2 by config.Validate
		if err := listener.Subscribe(mqttClient, byte(cfg.MQTT.QoS)); err != nil {
			return fmt.Errorf("subscribing to device events: %w", err)
		}
	}

	if cfg.API.Enabled {
		apiServer, err := api.New(api.Deps{
			Config:     cfg.API,
			WS:         cfg.WebSocket,
			Logger:     log.Component("api"),
			Registry:   registry,
			Dispatcher: dispatcher,
			Router:     router,
			Gateway:    cfg.Network.GatewayAddress,
			History:    history,
			Notifier:   publisher,
			Telemetry:  publisher,
			MQTT:       mqttClient,
			Influx:     influxClient,
			DB:         db,
			Hub:        hub,
			Version:    version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := apiServer.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("HTTP API disabled")
	}

	lineServer := server.New(server.Config{
		Address:       cfg.ServerAddress(),
		MaxLineLength: cfg.Server.MaxLineLength,
	}, dispatcher)
	lineServer.SetLogger(log.Component("server"))
	if err := lineServer.Start(ctx); err != nil {
		return fmt.Errorf("starting line server: %w", err)
	}
	defer func() {
		log.Info("stopping line server")
		if closeErr := lineServer.Close(); closeErr != nil {
			log.Error("error closing line server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal",
		"address", lineServer.Addr().String(),
		"enforce_routing", cfg.Network.EnforceRouting,
	)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns HOMENET_CONFIG or the default path.
func getConfigPath() string {
	if path := os.Getenv("HOMENET_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies every enabled integration. Nil clients are skipped.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
