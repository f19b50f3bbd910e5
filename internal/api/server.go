package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/homenet/internal/device"
	"github.com/nerrad567/homenet/internal/dispatch"
	"github.com/nerrad567/homenet/internal/infrastructure/config"
	"github.com/nerrad567/homenet/internal/infrastructure/database"
	"github.com/nerrad567/homenet/internal/infrastructure/influxdb"
	"github.com/nerrad567/homenet/internal/infrastructure/logging"
	"github.com/nerrad567/homenet/internal/infrastructure/mqtt"
	"github.com/nerrad567/homenet/internal/network"
	"github.com/nerrad567/homenet/internal/telemetry"
)

// gracefulShutdownTimeout bounds how long Close waits for in-flight
// requests.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies of the API server. Logger, Registry and
// Dispatcher are required; the rest are optional and the matching
// endpoints or metrics degrade when absent.
type Deps struct {
	Config     config.APIConfig
	WS         config.WebSocketConfig
	Logger     *logging.Logger
	Registry   *device.Registry
	Dispatcher *dispatch.Dispatcher

	Router  *network.Router
	Gateway string

	History   device.HistoryRepository
	Notifier  dispatch.Notifier
	Telemetry *telemetry.Publisher
	MQTT      *mqtt.Client
	Influx    *influxdb.Client
	DB        *database.DB

	// Hub, if set, is used instead of a hub owned by the server. The
	// telemetry publisher needs the hub before the server starts.
	Hub *Hub

	Version string
}

// Server is the HTTP API server.
type Server struct {
	cfg        config.APIConfig
	wsCfg      config.WebSocketConfig
	logger     *logging.Logger
	registry   *device.Registry
	dispatcher *dispatch.Dispatcher
	router     *network.Router
	gateway    string
	history    device.HistoryRepository
	notifier   dispatch.Notifier
	telemetry  *telemetry.Publisher
	mqtt       *mqtt.Client
	influx     *influxdb.Client
	db         *database.DB
	version    string
	startTime  time.Time

	hub         *Hub
	externalHub bool

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	cancel   context.CancelFunc
}

// New creates a server. It does not listen until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}

	s := &Server{
		cfg:        deps.Config,
		wsCfg:      deps.WS,
		logger:     deps.Logger,
		registry:   deps.Registry,
		dispatcher: deps.Dispatcher,
		router:     deps.Router,
		gateway:    deps.Gateway,
		history:    deps.History,
		notifier:   deps.Notifier,
		telemetry:  deps.Telemetry,
		mqtt:       deps.MQTT,
		influx:     deps.Influx,
		db:         deps.DB,
		version:    deps.Version,
		startTime:  time.Now(),
	}
	if deps.Hub != nil {
		s.hub = deps.Hub
		s.externalHub = true
	} else {
		s.hub = NewHub(deps.WS, deps.Logger)
	}
	return s, nil
}

// Hub returns the server's WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start binds the listener and serves in the background. The hub is
// started here unless it was supplied through Deps.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return fmt.Errorf("api server already started")
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	if !s.externalHub {
		go s.hub.Run(srvCtx)
	}

	read, write, idle := s.cfg.Timeouts.Durations()
	s.listener = ln
	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       read,
		ReadHeaderTimeout: read,
		WriteTimeout:      write,
		IdleTimeout:       idle,
	}

	server := s.server
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server listening", "address", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close waits up to gracefulShutdownTimeout for in-flight requests, then
// stops the server and the hub it owns.
func (s *Server) Close() error {
	s.mu.Lock()
	server := s.server
	cancel := s.cancel
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	if cancel != nil {
		cancel()
	}

	ctx, done := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer done()

	s.logger.Info("API server shutting down")
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("api health check: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
