package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-hass/internal/bridge"
	"github.com/nerrad567/gray-logic-hass/internal/hass"
	"github.com/nerrad567/gray-logic-hass/internal/history"
	"github.com/nerrad567/gray-logic-hass/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-hass/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-hass/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-hass/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-hass/internal/infrastructure/mqtt"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Driver is the point driver surface the API consumes.
// Satisfied by *hass.Driver; narrowed to an interface for mocking in tests.
type Driver interface {
	// GetPoint reads the live hub value for one point.
	GetPoint(ctx context.Context, pointName string) (any, error)

	// SetPoint validates, coerces, and writes a value to a point.
	SetPoint(ctx context.Context, pointName string, value any) (any, error)

	// ScrapeAll reads and translates every configured register.
	ScrapeAll(ctx context.Context) (map[string]any, error)

	// Configure rebuilds the catalog from fresh definitions.
	Configure(cfg config.HubConfig, defs []hass.RegisterDefinition) error

	// Points returns the catalog contents in registry file order.
	Points() []hass.Register

	// Point returns a copy of the named register.
	Point(pointName string) (hass.Register, bool)

	// PointCount returns the number of configured registers.
	PointCount() int

	// CatalogStats summarises catalog composition.
	CatalogStats() hass.CatalogStats

	// HubStats returns hub request counters.
	HubStats() hass.HubStats

	// HealthCheck verifies the hub answers its API root.
	HealthCheck(ctx context.Context) error
}

// BridgeControl is the MQTT bridge surface the API consumes: operation
// counters for the metrics endpoint and cache invalidation after registry
// reloads. Satisfied by *bridge.Bridge.
type BridgeControl interface {
	GetMetrics() bridge.Metrics
	ClearStateCache()
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config config.APIConfig
	WS     config.WSConfig

	// Hub carries the connection settings registry reload reconfigures
	// the driver with.
	Hub config.HubConfig

	// RegistryPath is the register definitions file re-read on reload.
	RegistryPath string

	Logger  *logging.Logger
	Driver  Driver
	Bridge  BridgeControl      // optional: metrics and reload notification
	History history.Repository // optional: history endpoint answers 503 without it
	MQTT    *mqtt.Client       // optional: WebSocket relay of bridge publications
	Influx  *influxdb.Client   // optional: health and metrics reporting only
	DB      *database.DB       // optional: pool stats in metrics
	Version string
}

// Server is the HTTP API server for the Home Assistant bridge.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg          config.APIConfig
	wsCfg        config.WSConfig
	hubCfg       config.HubConfig
	registryPath string
	logger       *logging.Logger
	driver       Driver
	bridge       BridgeControl
	history      history.Repository
	mqtt         *mqtt.Client
	influx       *influxdb.Client
	db           *database.DB
	version      string
	startTime    time.Time
	server       *http.Server
	hub          *Hub
	cancel       context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, driver)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Driver == nil {
		return nil, fmt.Errorf("point driver is required")
	}
	// MQTT, history, InfluxDB, and the bridge handle are all optional;
	// their endpoints degrade rather than fail.

	return &Server{
		cfg:          deps.Config,
		wsCfg:        deps.WS,
		hubCfg:       deps.Hub,
		registryPath: deps.RegistryPath,
		logger:       deps.Logger,
		driver:       deps.Driver,
		bridge:       deps.Bridge,
		history:      deps.History,
		mqtt:         deps.MQTT,
		influx:       deps.Influx,
		db:           deps.DB,
		version:      deps.Version,
		startTime:    time.Now(),
	}, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, subscribes to the MQTT
// state topics for real-time WebSocket broadcast, and launches the HTTP
// listener in a background goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	// Create internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(srvCtx)

	// Relay bridge state publications to WebSocket clients
	if err := s.subscribeStateUpdates(); err != nil {
		s.logger.Warn("failed to subscribe to state updates for WebSocket", "error", err)
	}

	// Build router
	router := s.buildRouter()

	// Create HTTP server
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	// Start listening in background
	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server started", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Cancel background goroutines (hub)
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
