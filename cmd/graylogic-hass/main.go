// Gray Logic HASS Bridge - Home Assistant Point Bridge
//
// This is the main entry point for the Gray Logic Home Assistant bridge.
// The bridge maps a flat point namespace onto Home Assistant entities and
// exposes it three ways:
//   - MQTT: point commands, state publications, scrape snapshots, health
//   - REST: point reads/writes, on-demand scrapes, registry reloads
//   - History: a local SQLite trail of observed values
//
// For architecture details, see: docs/architecture/system-overview.md
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/gray-logic-hass/migrations"

	"github.com/nerrad567/gray-logic-hass/internal/api"
	"github.com/nerrad567/gray-logic-hass/internal/bridge"
	"github.com/nerrad567/gray-logic-hass/internal/hass"
	"github.com/nerrad567/gray-logic-hass/internal/history"
	"github.com/nerrad567/gray-logic-hass/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-hass/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-hass/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-hass/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-hass/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Gray Logic HASS bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Warn about hub token problems (expiry, malformed JWT) up front
	// rather than at the first failed request.
	hass.IntrospectToken(cfg.Hub.Token, log)

	// Load the register catalog and configure the driver
	defs, err := hass.LoadDefinitions(cfg.Registry.Path)
	if err != nil {
		return fmt.Errorf("loading registry: %w", err)
	}
	log.Info("registry loaded", "path", cfg.Registry.Path, "registers", len(defs))

	driver := hass.NewDriver(log)
	if err := driver.Configure(cfg.Hub, defs); err != nil {
		return fmt.Errorf("configuring driver: %w", err)
	}

	// Open database and history repository (optional)
	var db *database.DB
	var historyRepo history.Repository
	if cfg.History.Enabled {
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
		log.Info("database connected", "path", cfg.Database.Path)

		if migrateErr := db.Migrate(ctx); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("database migrations complete")

		historyRepo = history.NewSQLiteRepository(db.DB)
	} else {
		log.Info("history disabled")
	}

	// Connect to MQTT broker (optional); the broker announces our death
	// via the retained LWT on the health topic.
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		lwtPayload, lwtErr := json.Marshal(bridge.NewLWTMessage(bridge.Protocol))
		if lwtErr != nil {
			return fmt.Errorf("building LWT message: %w", lwtErr)
		}

		mqttClient, err = mqtt.Connect(cfg.MQTT, &mqtt.WillMessage{
			Topic:    bridge.HealthTopic(),
			Payload:  lwtPayload,
			QoS:      1,
			Retained: true,
		})
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled, the poller and API still run")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Start the point bridge: command subscription, scrape poller,
	// history pruning, health reporting.
	pointBridge, err := startBridge(ctx, cfg, driver, mqttClient, historyRepo, influxClient, log)
	if err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	defer func() {
		log.Info("stopping bridge")
		pointBridge.Stop()
	}()

	// Start the REST API server
	apiServer, err := api.New(api.Deps{
		Config:       cfg.API,
		WS:           cfg.WebSocket,
		Hub:          cfg.Hub,
		RegistryPath: cfg.Registry.Path,
		Logger:       log,
		Driver:       driver,
		Bridge:       pointBridge,
		History:      historyRepo,
		MQTT:         mqttClient,
		Influx:       influxClient,
		DB:           db,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify local infrastructure is healthy. The hub itself is checked
	// separately and non-fatally: the poller keeps retrying an
	// unreachable hub, and health reports carry the degraded status.
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if err := driver.HealthCheck(ctx); err != nil {
		log.Warn("hub unreachable at startup, scrapes will retry", "error", err)
	}
	log.Info("health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. Bridge
	// 3. InfluxDB (if enabled)
	// 4. MQTT (if enabled)
	// 5. Database (if enabled)

	log.Info("Gray Logic HASS bridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GRAYLOGIC_HASS_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_HASS_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// startBridge assembles and starts the point bridge.
//
// MQTT, history, and telemetry are all optional; the assignments below
// go through local interface variables so a disabled component stays a
// nil interface rather than a typed nil.
func startBridge(
	ctx context.Context,
	cfg *config.Config,
	driver *hass.Driver,
	mqttClient *mqtt.Client,
	historyRepo history.Repository,
	influxClient *influxdb.Client,
	log *logging.Logger,
) (*bridge.Bridge, error) {
	var mqttIface bridge.MQTTClient
	if mqttClient != nil {
		mqttIface = &mqttBridgeAdapter{client: mqttClient}
	}

	var telemetry bridge.TelemetryWriter
	if influxClient != nil {
		telemetry = influxClient
	}

	var retention time.Duration
	if cfg.History.Enabled {
		retention = cfg.History.GetRetention()
	}

	b, err := bridge.New(bridge.Options{
		Version:          version,
		Driver:           driver,
		MQTT:             mqttIface,
		History:          historyRepo,
		Telemetry:        telemetry,
		ScrapeInterval:   cfg.Polling.GetScrapeInterval(),
		HistoryRetention: retention,
		Logger:           log,
	})
	if err != nil {
		return nil, fmt.Errorf("creating bridge: %w", err)
	}

	if err := b.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting bridge: %w", err)
	}

	return b, nil
}

// healthCheck verifies local infrastructure connections are healthy.
// Components that are disabled (nil) are skipped.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check (may be nil if history disabled)
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
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

// mqttBridgeAdapter adapts the infrastructure MQTT client to the bridge's
// MQTTClient interface. The difference is the Subscribe handler signature:
// - Infrastructure mqtt: func(topic string, payload []byte) error
// - Bridge expects: func(topic string, payload []byte)
type mqttBridgeAdapter struct {
	client *mqtt.Client
}

// Publish implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	// Wrap the void handler to return nil error (bridge handlers surface
	// failures through acks, not subscription errors)
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

// IsConnected implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) IsConnected() bool {
	return a.client.IsConnected()
}
