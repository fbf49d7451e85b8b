package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-hass/internal/hass"
	"github.com/nerrad567/gray-logic-hass/internal/history"
	"github.com/nerrad567/gray-logic-hass/internal/infrastructure/logging"
)

// Bridge operation constants.
const (
	// minTopicParts is the minimum number of parts in a valid MQTT topic.
	minTopicParts = 3

	// commandTimeout bounds a single write, hub round-trip included.
	commandTimeout = 15 * time.Second

	// historyTimeout bounds history inserts so a stalled database cannot
	// back up the command or scrape paths.
	historyTimeout = 5 * time.Second
)

// Bridge orchestrates bidirectional translation between the Home Assistant
// point driver and MQTT. It handles:
//   - Receiving write commands from Core via MQTT and executing them on the hub
//   - Polling the hub and publishing point state and snapshot updates
//   - Health reporting and graceful shutdown
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	bridgeID string
	version  string

	driver    PointDriver
	mqtt      MQTTClient         // nil when MQTT is disabled
	history   history.Repository // nil when history is disabled
	telemetry TelemetryWriter    // nil when InfluxDB is disabled
	health    *HealthReporter

	scrapeInterval   time.Duration
	historyRetention time.Duration

	// State cache for change detection on point state publishes
	stateCache   map[string]any
	stateCacheMu sync.Mutex

	// Operation counters
	commandsHandled atomic.Uint64
	commandFailures atomic.Uint64
	scrapePasses    atomic.Uint64
	scrapeFailures  atomic.Uint64
	lastScrapeSize  atomic.Int64

	// Shutdown coordination
	done      chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
	ctx       context.Context    // Bridge-level context, cancelled on Stop()
	ctxCancel context.CancelFunc // Cancel function for ctx

	logger *logging.Logger
}

// PointDriver is the driver surface the bridge consumes.
// Satisfied by *hass.Driver; narrowed to an interface for mocking in tests.
type PointDriver interface {
	// SetPoint validates, coerces, and writes a value to a point.
	SetPoint(ctx context.Context, pointName string, value any) (any, error)

	// ScrapeAll reads and translates every configured register.
	ScrapeAll(ctx context.Context) (map[string]any, error)

	// Point returns a copy of the named register.
	Point(pointName string) (hass.Register, bool)

	// PointCount returns the number of configured registers.
	PointCount() int

	// HubStats returns hub request counters.
	HubStats() hass.HubStats

	// HealthCheck verifies the hub answers its API root.
	HealthCheck(ctx context.Context) error
}

// MQTTClient is the interface for MQTT operations.
// This allows mocking in tests and flexibility in implementation.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// TelemetryWriter ships point values and scrape statistics to a time-series
// store. Satisfied by *influxdb.Client. Writes are expected to be
// non-blocking; the bridge never checks their outcome.
type TelemetryWriter interface {
	WritePointValue(pointName string, domain string, value float64)
	WriteScrapeStats(points int, failures int, duration time.Duration)
}

// Options holds configuration for creating a bridge.
type Options struct {
	// BridgeID identifies this bridge in health messages. Default: "hass".
	BridgeID string

	// Version is the bridge software version for health messages.
	Version string

	// Driver executes point reads and writes. Required.
	Driver PointDriver

	// MQTT is the broker connection. Optional; without it the bridge
	// polls but publishes nothing.
	MQTT MQTTClient

	// History records observed values to SQLite. Optional.
	History history.Repository

	// Telemetry ships numeric values to InfluxDB. Optional.
	Telemetry TelemetryWriter

	// ScrapeInterval is the poll period. Default: 60s, minimum: 1s.
	ScrapeInterval time.Duration

	// HealthInterval is the health report period. Default: 30s.
	HealthInterval time.Duration

	// HistoryRetention is how long history rows are kept before the daily
	// prune removes them. Zero disables pruning.
	HistoryRetention time.Duration

	// Logger is optional structured logging.
	Logger *logging.Logger
}

// New creates a bridge instance. Call Start to begin operation.
func New(opts Options) (*Bridge, error) {
	if opts.Driver == nil {
		return nil, fmt.Errorf("bridge: driver is required")
	}

	bridgeID := opts.BridgeID
	if bridgeID == "" {
		bridgeID = Protocol
	}
	scrapeInterval := opts.ScrapeInterval
	if scrapeInterval <= 0 {
		scrapeInterval = time.Minute
	}

	// Bridge-level context so in-flight commands abort on Stop()
	ctx, ctxCancel := context.WithCancel(context.Background())

	b := &Bridge{
		bridgeID:         bridgeID,
		version:          opts.Version,
		driver:           opts.Driver,
		mqtt:             opts.MQTT,
		history:          opts.History,
		telemetry:        opts.Telemetry,
		scrapeInterval:   scrapeInterval,
		historyRetention: opts.HistoryRetention,
		stateCache:       make(map[string]any),
		done:             make(chan struct{}),
		ctx:              ctx,
		ctxCancel:        ctxCancel,
		logger:           opts.Logger,
	}

	b.health = NewHealthReporter(HealthReporterConfig{
		BridgeID:  bridgeID,
		Version:   opts.Version,
		Interval:  opts.HealthInterval,
		Publisher: healthPublisher(opts.MQTT),
		Hub:       opts.Driver,
		Logger:    opts.Logger,
	})
	b.health.SetPointCount(opts.Driver.PointCount())

	return b, nil
}

// healthPublisher adapts an optional MQTTClient into the HealthPublisher
// the reporter expects, preserving nil (a typed nil interface would defeat
// the reporter's nil check).
func healthPublisher(client MQTTClient) HealthPublisher {
	if client == nil {
		return nil
	}
	return client
}

// Start begins bridge operation: command subscription, the scrape poller,
// the history prune loop, and health reporting.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.health.PublishStarting(); err != nil {
		b.logError("failed to publish starting status", err)
	}

	if b.mqtt != nil {
		commandTopic := CommandSubscribeTopic()
		if err := b.mqtt.Subscribe(commandTopic, 1, b.handleMQTTMessage); err != nil {
			return fmt.Errorf("subscribe to commands: %w", err)
		}
		b.logInfo("subscribed to commands", "topic", commandTopic)
	}

	b.wg.Add(1)
	go b.pollLoop()

	if b.history != nil && b.historyRetention > 0 {
		b.wg.Add(1)
		go b.pruneLoop()
	}

	b.health.Start(ctx)
	if err := b.health.PublishNow(); err != nil {
		b.logError("failed to publish health status", err)
	}

	b.logInfo("bridge started",
		"bridge_id", b.bridgeID,
		"points", b.driver.PointCount(),
		"scrape_interval", b.scrapeInterval.String())

	return nil
}

// Stop gracefully shuts down the bridge.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)

		// Abort in-flight commands and scrape passes
		b.ctxCancel()

		// Stop health reporting (publishes "stopping" status)
		b.health.Stop()

		// Wait for the poller and prune loops
		b.wg.Wait()

		b.logInfo("bridge stopped")
	})
}

// handleMQTTMessage routes incoming MQTT messages to appropriate handlers.
func (b *Bridge) handleMQTTMessage(topic string, payload []byte) {
	parts := strings.Split(topic, "/")
	if len(parts) < minTopicParts {
		b.logError("invalid topic format", fmt.Errorf("topic: %s", topic))
		return
	}

	messageType := parts[1] // command, etc.

	switch messageType {
	case "command":
		b.handleCommand(payload)
	default:
		b.logError("unknown message type", fmt.Errorf("type: %s", messageType))
	}
}

// handleCommand processes a write command from Core. The point name in the
// payload is authoritative; the topic segment exists for broker-side
// filtering only.
func (b *Bridge) handleCommand(payload []byte) {
	var cmd WriteMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		// No correlation ID to ack against
		b.logError("failed to parse write command", err)
		return
	}

	if cmd.Point == "" {
		b.commandFailures.Add(1)
		b.publishAckError(cmd, ErrCodeInvalidPayload, "point is required")
		return
	}

	b.logInfo("received write command",
		"command_id", cmd.ID,
		"point", cmd.Point,
		"source", cmd.Source)

	ctx, cancel := context.WithTimeout(b.ctx, commandTimeout)
	defer cancel()

	accepted, err := b.driver.SetPoint(ctx, cmd.Point, cmd.Value)
	if err != nil {
		b.commandFailures.Add(1)
		b.publishAckError(cmd, errorCode(err), err.Error())
		return
	}

	b.commandsHandled.Add(1)
	b.publishAck(cmd, accepted)
	b.publishPointState(cmd.Point, accepted, history.SourceWrite)
	b.recordPoint(cmd.Point, accepted, history.SourceWrite)
	b.shipPointValue(cmd.Point, accepted)
}

// publishAck publishes an accepted acknowledgment carrying the coerced value.
func (b *Bridge) publishAck(cmd WriteMessage, value any) {
	if b.mqtt == nil {
		return
	}

	ack := NewAckMessage(cmd, AckAccepted)
	ack.Value = value

	payload, err := json.Marshal(ack)
	if err != nil {
		b.logError("failed to marshal ack", err)
		return
	}

	if err := b.mqtt.Publish(AckTopic(cmd.Point), payload, 1, false); err != nil {
		b.logError("failed to publish ack", err)
	}
}

// publishAckError publishes a failed acknowledgment.
func (b *Bridge) publishAckError(cmd WriteMessage, code, message string) {
	b.logError("write command failed",
		fmt.Errorf("point=%s code=%s message=%s", cmd.Point, code, message))

	if b.mqtt == nil {
		return
	}

	ack := NewAckError(cmd, code, message)

	payload, err := json.Marshal(ack)
	if err != nil {
		b.logError("failed to marshal ack error", err)
		return
	}

	if err := b.mqtt.Publish(AckTopic(cmd.Point), payload, 1, false); err != nil {
		b.logError("failed to publish ack error", err)
	}
}

// publishPointState publishes a retained point state message, skipping
// values unchanged since the last publish.
func (b *Bridge) publishPointState(point string, value any, source string) {
	if b.mqtt == nil {
		return
	}
	if b.stateUnchanged(point, value) {
		return
	}

	msg := NewPointStateMessage(point, value, source)

	payload, err := json.Marshal(msg)
	if err != nil {
		b.logError("failed to marshal point state", err)
		return
	}

	if err := b.mqtt.Publish(StateTopic(point), payload, 1, true); err != nil {
		b.logError("failed to publish point state", err)
	}
}

// stateUnchanged checks the new value against the cache, updating it when
// the value differs. Returns true if unchanged (publish should be skipped).
// Translated values are ints, floats, bools, and strings, all comparable.
func (b *Bridge) stateUnchanged(point string, value any) bool {
	b.stateCacheMu.Lock()
	defer b.stateCacheMu.Unlock()

	if cached, ok := b.stateCache[point]; ok && cached == value {
		return true
	}
	b.stateCache[point] = value
	return false
}

// ClearStateCache removes all entries from the state cache so every point
// republishes on the next pass. Call after registry reloads; stale point
// names would otherwise linger for the life of the process.
func (b *Bridge) ClearStateCache() {
	b.stateCacheMu.Lock()
	defer b.stateCacheMu.Unlock()
	b.stateCache = make(map[string]any)

	b.health.SetPointCount(b.driver.PointCount())
}

// recordPoint appends a single observed value to the history trail.
func (b *Bridge) recordPoint(point string, value any, source string) {
	if b.history == nil {
		return
	}

	ctx, cancel := context.WithTimeout(b.ctx, historyTimeout)
	defer cancel()

	if err := b.history.RecordPoint(ctx, point, value, source); err != nil {
		b.logError("failed to record point history", err)
	}
}

// shipPointValue forwards a numeric point value to telemetry, tagged with
// the register's entity domain. Non-numeric values are not shipped.
func (b *Bridge) shipPointValue(point string, value any) {
	if b.telemetry == nil {
		return
	}
	num, ok := numericValue(value)
	if !ok {
		return
	}

	domain := ""
	if reg, found := b.driver.Point(point); found {
		domain = reg.EntityDomain()
	}
	b.telemetry.WritePointValue(point, domain, num)
}

// numericValue converts translated point values to float64 for telemetry.
func numericValue(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// errorCode maps driver errors to wire error codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeout
	case errors.Is(err, hass.ErrPointNotFound):
		return ErrCodePointNotFound
	case errors.Is(err, hass.ErrReadOnly):
		return ErrCodeReadOnly
	case errors.Is(err, hass.ErrInvalidValue):
		return ErrCodeInvalidValue
	case errors.Is(err, hass.ErrUnsupportedEntity):
		return ErrCodeUnsupported
	case errors.Is(err, hass.ErrTransport):
		return ErrCodeHubUnreachable
	case errors.Is(err, hass.ErrRequestFailed):
		return ErrCodeHubRejected
	case errors.Is(err, hass.ErrConfiguration):
		return ErrCodeNotConfigured
	default:
		return ErrCodeBridgeError
	}
}

// Metrics contains bridge counters for the API metrics endpoint.
type Metrics struct {
	MQTTConnected   bool   `json:"mqtt_connected"`
	CommandsHandled uint64 `json:"commands_handled"`
	CommandFailures uint64 `json:"command_failures"`
	ScrapePasses    uint64 `json:"scrape_passes"`
	ScrapeFailures  uint64 `json:"scrape_failures"`
	LastScrapeSize  int64  `json:"last_scrape_size"`
	PointsManaged   int    `json:"points_managed"`
}

// GetMetrics returns current bridge counters.
func (b *Bridge) GetMetrics() Metrics {
	connected := false
	if b.mqtt != nil {
		connected = b.mqtt.IsConnected()
	}

	return Metrics{
		MQTTConnected:   connected,
		CommandsHandled: b.commandsHandled.Load(),
		CommandFailures: b.commandFailures.Load(),
		ScrapePasses:    b.scrapePasses.Load(),
		ScrapeFailures:  b.scrapeFailures.Load(),
		LastScrapeSize:  b.lastScrapeSize.Load(),
		PointsManaged:   b.driver.PointCount(),
	}
}

// HealthReporter exposes the reporter for LWT wiring in main.
func (b *Bridge) HealthReporter() *HealthReporter {
	return b.health
}

// logInfo logs an info message if a logger is set.
func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	if b.logger != nil {
		b.logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is set.
func (b *Bridge) logError(msg string, err error) {
	if b.logger != nil {
		b.logger.Error(msg, "error", err)
	}
}

// logDebug logs a debug message if a logger is set.
func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, keysAndValues...)
	}
}
