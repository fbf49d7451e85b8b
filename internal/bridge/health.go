package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-hass/internal/hass"
	"github.com/nerrad567/gray-logic-hass/internal/infrastructure/logging"
)

// Health reporting constants.
const (
	// defaultHealthInterval is how often health status is published.
	defaultHealthInterval = 30 * time.Second

	// hubProbeTimeout bounds the hub liveness probe inside each report.
	hubProbeTimeout = 5 * time.Second
)

// HealthReporter manages periodic health status reporting.
// It publishes retained health messages to MQTT at regular intervals,
// probing the hub's API root on each pass.
type HealthReporter struct {
	bridgeID  string
	version   string
	startTime time.Time
	interval  time.Duration
	publisher HealthPublisher
	hub       HubChecker

	// Point count (updated externally on registry reloads)
	pointCount   int
	pointCountMu sync.RWMutex

	// Shutdown coordination (stopOnce prevents double-close panics)
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger *logging.Logger
}

// HealthPublisher is the interface for publishing health messages.
// This is typically implemented by an MQTT client.
type HealthPublisher interface {
	// Publish sends a message to a topic with the specified QoS and retention.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// IsConnected returns true if the publisher is connected.
	IsConnected() bool
}

// HubChecker provides hub connectivity and request statistics.
// Satisfied by *hass.Driver.
type HubChecker interface {
	// HealthCheck verifies the hub answers its API root.
	HealthCheck(ctx context.Context) error

	// HubStats returns hub request counters.
	HubStats() hass.HubStats
}

// HealthReporterConfig holds configuration for the health reporter.
type HealthReporterConfig struct {
	// BridgeID is the bridge identifier for health messages.
	BridgeID string

	// Version is the bridge software version.
	Version string

	// Interval is how often to publish health status.
	// Default: 30 seconds.
	Interval time.Duration

	// Publisher is the MQTT client for publishing messages. Optional;
	// a nil publisher makes every publish a no-op.
	Publisher HealthPublisher

	// Hub provides hub connectivity checks and statistics.
	Hub HubChecker

	// Logger is optional structured logging.
	Logger *logging.Logger
}

// NewHealthReporter creates a new health reporter.
//
// Parameters:
//   - cfg: Configuration for the health reporter
//
// Returns:
//   - *HealthReporter: Ready to start (call Start to begin reporting)
func NewHealthReporter(cfg HealthReporterConfig) *HealthReporter {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultHealthInterval
	}

	return &HealthReporter{
		bridgeID:  cfg.BridgeID,
		version:   cfg.Version,
		startTime: time.Now(),
		interval:  interval,
		publisher: cfg.Publisher,
		hub:       cfg.Hub,
		done:      make(chan struct{}),
		logger:    cfg.Logger,
	}
}

// Start begins periodic health reporting.
// Must be called after creation. Call Stop to shut down.
//
// Parameters:
//   - ctx: Context for cancellation (will stop reporting when cancelled)
func (h *HealthReporter) Start(ctx context.Context) {
	h.wg.Add(1)
	go h.reportLoop(ctx)
}

// Stop gracefully stops health reporting.
// Publishes a final "stopping" status before returning.
// Safe to call multiple times (uses sync.Once).
func (h *HealthReporter) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.wg.Wait()

		//nolint:errcheck // Best-effort during shutdown, nothing we can do if it fails
		h.publishStatus(HealthStopping, "")
	})
}

// SetPointCount updates the managed point count.
// This is called when the register configuration changes.
func (h *HealthReporter) SetPointCount(count int) {
	h.pointCountMu.Lock()
	h.pointCount = count
	h.pointCountMu.Unlock()
}

// PublishStarting publishes a "starting" status.
// Called during bridge initialization.
func (h *HealthReporter) PublishStarting() error {
	return h.publishStatus(HealthStarting, "bridge starting")
}

// PublishNow publishes the current health status immediately.
// Useful for forcing an update after a significant event.
func (h *HealthReporter) PublishNow() error {
	status, reason := h.determineStatus()
	return h.publishStatus(status, reason)
}

// GetLWTPayload returns the Last Will and Testament message payload.
// This should be set as the MQTT will message during connection.
func (h *HealthReporter) GetLWTPayload() ([]byte, error) {
	msg := NewLWTMessage(h.bridgeID)
	return json.Marshal(msg)
}

// GetLWTTopic returns the topic for the Last Will and Testament.
func (h *HealthReporter) GetLWTTopic() string {
	return HealthTopic()
}

// reportLoop runs the periodic health reporting.
func (h *HealthReporter) reportLoop(ctx context.Context) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	// Publish initial status
	if err := h.PublishNow(); err != nil {
		h.logError("failed to publish initial health", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
			if err := h.PublishNow(); err != nil {
				h.logError("failed to publish health", err)
			}
		}
	}
}

// determineStatus evaluates the current bridge status. The hub probe is a
// live GET against the hub's API root, not a cached flag; HTTP carries no
// persistent connection to inspect.
func (h *HealthReporter) determineStatus() (HealthStatus, string) {
	if h.publisher == nil || !h.publisher.IsConnected() {
		return HealthDegraded, "MQTT disconnected"
	}

	if h.hub == nil {
		return HealthDegraded, "hub driver not configured"
	}
	ctx, cancel := context.WithTimeout(context.Background(), hubProbeTimeout)
	defer cancel()
	if err := h.hub.HealthCheck(ctx); err != nil {
		return HealthDegraded, "hub unreachable"
	}

	return HealthHealthy, ""
}

// publishStatus publishes a health status message.
func (h *HealthReporter) publishStatus(status HealthStatus, reason string) error {
	if h.publisher == nil {
		return nil // No publisher configured
	}

	h.pointCountMu.RLock()
	pointCount := h.pointCount
	h.pointCountMu.RUnlock()

	msg := HealthMessage{
		Bridge:        h.bridgeID,
		Timestamp:     time.Now().UTC(),
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		PointsManaged: pointCount,
		Reason:        reason,
	}

	if h.hub != nil {
		stats := h.hub.HubStats()
		// The overall status already encodes the probe result: any reason
		// other than "hub unreachable" means the probe passed or was not
		// run (forced starting/stopping reports).
		hub := &HubStatus{Status: "reachable"}
		if reason == "hub unreachable" || stats.LastSuccess.IsZero() {
			hub.Status = "unreachable"
		}
		if !stats.LastSuccess.IsZero() {
			lastSuccess := stats.LastSuccess
			hub.LastSuccess = &lastSuccess
		}
		msg.Hub = hub
		msg.Statistics = &BridgeStatistics{
			HubRequests: stats.Requests,
			HubFailures: stats.Failures,
		}
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	// QoS 1, retained
	return h.publisher.Publish(HealthTopic(), payload, 1, true)
}

// logError logs an error if a logger is set.
func (h *HealthReporter) logError(msg string, err error) {
	if h.logger != nil {
		h.logger.Error(msg, "error", err)
	}
}
