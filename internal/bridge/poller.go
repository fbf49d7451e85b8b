package bridge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-hass/internal/history"
)

// Poller constants.
const (
	// scrapeTimeout bounds a full scrape pass. Passes are sequential hub
	// requests, so large registries need headroom beyond one request timeout.
	scrapeTimeout = 2 * time.Minute

	// pruneInterval is how often expired history rows are removed.
	pruneInterval = 24 * time.Hour

	// pruneTimeout bounds a single prune statement.
	pruneTimeout = time.Minute
)

// pollLoop scrapes every configured point on the scrape interval.
// An immediate first pass runs on start so retained state topics and the
// catalog's last values populate without waiting a full interval.
func (b *Bridge) pollLoop() {
	defer b.wg.Done()

	b.runScrape()

	ticker := time.NewTicker(b.scrapeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			b.runScrape()
		}
	}
}

// runScrape executes one scrape pass: read all points through the driver,
// publish the snapshot and changed point states, record history, and ship
// telemetry.
func (b *Bridge) runScrape() {
	ctx, cancel := context.WithTimeout(b.ctx, scrapeTimeout)
	defer cancel()

	start := time.Now()
	values, err := b.driver.ScrapeAll(ctx)
	duration := time.Since(start)

	b.scrapePasses.Add(1)
	if err != nil {
		// Wholesale failure (cancelled pass or unconfigured driver).
		// Per-register failures are logged by the driver and show up only
		// as omissions in the map.
		b.scrapeFailures.Add(1)
		b.logError("scrape pass failed", err)
		return
	}

	failures := b.driver.PointCount() - len(values)
	if failures < 0 {
		failures = 0
	}
	b.lastScrapeSize.Store(int64(len(values)))

	scrapeID := uuid.NewString()
	b.publishSnapshot(scrapeID, values, failures, duration)
	for point, value := range values {
		b.publishPointState(point, value, history.SourceScrape)
	}
	b.recordSnapshot(scrapeID, values)
	b.shipScrape(values, failures, duration)

	b.logDebug("scrape pass complete",
		"scrape_id", scrapeID,
		"points", len(values),
		"failures", failures,
		"duration_ms", duration.Milliseconds())
}

// publishSnapshot publishes the retained snapshot for one scrape pass.
func (b *Bridge) publishSnapshot(scrapeID string, values map[string]any, failures int, duration time.Duration) {
	if b.mqtt == nil {
		return
	}

	msg := NewSnapshotMessage(scrapeID, values, failures, duration)

	payload, err := json.Marshal(msg)
	if err != nil {
		b.logError("failed to marshal snapshot", err)
		return
	}

	if err := b.mqtt.Publish(SnapshotTopic(), payload, 1, true); err != nil {
		b.logError("failed to publish snapshot", err)
	}
}

// recordSnapshot writes the full pass to the history trail in one
// transaction.
func (b *Bridge) recordSnapshot(scrapeID string, values map[string]any) {
	if b.history == nil || len(values) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(b.ctx, historyTimeout)
	defer cancel()

	if err := b.history.RecordSnapshot(ctx, scrapeID, values); err != nil {
		b.logError("failed to record snapshot history", err)
	}
}

// shipScrape forwards numeric point values and pass statistics to telemetry.
func (b *Bridge) shipScrape(values map[string]any, failures int, duration time.Duration) {
	if b.telemetry == nil {
		return
	}

	for point, value := range values {
		b.shipPointValue(point, value)
	}
	b.telemetry.WriteScrapeStats(len(values), failures, duration)
}

// pruneLoop removes history rows older than the retention window, once at
// start and then daily.
func (b *Bridge) pruneLoop() {
	defer b.wg.Done()

	b.runPrune()

	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			b.runPrune()
		}
	}
}

// runPrune executes one history prune pass.
func (b *Bridge) runPrune() {
	ctx, cancel := context.WithTimeout(b.ctx, pruneTimeout)
	defer cancel()

	deleted, err := b.history.Prune(ctx, b.historyRetention)
	if err != nil {
		b.logError("history prune failed", err)
		return
	}
	if deleted > 0 {
		b.logInfo("history pruned",
			"deleted", deleted,
			"retention", b.historyRetention.String())
	}
}
