package history

import (
	"context"
	"time"
)

// Point history source values.
const (
	// SourceScrape marks rows recorded by the polling loop.
	SourceScrape = "scrape"

	// SourceWrite marks rows recorded by MQTT command writes.
	SourceWrite = "write"

	// SourceAPI marks rows recorded by REST API writes.
	SourceAPI = "api"
)

// Entry is a single recorded point value.
//
// Values are stored as JSON, so numeric values come back as float64
// regardless of the register's declared type.
type Entry struct {
	// ID is the auto-incremented primary key for the history row.
	ID int64 `json:"id"`

	// PointName is the point the value belongs to.
	PointName string `json:"point_name"`

	// Value is the recorded point value.
	Value any `json:"value"`

	// Source identifies how the value was recorded (scrape, write, api).
	Source string `json:"source"`

	// ScrapeID groups rows written by one scrape pass. Empty for writes.
	ScrapeID string `json:"scrape_id,omitempty"`

	// CreatedAt is the timestamp of the record (UTC).
	CreatedAt time.Time `json:"created_at"`
}

// Repository stores and retrieves point value history.
//
// Implementations must be thread-safe and use UTC timestamps.
type Repository interface {
	// RecordPoint records a single point value.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - pointName: Point the value belongs to
	//   - value: Point value to persist (JSON-encodable)
	//   - source: Origin of the record (scrape, write, api)
	//
	// Returns:
	//   - error: nil on success, otherwise the underlying persistence error
	RecordPoint(ctx context.Context, pointName string, value any, source string) error

	// RecordSnapshot records the values from one scrape pass in a single
	// transaction, all sharing the given scrape id.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - scrapeID: Identifier grouping the rows (one per scrape pass)
	//   - values: Translated values keyed by point name
	//
	// Returns:
	//   - error: nil on success, otherwise the underlying persistence error
	RecordSnapshot(ctx context.Context, scrapeID string, values map[string]any) error

	// GetPointHistory returns recent history for a point, newest first.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - pointName: Point to query
	//   - limit: Maximum entries to return (implementation may clamp bounds)
	//   - since: When non-zero, only entries at or after this time
	//
	// Returns:
	//   - []Entry: Ordered newest-first history entries (may be empty)
	//   - error: nil on success, otherwise the underlying query error
	GetPointHistory(ctx context.Context, pointName string, limit int, since time.Time) ([]Entry, error)

	// Prune deletes entries older than the given duration.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - olderThan: Retention window; entries older than now-olderThan go
	//
	// Returns:
	//   - int64: Number of rows deleted
	//   - error: nil on success, otherwise the underlying database error
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}
