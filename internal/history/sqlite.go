package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// SQLiteRepository implements Repository using SQLite.
//
// Values are stored as JSON in the point_history table, created by the
// 0001_point_history migration.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite point history repository.
//
// Parameters:
//   - db: Open SQLite connection used for queries
//
// Returns:
//   - *SQLiteRepository: Repository instance ready for use
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// RecordPoint inserts a single point history row.
func (r *SQLiteRepository) RecordPoint(ctx context.Context, pointName string, value any, source string) error {
	if pointName == "" {
		return fmt.Errorf("point name is required")
	}
	if source == "" {
		source = SourceScrape
	}

	valueJSON, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshalling value: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO point_history (point_name, value, source) VALUES (?, ?, ?)",
		pointName,
		string(valueJSON),
		source,
	)
	if err != nil {
		return fmt.Errorf("inserting point history: %w", err)
	}

	return nil
}

// RecordSnapshot inserts one row per scraped point inside a single
// transaction, so a snapshot is either fully recorded or absent.
func (r *SQLiteRepository) RecordSnapshot(ctx context.Context, scrapeID string, values map[string]any) error {
	if scrapeID == "" {
		return fmt.Errorf("scrape id is required")
	}
	if len(values) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting snapshot transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO point_history (point_name, value, source, scrape_id) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing snapshot insert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck // Statement closes with the tx anyway

	for pointName, value := range values {
		valueJSON, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshalling value for %s: %w", pointName, err)
		}
		if _, err := stmt.ExecContext(ctx, pointName, string(valueJSON), SourceScrape, scrapeID); err != nil {
			return fmt.Errorf("inserting snapshot row for %s: %w", pointName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}

	return nil
}

// GetPointHistory returns recent history entries for a point, ordered
// newest first. The limit defaults to 50 and is capped at 200. A
// non-zero since narrows to entries at or after that time.
func (r *SQLiteRepository) GetPointHistory(ctx context.Context, pointName string, limit int, since time.Time) ([]Entry, error) {
	if pointName == "" {
		return nil, fmt.Errorf("point name is required")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	query := `SELECT id, point_name, value, source, scrape_id, created_at
		 FROM point_history
		 WHERE point_name = ?`
	args := []any{pointName}
	if !since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, since.UTC().Format(time.RFC3339))
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying point history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var entry Entry
		var valueJSON string
		var scrapeID sql.NullString
		var createdAt string

		if err := rows.Scan(&entry.ID, &entry.PointName, &valueJSON, &entry.Source, &scrapeID, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning point history: %w", err)
		}

		if err := json.Unmarshal([]byte(valueJSON), &entry.Value); err != nil {
			return nil, fmt.Errorf("unmarshalling value: %w", err)
		}
		entry.ScrapeID = scrapeID.String

		timestamp, err := parseHistoryTimestamp(createdAt)
		if err != nil {
			return nil, err
		}
		entry.CreatedAt = timestamp

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating point history: %w", err)
	}

	return entries, nil
}

// Prune deletes history entries older than the given duration.
func (r *SQLiteRepository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM point_history WHERE created_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting point history: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	return rowsAffected, nil
}

// parseHistoryTimestamp parses a timestamp stored in SQLite.
func parseHistoryTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("created_at is empty")
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return timestamp, nil
	}

	fallback, fallbackErr := time.Parse("2006-01-02T15:04:05Z", value)
	if fallbackErr == nil {
		return fallback, nil
	}

	return time.Time{}, fmt.Errorf("parsing created_at: %w", err)
}
