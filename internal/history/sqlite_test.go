package history

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupHistoryTestDB creates an in-memory SQLite database with the
// point_history table, mirroring the 0001 migration.
func setupHistoryTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE point_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			point_name TEXT NOT NULL,
			value TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT 'scrape',
			scrape_id TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
		CREATE INDEX idx_point_history_point ON point_history(point_name, created_at DESC);
		CREATE INDEX idx_point_history_time ON point_history(created_at DESC);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// insertHistoryRow inserts a history row with a specific timestamp.
func insertHistoryRow(t *testing.T, db *sql.DB, pointName, valueJSON, source string, createdAt time.Time) {
	t.Helper()

	_, err := db.Exec(
		"INSERT INTO point_history (point_name, value, source, created_at) VALUES (?, ?, ?, ?)",
		pointName,
		valueJSON,
		source,
		createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		t.Fatalf("failed to insert history row: %v", err)
	}
}

func TestRecordPoint(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	if err := repo.RecordPoint(ctx, "kitchen_light", 1, SourceWrite); err != nil {
		t.Fatalf("RecordPoint() error = %v", err)
	}

	entries, err := repo.GetPointHistory(ctx, "kitchen_light", 10, time.Time{})
	if err != nil {
		t.Fatalf("GetPointHistory() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries length = %d, want 1", len(entries))
	}

	entry := entries[0]
	if entry.PointName != "kitchen_light" {
		t.Errorf("PointName = %q, want kitchen_light", entry.PointName)
	}
	if entry.Source != SourceWrite {
		t.Errorf("Source = %q, want %q", entry.Source, SourceWrite)
	}
	if value, ok := entry.Value.(float64); !ok || value != 1 {
		t.Errorf("Value = %v (%T), want 1 (JSON numbers decode as float64)", entry.Value, entry.Value)
	}
	if entry.ScrapeID != "" {
		t.Errorf("ScrapeID = %q, want empty for a write", entry.ScrapeID)
	}
	if entry.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero, want non-zero")
	}
}

func TestRecordPointStringValue(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	// Binary registers pass "unavailable" through scrapes; history must
	// hold non-numeric values too.
	if err := repo.RecordPoint(ctx, "hallway_fan", "unavailable", SourceScrape); err != nil {
		t.Fatalf("RecordPoint() error = %v", err)
	}

	entries, err := repo.GetPointHistory(ctx, "hallway_fan", 10, time.Time{})
	if err != nil {
		t.Fatalf("GetPointHistory() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Value != "unavailable" {
		t.Errorf("entries = %+v, want one unavailable value", entries)
	}
}

func TestRecordPointRequiresName(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteRepository(db)

	if err := repo.RecordPoint(context.Background(), "", 1, SourceWrite); err == nil {
		t.Error("RecordPoint() with empty name should error")
	}
}

func TestRecordSnapshot(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	values := map[string]any{
		"kitchen_light": 1,
		"hallway_fan":   0,
		"hvac_setpoint": 21.5,
	}
	if err := repo.RecordSnapshot(ctx, "scrape-001", values); err != nil {
		t.Fatalf("RecordSnapshot() error = %v", err)
	}

	for pointName := range values {
		entries, err := repo.GetPointHistory(ctx, pointName, 10, time.Time{})
		if err != nil {
			t.Fatalf("GetPointHistory(%s) error = %v", pointName, err)
		}
		if len(entries) != 1 {
			t.Fatalf("entries for %s = %d, want 1", pointName, len(entries))
		}
		if entries[0].ScrapeID != "scrape-001" {
			t.Errorf("ScrapeID = %q, want scrape-001", entries[0].ScrapeID)
		}
		if entries[0].Source != SourceScrape {
			t.Errorf("Source = %q, want scrape", entries[0].Source)
		}
	}
}

func TestRecordSnapshotEmptyIsNoop(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteRepository(db)

	if err := repo.RecordSnapshot(context.Background(), "scrape-002", nil); err != nil {
		t.Errorf("RecordSnapshot() with no values error = %v, want nil", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM point_history").Scan(&count); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if count != 0 {
		t.Errorf("row count = %d, want 0", count)
	}
}

func TestGetPointHistoryOrderAndLimit(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	insertHistoryRow(t, db, "kitchen_light", "0", SourceScrape, now.Add(-2*time.Hour))
	insertHistoryRow(t, db, "kitchen_light", "1", SourceWrite, now.Add(-1*time.Hour))
	insertHistoryRow(t, db, "kitchen_light", "0", SourceScrape, now)
	insertHistoryRow(t, db, "hallway_fan", "1", SourceScrape, now)

	entries, err := repo.GetPointHistory(ctx, "kitchen_light", 2, time.Time{})
	if err != nil {
		t.Fatalf("GetPointHistory() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries length = %d, want 2", len(entries))
	}
	if !entries[0].CreatedAt.Equal(now) {
		t.Errorf("entry[0] CreatedAt = %s, want %s", entries[0].CreatedAt, now)
	}
	if !entries[1].CreatedAt.Equal(now.Add(-time.Hour)) {
		t.Errorf("entry[1] CreatedAt = %s, want %s", entries[1].CreatedAt, now.Add(-time.Hour))
	}
}

func TestGetPointHistorySince(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	insertHistoryRow(t, db, "kitchen_light", "0", SourceScrape, now.Add(-3*time.Hour))
	insertHistoryRow(t, db, "kitchen_light", "1", SourceScrape, now.Add(-30*time.Minute))

	entries, err := repo.GetPointHistory(ctx, "kitchen_light", 10, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("GetPointHistory() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries length = %d, want 1 (since filter)", len(entries))
	}
	if !entries[0].CreatedAt.Equal(now.Add(-30 * time.Minute)) {
		t.Errorf("CreatedAt = %s, want the recent row", entries[0].CreatedAt)
	}
}

func TestGetPointHistoryLimitClamped(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 250; i++ {
		insertHistoryRow(t, db, "kitchen_light", "1", SourceScrape, now.Add(-time.Duration(i)*time.Minute))
	}

	entries, err := repo.GetPointHistory(ctx, "kitchen_light", 1000, time.Time{})
	if err != nil {
		t.Fatalf("GetPointHistory() error = %v", err)
	}
	if len(entries) != maxHistoryLimit {
		t.Errorf("entries length = %d, want clamp at %d", len(entries), maxHistoryLimit)
	}

	entries, err = repo.GetPointHistory(ctx, "kitchen_light", 0, time.Time{})
	if err != nil {
		t.Fatalf("GetPointHistory() error = %v", err)
	}
	if len(entries) != defaultHistoryLimit {
		t.Errorf("entries length = %d, want default %d", len(entries), defaultHistoryLimit)
	}
}

func TestPrune(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	insertHistoryRow(t, db, "kitchen_light", "1", SourceScrape, now.Add(-40*24*time.Hour))
	insertHistoryRow(t, db, "kitchen_light", "0", SourceScrape, now.Add(-12*time.Hour))

	deleted, err := repo.Prune(ctx, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}

	entries, err := repo.GetPointHistory(ctx, "kitchen_light", 10, time.Time{})
	if err != nil {
		t.Fatalf("GetPointHistory() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries length = %d, want 1", len(entries))
	}
	if !entries[0].CreatedAt.Equal(now.Add(-12 * time.Hour)) {
		t.Errorf("remaining CreatedAt = %s, want the recent row", entries[0].CreatedAt)
	}
}

func TestPruneRejectsNonPositive(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteRepository(db)

	if _, err := repo.Prune(context.Background(), 0); err == nil {
		t.Error("Prune(0) should error")
	}
}
