// Package history persists dated star-count snapshots in SQLite so the
// velocity pipeline can compare today's counts against a point in the
// past. One row per (snapshot date, repo).
package history

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/foldscape/foldscape/internal/catalog"
	"github.com/foldscape/foldscape/internal/types"
)

const dateLayout = "2006-01-02"

// Store wraps the snapshot database.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the snapshot database under dataDir.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "history.db")
	connStr := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run history migrations: %w", err)
	}

	slog.Info("History database initialized", "path", dbPath)
	return s, nil
}

func (s *Store) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS star_snapshots (
			id TEXT PRIMARY KEY,
			snapshot_date DATE NOT NULL,
			repo_id TEXT NOT NULL,
			stars INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			UNIQUE(snapshot_date, repo_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_star_snapshots_date ON star_snapshots(snapshot_date)`,
		`CREATE INDEX IF NOT EXISTS idx_star_snapshots_repo ON star_snapshots(repo_id)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}
	return nil
}

// RecordSnapshot stores today's star counts for the whole collection.
// Re-running on the same date overwrites that date's rows.
func (s *Store) RecordSnapshot(date time.Time, records []types.Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO star_snapshots (id, snapshot_date, repo_id, stars, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(snapshot_date, repo_id) DO UPDATE SET
			stars = excluded.stars,
			created_at = excluded.created_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	day := date.Format(dateLayout)
	now := time.Now()

	for _, r := range records {
		v := catalog.Normalize(r)
		if _, err := stmt.Exec(uuid.New().String(), day, v.ID, v.Stars, now); err != nil {
			return fmt.Errorf("failed to insert snapshot row for %s: %w", v.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	slog.Info("Star snapshot recorded", "date", day, "repos", len(records))
	return nil
}

// StarsAsOf returns star counts from daysBack days before now. If no
// snapshot exists for that exact date it falls back to the oldest
// available snapshot; with no snapshots at all it returns ok=false.
func (s *Store) StarsAsOf(now time.Time, daysBack int) (map[string]int, bool, error) {
	target := now.AddDate(0, 0, -daysBack).Format(dateLayout)

	day, ok, err := s.resolveSnapshotDate(target)
	if err != nil || !ok {
		return nil, false, err
	}

	rows, err := s.db.Query(`SELECT repo_id, stars FROM star_snapshots WHERE snapshot_date = ?`, day)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query snapshot %s: %w", day, err)
	}
	defer rows.Close()

	stars := make(map[string]int)
	for rows.Next() {
		var repoID string
		var count int
		if err := rows.Scan(&repoID, &count); err != nil {
			return nil, false, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		stars[repoID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to read snapshot rows: %w", err)
	}

	return stars, true, nil
}

// resolveSnapshotDate picks the stored date to read: the target if
// present, otherwise the oldest one available.
func (s *Store) resolveSnapshotDate(target string) (string, bool, error) {
	var exists int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM star_snapshots WHERE snapshot_date = ?`, target).Scan(&exists)
	if err != nil {
		return "", false, fmt.Errorf("failed to check snapshot date: %w", err)
	}
	if exists > 0 {
		return target, true, nil
	}

	var oldest sql.NullString
	err = s.db.QueryRow(`SELECT MIN(snapshot_date) FROM star_snapshots`).Scan(&oldest)
	if err != nil {
		return "", false, fmt.Errorf("failed to find oldest snapshot: %w", err)
	}
	if !oldest.Valid {
		return "", false, nil
	}

	slog.Info("Using oldest available snapshot", "wanted", target, "using", oldest.String)
	return oldest.String, true, nil
}

// SnapshotDates lists stored snapshot dates, newest first.
func (s *Store) SnapshotDates() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT snapshot_date FROM star_snapshots ORDER BY snapshot_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		// The DATE decltype makes the driver hand back time.Time values
		// even though rows are inserted as formatted strings.
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot date: %w", err)
		}
		dates = append(dates, d.Format(dateLayout))
	}
	return dates, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
