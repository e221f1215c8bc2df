package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"gallerydiff/logging"
	"gallerydiff/types"
)

// ErrRunNotFound is returned when a run id is not in the database
var ErrRunNotFound = errors.New("run not found")

// Fixed-width so stored timestamps sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// InitDatabase initializes and returns a database connection
func InitDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Create tables if they don't exist
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		reference_folder TEXT NOT NULL,
		target_folder TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS changes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		resolution TEXT NOT NULL,
		reference TEXT,
		target TEXT,
		distance REAL,
		solved_by TEXT,
		UNIQUE(run_id, position)
	);
	CREATE INDEX IF NOT EXISTS idx_changes_run ON changes(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);`

	if _, err = db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, err
	}

	// Check if config column exists, add it if it doesn't
	var hasConfigColumn bool
	err = db.QueryRow("SELECT COUNT(*) FROM pragma_table_info('runs') WHERE name='config'").Scan(&hasConfigColumn)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error checking for config column: %w", err)
	}

	if !hasConfigColumn {
		if _, err = db.Exec("ALTER TABLE runs ADD COLUMN config TEXT;"); err != nil {
			db.Close()
			return nil, fmt.Errorf("error adding config column: %w", err)
		}
		logging.DebugLog("Added 'config' column to existing database schema")
	}

	return db, nil
}

// OpenDatabase opens an existing database connection. A missing file is an error
// rather than a new empty database.
func OpenDatabase(dbPath string) (*sql.DB, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("cannot open database %s: %w", dbPath, err)
	}
	return sql.Open("sqlite3", dbPath)
}

// RunInfo describes one stored matching run
type RunInfo struct {
	ID              string
	ReferenceFolder string
	TargetFolder    string
	CreatedAt       time.Time
	// Config is the effective configuration rendered as TOML
	Config string
}

// StoreRun stores a run and its changelist in a single transaction. An empty run id
// is replaced by a fresh UUID; the stored id is returned.
func StoreRun(ctx context.Context, db *sql.DB, run RunInfo, changelist types.Changelist) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO runs (id, reference_folder, target_folder, created_at, config) VALUES (?, ?, ?, ?, ?)",
		run.ID, run.ReferenceFolder, run.TargetFolder, run.CreatedAt.UTC().Format(timeLayout), run.Config)
	if err != nil {
		return "", fmt.Errorf("cannot insert run %s: %w", run.ID, err)
	}

	// Prepare statement to avoid SQL injection
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO changes (
			run_id, position, resolution, reference, target, distance, solved_by
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("cannot prepare statement for run %s: %w", run.ID, err)
	}
	defer stmt.Close()

	for i, entry := range changelist {
		_, err := stmt.ExecContext(ctx,
			run.ID, i, string(entry.Resolution), entry.Reference, entry.Target, entry.Distance, entry.SolvedBy)
		if err != nil {
			return "", fmt.Errorf("cannot insert entry %d of run %s: %w", i, run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run %s: %w", run.ID, err)
	}
	logging.DebugLog("Stored run %s with %d entries", run.ID, len(changelist))
	return run.ID, nil
}

// GetRun retrieves a run's metadata
func GetRun(ctx context.Context, db *sql.DB, runID string) (*RunInfo, error) {
	var run RunInfo
	var createdAt string
	var config sql.NullString
	err := db.QueryRowContext(ctx,
		"SELECT id, reference_folder, target_folder, created_at, config FROM runs WHERE id = ?", runID).
		Scan(&run.ID, &run.ReferenceFolder, &run.TargetFolder, &createdAt, &config)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("database error for run %s: %w", runID, err)
	}

	if run.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("cannot parse stored time for run %s: %w", runID, err)
	}
	run.Config = config.String
	return &run, nil
}

// LoadChangelist retrieves a stored changelist in its original order
func LoadChangelist(ctx context.Context, db *sql.DB, runID string) (types.Changelist, error) {
	if _, err := GetRun(ctx, db, runID); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT resolution, reference, target, distance, solved_by
		FROM changes WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query changes of run %s: %w", runID, err)
	}
	defer rows.Close()

	changelist := types.Changelist{}
	for rows.Next() {
		var entry types.ChangelistEntry
		var resolution string
		var reference, target, solvedBy sql.NullString
		var distance sql.NullFloat64
		if err := rows.Scan(&resolution, &reference, &target, &distance, &solvedBy); err != nil {
			return nil, fmt.Errorf("failed to read change of run %s: %w", runID, err)
		}
		entry.Resolution = types.Resolution(resolution)
		entry.Reference = reference.String
		entry.Target = target.String
		entry.Distance = distance.Float64
		entry.SolvedBy = solvedBy.String
		changelist = append(changelist, entry)
	}
	return changelist, rows.Err()
}

// RunStats contains per-resolution counts of a stored run
type RunStats struct {
	Run    RunInfo
	Counts map[types.Resolution]int
	Total  int
}

// ListRuns retrieves every stored run, newest first, with its resolution counts
func ListRuns(ctx context.Context, db *sql.DB) ([]RunStats, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT r.id, r.reference_folder, r.target_folder, r.created_at, c.resolution, COUNT(c.id)
		FROM runs r LEFT JOIN changes c ON c.run_id = r.id
		GROUP BY r.id, c.resolution
		ORDER BY r.created_at DESC, r.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var stats []RunStats
	index := map[string]int{}
	for rows.Next() {
		var run RunInfo
		var createdAt string
		var resolution sql.NullString
		var count int
		if err := rows.Scan(&run.ID, &run.ReferenceFolder, &run.TargetFolder, &createdAt, &resolution, &count); err != nil {
			return nil, fmt.Errorf("failed to read run: %w", err)
		}

		i, seen := index[run.ID]
		if !seen {
			if run.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
				return nil, fmt.Errorf("cannot parse stored time for run %s: %w", run.ID, err)
			}
			i = len(stats)
			index[run.ID] = i
			stats = append(stats, RunStats{Run: run, Counts: map[types.Resolution]int{}})
		}
		if resolution.Valid {
			stats[i].Counts[types.Resolution(resolution.String)] = count
			stats[i].Total += count
		}
	}
	return stats, rows.Err()
}
