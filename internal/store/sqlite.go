package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS join_runs (
	id            TEXT PRIMARY KEY,
	manifest      TEXT NOT NULL,
	point_crs     TEXT NOT NULL,
	polygon_crs   TEXT NOT NULL,
	points        INTEGER NOT NULL,
	polygons      INTEGER NOT NULL,
	matched       INTEGER NOT NULL,
	unmatched     INTEGER NOT NULL,
	invalid       INTEGER NOT NULL,
	issues        INTEGER NOT NULL,
	on_unmatched  TEXT NOT NULL,
	prefix        TEXT,
	output_path   TEXT,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	duration_secs REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_join_runs_manifest ON join_runs(manifest);
CREATE INDEX IF NOT EXISTS idx_join_runs_created_at ON join_runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun inserts a completed run. A missing ID or CreatedAt is filled in.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	if run == nil {
		return eris.New("sqlite: nil run")
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO join_runs
			(id, manifest, point_crs, polygon_crs, points, polygons,
			 matched, unmatched, invalid, issues, on_unmatched, prefix,
			 output_path, created_at, duration_secs)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Manifest, run.PointCRS, run.PolygonCRS, run.Points, run.Polygons,
		run.Matched, run.Unmatched, run.Invalid, run.Issues, run.OnUnmatched, run.Prefix,
		run.OutputPath, run.CreatedAt, run.DurationSecs,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert run %s", run.ID)
	}
	return nil
}

// GetRun fetches one run by id. Returns nil, nil when not found.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, manifest, point_crs, polygon_crs, points, polygons,
		        matched, unmatched, invalid, issues, on_unmatched, prefix,
		        output_path, created_at, duration_secs
		 FROM join_runs WHERE id = ?`, runID,
	)

	var r Run
	err := row.Scan(
		&r.ID, &r.Manifest, &r.PointCRS, &r.PolygonCRS, &r.Points, &r.Polygons,
		&r.Matched, &r.Unmatched, &r.Invalid, &r.Issues, &r.OnUnmatched, &r.Prefix,
		&r.OutputPath, &r.CreatedAt, &r.DurationSecs,
	)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return &r, nil
}

// ListRuns returns runs newest-first, optionally filtered by manifest.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT id, manifest, point_crs, polygon_crs, points, polygons,
	                 matched, unmatched, invalid, issues, on_unmatched, prefix,
	                 output_path, created_at, duration_secs
	          FROM join_runs`
	var args []any
	if filter.Manifest != "" {
		query += ` WHERE manifest = ?`
		args = append(args, filter.Manifest)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(
			&r.ID, &r.Manifest, &r.PointCRS, &r.PolygonCRS, &r.Points, &r.Polygons,
			&r.Matched, &r.Unmatched, &r.Invalid, &r.Issues, &r.OnUnmatched, &r.Prefix,
			&r.OutputPath, &r.CreatedAt, &r.DurationSecs,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate runs")
	}
	return runs, nil
}
