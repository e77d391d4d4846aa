// Package store persists join run summaries so past runs can be listed and
// audited without rerunning the join.
package store

import (
	"context"
	"time"
)

// Run summarizes one completed spatial join.
type Run struct {
	ID           string    `json:"id"`
	Manifest     string    `json:"manifest"`
	PointCRS     string    `json:"point_crs"`
	PolygonCRS   string    `json:"polygon_crs"`
	Points       int       `json:"points"`
	Polygons     int       `json:"polygons"`
	Matched      int       `json:"matched"`
	Unmatched    int       `json:"unmatched"`
	Invalid      int       `json:"invalid"`
	Issues       int       `json:"issues"`
	OnUnmatched  string    `json:"on_unmatched"`
	Prefix       string    `json:"prefix,omitempty"`
	OutputPath   string    `json:"output_path,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	DurationSecs float64   `json:"duration_secs"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Manifest string
	Limit    int
}

// Store defines the persistence interface for join runs.
type Store interface {
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)

	Migrate(ctx context.Context) error
	Close() error
}
