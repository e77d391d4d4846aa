// Package join implements the CRS-aware point-in-polygon spatial join: for
// every point in a collection it finds the containing polygon, if any, and
// merges that polygon's attributes into the point's record.
package join

import (
	"context"
	"runtime"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fieldlab/geojoin/internal/crs"
	"github.com/fieldlab/geojoin/internal/geometry"
	"github.com/fieldlab/geojoin/internal/index"
	"github.com/fieldlab/geojoin/internal/model"
)

// Unmatched-point handling modes.
const (
	// UnmatchedNull emits unmatched points with their original attributes
	// and no polygon fields.
	UnmatchedNull = "null"
	// UnmatchedDrop excludes unmatched (and invalid) points from the output.
	UnmatchedDrop = "drop"
)

// Options configures a join call.
type Options struct {
	// Prefix namespaces merged polygon attribute keys to avoid collision
	// with point attribute keys. Empty means no namespacing.
	Prefix string
	// OnUnmatched is UnmatchedNull (default) or UnmatchedDrop.
	OnUnmatched string
	// Workers sets the number of parallel probe workers. Zero or negative
	// means one worker per CPU; 1 forces a sequential join.
	Workers int
}

// IssueKind classifies a per-record data-quality problem.
type IssueKind string

const (
	// IssueInvalidGeometry marks a degenerate polygon skipped from the index.
	IssueInvalidGeometry IssueKind = "invalid_geometry"
	// IssueInvalidPoint marks a point with non-finite coordinates.
	IssueInvalidPoint IssueKind = "invalid_point"
)

// Issue records one data-quality problem encountered during a join. Issues
// never abort the batch; they are accumulated and returned with the output
// so callers can report them without losing the rest of the records.
type Issue struct {
	Kind     IssueKind
	RecordID string
	Detail   string
}

// Result is the output of one join call.
type Result struct {
	// Records holds one JoinedRecord per input point, in input order.
	// Under UnmatchedDrop only matched points appear, still in input order.
	Records []model.JoinedRecord
	// Issues lists polygon-build then point problems, in input order.
	Issues []Issue
	// Matched, Unmatched and Invalid count point outcomes before any drop
	// filtering, so the three always sum to the input point count.
	Matched   int
	Unmatched int
	Invalid   int
}

// Join performs the spatial join. The CRS guard runs first and a mismatch
// aborts the whole call; after that no error path remains, only per-record
// issues. Inputs are never mutated.
func Join(ctx context.Context, points *model.PointCollection, polygons *model.PolygonCollection, opts Options) (*Result, error) {
	if points == nil || polygons == nil {
		return nil, eris.New("join: nil input collection")
	}
	switch opts.OnUnmatched {
	case "", UnmatchedNull, UnmatchedDrop:
	default:
		return nil, eris.Errorf("join: unknown on_unmatched mode %q", opts.OnUnmatched)
	}

	if err := crs.AssertCompatible(points.CRS, polygons.CRS); err != nil {
		return nil, err
	}

	log := zap.L().With(zap.String("component", "join"))

	res := &Result{}
	idx, areas := buildIndex(polygons, res, log)

	probe := prober{
		points:   points,
		polygons: polygons,
		idx:      idx,
		areas:    areas,
		prefix:   opts.Prefix,
	}

	records := make([]model.JoinedRecord, len(points.Points))
	if err := probe.run(ctx, records, workerCount(opts.Workers, len(points.Points))); err != nil {
		return nil, err
	}

	for i := range records {
		switch records[i].Outcome {
		case model.OutcomeMatched:
			res.Matched++
		case model.OutcomeUnmatched:
			res.Unmatched++
		case model.OutcomeInvalid:
			res.Invalid++
			res.Issues = append(res.Issues, Issue{
				Kind:     IssueInvalidPoint,
				RecordID: records[i].PointID,
				Detail:   "non-finite coordinate",
			})
		}
	}

	if opts.OnUnmatched == UnmatchedDrop {
		kept := records[:0:0]
		for _, r := range records {
			if r.Outcome == model.OutcomeMatched {
				kept = append(kept, r)
			}
		}
		records = kept
	}
	res.Records = records

	log.Info("spatial join complete",
		zap.Int("points", len(points.Points)),
		zap.Int("polygons", len(polygons.Polygons)),
		zap.Int("matched", res.Matched),
		zap.Int("unmatched", res.Unmatched),
		zap.Int("invalid", res.Invalid),
		zap.Int("issues", len(res.Issues)),
	)
	return res, nil
}

// buildIndex indexes every usable polygon's bounding box and precomputes
// box areas for the tie-break. Degenerate polygons are skipped with an
// accumulated issue.
func buildIndex(polygons *model.PolygonCollection, res *Result, log *zap.Logger) (*index.Index, []float64) {
	idx := index.New()
	areas := make([]float64, len(polygons.Polygons))

	for i := range polygons.Polygons {
		poly := &polygons.Polygons[i]
		if geometry.Degenerate(poly.Geom) {
			res.Issues = append(res.Issues, Issue{
				Kind:     IssueInvalidGeometry,
				RecordID: poly.ID,
				Detail:   "degenerate polygon skipped from index",
			})
			log.Warn("skipping degenerate polygon", zap.String("polygon_id", poly.ID))
			continue
		}
		b := geometry.PolygonBBox(poly.Geom)
		areas[i] = b.Area()
		idx.Insert(i, b.MinX, b.MinY, b.MaxX, b.MaxY)
	}
	return idx, areas
}

// prober holds the shared read-only state for point probes.
type prober struct {
	points   *model.PointCollection
	polygons *model.PolygonCollection
	idx      *index.Index
	areas    []float64
	prefix   string
}

// run fills out with one record per point. Workers operate on disjoint
// ranges of the pre-sized output slice, so no locking is needed.
func (p prober) run(ctx context.Context, out []model.JoinedRecord, workers int) error {
	n := len(out)
	if n == 0 {
		return nil
	}
	if workers <= 1 {
		for i := range p.points.Points {
			if err := ctx.Err(); err != nil {
				return eris.Wrap(err, "join: cancelled")
			}
			out[i] = p.probeOne(i)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	chunk := (n + workers - 1) / workers
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return eris.Wrap(err, "join: cancelled")
				}
				out[i] = p.probeOne(i)
			}
			return nil
		})
	}
	return g.Wait()
}

// probeOne resolves a single point: candidate lookup, exact containment,
// tie-break, attribute merge.
func (p prober) probeOne(i int) model.JoinedRecord {
	pt := &p.points.Points[i]
	rec := model.JoinedRecord{PointID: pt.ID, X: pt.X, Y: pt.Y}

	if !geometry.Finite(pt.X, pt.Y) {
		rec.Outcome = model.OutcomeInvalid
		rec.Attrs = model.CopyAttrs(pt.Attrs)
		return rec
	}

	// Among all polygons that truly contain the point, the smallest
	// bounding-box area wins; equal areas fall back to the lowest
	// collection position. Candidates arrive sorted by position, so a
	// strict area comparison implements both halves of the policy.
	best := -1
	for _, ci := range p.idx.Candidates(pt.X, pt.Y) {
		if !geometry.PointInPolygon(pt.X, pt.Y, p.polygons.Polygons[ci].Geom) {
			continue
		}
		if best == -1 || p.areas[ci] < p.areas[best] {
			best = ci
		}
	}

	if best == -1 {
		rec.Outcome = model.OutcomeUnmatched
		rec.Attrs = model.CopyAttrs(pt.Attrs)
		return rec
	}

	match := &p.polygons.Polygons[best]
	rec.Outcome = model.OutcomeMatched
	rec.PolygonID = match.ID
	rec.Attrs = model.MergeAttrs(pt.Attrs, match.Attrs, p.prefix)
	return rec
}

// workerCount resolves the Workers option against the point count.
func workerCount(requested, points int) int {
	w := requested
	if w <= 0 {
		w = runtime.NumCPU()
	}
	if w > points {
		w = points
	}
	if w < 1 {
		w = 1
	}
	return w
}
