// Package model defines the typed layer records the join engine operates on:
// point and polygon collections tagged with a coordinate reference, and the
// joined records it produces.
package model

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// Point is a single point record: a stable identity, an x/y coordinate pair
// (x = longitude, y = latitude), and an arbitrary attribute mapping.
type Point struct {
	ID    string
	X     float64
	Y     float64
	Attrs map[string]any
}

// Polygon is a single polygon record. Geometry is held as a go-geom polygon:
// ring 0 is the outer ring, any further rings are holes.
type Polygon struct {
	ID    string
	Geom  *geom.Polygon
	Attrs map[string]any
}

// PointCollection is an ordered set of points sharing one CRS tag.
// Collections are treated as immutable once constructed.
type PointCollection struct {
	CRS    string
	Points []Point
}

// PolygonCollection is an ordered set of polygons sharing one CRS tag.
type PolygonCollection struct {
	CRS      string
	Polygons []Polygon
}

// NewPointCollection builds a point collection, rejecting an empty CRS tag.
// Coordinate finiteness is not enforced here; malformed coordinates surface
// as per-record outcomes during the join rather than rejecting the batch.
func NewPointCollection(crs string, points []Point) (*PointCollection, error) {
	if strings.TrimSpace(crs) == "" {
		return nil, eris.New("model: point collection requires a CRS tag")
	}
	return &PointCollection{CRS: crs, Points: points}, nil
}

// NewPolygonCollection builds a polygon collection, rejecting an empty CRS tag.
func NewPolygonCollection(crs string, polygons []Polygon) (*PolygonCollection, error) {
	if strings.TrimSpace(crs) == "" {
		return nil, eris.New("model: polygon collection requires a CRS tag")
	}
	return &PolygonCollection{CRS: crs, Polygons: polygons}, nil
}

// Outcome classifies a joined record.
type Outcome string

const (
	// OutcomeMatched means the point fell inside exactly one chosen polygon.
	OutcomeMatched Outcome = "matched"
	// OutcomeUnmatched means no polygon contains the point.
	OutcomeUnmatched Outcome = "unmatched"
	// OutcomeInvalid means the point record itself is unusable
	// (non-finite or missing coordinates).
	OutcomeInvalid Outcome = "invalid"
)

// JoinedRecord is the per-point output of a spatial join: the point's
// identity and coordinates, its attributes merged with the containing
// polygon's attributes when matched, and the match outcome.
type JoinedRecord struct {
	PointID   string
	X         float64
	Y         float64
	Outcome   Outcome
	PolygonID string
	Attrs     map[string]any
}

// MergeAttrs returns a new attribute map holding every entry of base plus
// every entry of extra, with extra keys optionally namespaced by prefix.
// Neither input map is modified. On a key collision (empty prefix and the
// same attribute name on both sides) the extra value wins.
func MergeAttrs(base, extra map[string]any, prefix string) map[string]any {
	merged := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[prefix+k] = v
	}
	return merged
}

// CopyAttrs returns a shallow copy of an attribute map. Used for unmatched
// records so outputs never alias input maps.
func CopyAttrs(attrs map[string]any) map[string]any {
	cp := make(map[string]any, len(attrs))
	for k, v := range attrs {
		cp[k] = v
	}
	return cp
}
