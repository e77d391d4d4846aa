// Package geometry provides the planar containment primitives behind the
// spatial join: ray-casting point-in-ring tests, even-odd polygon interior
// tests, and bounding box helpers.
//
// Boundary policy: a point lying exactly on any ring edge or vertex is
// treated as inside the polygon. Ray casting alone is ambiguous on
// boundaries, so an explicit on-segment test runs first and takes
// precedence over the even-odd count. This keeps boundary results
// deterministic across runs.
package geometry

import (
	"math"

	"github.com/twpayne/go-geom"
)

// BBox is an axis-aligned bounding box in layer coordinates.
type BBox struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Contains reports whether the point lies within the box, edges inclusive.
func (b BBox) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// Area returns the box area. Degenerate boxes (zero width or height) have
// area zero, which still orders correctly under the smallest-area tie-break.
func (b BBox) Area() float64 {
	return (b.MaxX - b.MinX) * (b.MaxY - b.MinY)
}

// PolygonBBox computes the bounding box over all rings of a polygon.
func PolygonBBox(p *geom.Polygon) BBox {
	bounds := p.Bounds()
	return BBox{
		MinX: bounds.Min(0),
		MinY: bounds.Min(1),
		MaxX: bounds.Max(0),
		MaxY: bounds.Max(1),
	}
}

// Finite reports whether both coordinates are finite numbers.
func Finite(x, y float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0) && !math.IsNaN(y) && !math.IsInf(y, 0)
}

// Degenerate reports whether a polygon is unusable for containment tests:
// no rings at all, or an outer ring with fewer than four distinct vertices.
// Degenerate polygons never match; they are a data-quality defect, not a
// crash condition.
func Degenerate(p *geom.Polygon) bool {
	if p == nil || p.NumLinearRings() == 0 {
		return true
	}
	return distinctVertices(p.LinearRing(0).FlatCoords()) < 4
}

// distinctVertices counts unique coordinate pairs in a flat XY ring.
func distinctVertices(flat []float64) int {
	seen := make(map[[2]float64]struct{}, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		seen[[2]float64{flat[i], flat[i+1]}] = struct{}{}
	}
	return len(seen)
}

// PointInRing runs the even-odd ray-casting test for a point against one
// ring, given as flat XY coordinates. Points exactly on a ring edge or
// vertex report true. The ring is treated as implicitly closed, so it works
// whether or not the closing vertex repeats the first.
func PointInRing(x, y float64, flat []float64) bool {
	n := len(flat) / 2
	if n < 3 {
		return false
	}
	if OnRing(x, y, flat) {
		return true
	}
	return crossesOdd(x, y, flat)
}

// crossesOdd is the raw crossing-number test, with no boundary handling.
func crossesOdd(x, y float64, flat []float64) bool {
	n := len(flat) / 2
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := flat[2*i], flat[2*i+1]
		xj, yj := flat[2*j], flat[2*j+1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// OnRing reports whether the point lies exactly on any edge or vertex of
// the ring.
func OnRing(x, y float64, flat []float64) bool {
	n := len(flat) / 2
	if n < 2 {
		return false
	}
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		if onSegment(x, y, flat[2*j], flat[2*j+1], flat[2*i], flat[2*i+1]) {
			return true
		}
	}
	return false
}

// onSegment reports whether (x, y) lies on the closed segment from
// (x1, y1) to (x2, y2). Collinearity is tested with an exact cross product
// so the result is deterministic for repeated inputs.
func onSegment(x, y, x1, y1, x2, y2 float64) bool {
	cross := (x2-x1)*(y-y1) - (y2-y1)*(x-x1)
	if cross != 0 {
		return false
	}
	return x >= math.Min(x1, x2) && x <= math.Max(x1, x2) &&
		y >= math.Min(y1, y2) && y <= math.Max(y1, y2)
}

// PointInPolygon reports whether a point is interior to a polygon under the
// even-odd rule applied across all rings: the point is interior when it
// falls inside an odd number of rings, counting the outer ring and hole
// rings alike. A point on any ring boundary is inside. Degenerate polygons
// always report false.
func PointInPolygon(x, y float64, p *geom.Polygon) bool {
	if Degenerate(p) {
		return false
	}

	crossings := 0
	for i := 0; i < p.NumLinearRings(); i++ {
		flat := p.LinearRing(i).FlatCoords()
		if OnRing(x, y, flat) {
			return true
		}
		if crossesOdd(x, y, flat) {
			crossings++
		}
	}
	return crossings%2 == 1
}
