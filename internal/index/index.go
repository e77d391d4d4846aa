// Package index provides the coarse candidate filter for the spatial join:
// an R-tree over polygon bounding boxes. A probe returns every polygon
// whose box contains the point, which is a strict superset of the exact
// containment results, so the filter can never cause a false negative.
package index

import (
	"sort"

	"github.com/tidwall/rtree"
)

// Index maps polygon bounding boxes to their position in the source
// collection. It holds indices only, never geometry. Build once per join,
// read-only thereafter; concurrent Candidates calls are safe once Insert
// is done.
type Index struct {
	tree rtree.RTreeG[int]
}

// New creates an empty index.
func New() *Index {
	return &Index{}
}

// Insert registers a polygon's bounding box under its collection position.
func (x *Index) Insert(pos int, minX, minY, maxX, maxY float64) {
	x.tree.Insert([2]float64{minX, minY}, [2]float64{maxX, maxY}, pos)
}

// Candidates returns the collection positions of every polygon whose
// bounding box contains the point, sorted ascending. Sorting makes the
// candidate sequence deterministic for identical inputs regardless of
// tree shape, which keeps join results reproducible.
func (x *Index) Candidates(px, py float64) []int {
	var out []int
	x.tree.Search(
		[2]float64{px, py},
		[2]float64{px, py},
		func(_, _ [2]float64, pos int) bool {
			out = append(out, pos)
			return true
		},
	)
	sort.Ints(out)
	return out
}

// Len returns the number of indexed polygons.
func (x *Index) Len() int {
	return x.tree.Len()
}
