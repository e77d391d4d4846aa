package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func TestNewPointCollection(t *testing.T) {
	pts := []Point{{ID: "1", X: -84.37, Y: 33.93}}

	pc, err := NewPointCollection("EPSG:4326", pts)
	require.NoError(t, err)
	assert.Equal(t, "EPSG:4326", pc.CRS)
	assert.Len(t, pc.Points, 1)
}

func TestNewPointCollection_EmptyCRS(t *testing.T) {
	tests := []struct {
		name string
		crs  string
	}{
		{name: "empty string", crs: ""},
		{name: "whitespace only", crs: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPointCollection(tt.crs, nil)
			assert.Error(t, err)
		})
	}
}

func TestNewPolygonCollection_EmptyCRS(t *testing.T) {
	_, err := NewPolygonCollection("", nil)
	assert.Error(t, err)
}

func TestNewPolygonCollection_EmptyCollectionAllowed(t *testing.T) {
	// An empty polygon layer is valid input; every point simply resolves
	// unmatched during the join.
	gc, err := NewPolygonCollection("EPSG:4326", nil)
	require.NoError(t, err)
	assert.Empty(t, gc.Polygons)
}

func TestMergeAttrs(t *testing.T) {
	tests := []struct {
		name     string
		base     map[string]any
		extra    map[string]any
		prefix   string
		expected map[string]any
	}{
		{
			name:     "disjoint keys, no prefix",
			base:     map[string]any{"species": "quercus"},
			extra:    map[string]any{"huc": "A"},
			prefix:   "",
			expected: map[string]any{"species": "quercus", "huc": "A"},
		},
		{
			name:     "prefix namespaces extra keys",
			base:     map[string]any{"name": "site-1"},
			extra:    map[string]any{"name": "HUC-A"},
			prefix:   "basin_",
			expected: map[string]any{"name": "site-1", "basin_name": "HUC-A"},
		},
		{
			name:     "collision without prefix, extra wins",
			base:     map[string]any{"name": "site-1"},
			extra:    map[string]any{"name": "HUC-A"},
			prefix:   "",
			expected: map[string]any{"name": "HUC-A"},
		},
		{
			name:     "nil extra",
			base:     map[string]any{"elev": 312.5},
			extra:    nil,
			prefix:   "p_",
			expected: map[string]any{"elev": 312.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeAttrs(tt.base, tt.extra, tt.prefix)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestMergeAttrs_DoesNotMutateInputs(t *testing.T) {
	base := map[string]any{"a": 1}
	extra := map[string]any{"b": 2}

	merged := MergeAttrs(base, extra, "")
	merged["c"] = 3

	assert.Equal(t, map[string]any{"a": 1}, base)
	assert.Equal(t, map[string]any{"b": 2}, extra)
}

func TestCopyAttrs(t *testing.T) {
	orig := map[string]any{"a": 1}
	cp := CopyAttrs(orig)
	cp["b"] = 2

	assert.Equal(t, map[string]any{"a": 1}, orig)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, cp)
}

func TestPolygonHoldsGeometry(t *testing.T) {
	ring := geom.NewLinearRingFlat(geom.XY, []float64{-85, 34, -85, 33, -84, 33, -84, 34, -85, 34})
	poly := geom.NewPolygon(geom.XY)
	require.NoError(t, poly.Push(ring))

	p := Polygon{ID: "A", Geom: poly, Attrs: map[string]any{"name": "HUC-A"}}
	assert.Equal(t, 1, p.Geom.NumLinearRings())
}
