//go:build !integration

package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/fieldlab/geojoin/internal/geometry"
	"github.com/fieldlab/geojoin/internal/model"
)

func TestPointExtent(t *testing.T) {
	pc := &model.PointCollection{
		CRS: "EPSG:4326",
		Points: []model.Point{
			{ID: "1", X: -84.37, Y: 33.93},
			{ID: "2", X: -85.10, Y: 34.20},
			{ID: "bad", X: math.NaN(), Y: 33.0}, // ignored
		},
	}

	b, ok := pointExtent(pc)
	require.True(t, ok)
	assert.Equal(t, geometry.BBox{MinX: -85.10, MinY: 33.93, MaxX: -84.37, MaxY: 34.20}, b)
}

func TestPointExtent_Empty(t *testing.T) {
	_, ok := pointExtent(&model.PointCollection{CRS: "EPSG:4326"})
	assert.False(t, ok)
}

func TestPolygonExtent(t *testing.T) {
	ring := geom.NewLinearRingFlat(geom.XY, []float64{0, 0, 4, 0, 4, 4, 0, 4, 0, 0})
	poly := geom.NewPolygon(geom.XY)
	require.NoError(t, poly.Push(ring))

	gc := &model.PolygonCollection{
		CRS: "EPSG:4326",
		Polygons: []model.Polygon{
			{ID: "ok", Geom: poly},
			{ID: "degenerate", Geom: geom.NewPolygon(geom.XY)}, // ignored
		},
	}

	b, ok := polygonExtent(gc)
	require.True(t, ok)
	assert.Equal(t, geometry.BBox{MinX: 0, MinY: 0, MaxX: 4, MaxY: 4}, b)
}

func TestFormatExtent(t *testing.T) {
	assert.Equal(t, "(empty)", formatExtent(geometry.BBox{}, false))
	assert.Equal(t, "[0, 1, 2, 3]", formatExtent(geometry.BBox{MinX: 0, MinY: 1, MaxX: 2, MaxY: 3}, true))
}
