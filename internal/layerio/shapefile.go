package layerio

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/fieldlab/geojoin/internal/model"
)

// ReadPolygonsShapefile loads a polygon layer from a shapefile per the
// given spec. Every part of a shapefile polygon record becomes one ring of
// the resulting polygon (outer ring first, further parts are holes), and
// every DBF field becomes an attribute. Records without polygon geometry
// are skipped with a debug log, matching messy real-world layers.
func ReadPolygonsShapefile(spec PolygonsSpec) (*model.PolygonCollection, error) {
	reader, err := shp.Open(spec.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "layerio: open shapefile %s", spec.Path)
	}
	defer func() { _ = reader.Close() }()

	// Build field name → index map.
	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	idIdx := -1
	if spec.IDField != "" {
		for i, name := range names {
			if strings.EqualFold(name, spec.IDField) {
				idIdx = i
				break
			}
		}
		if idIdx == -1 {
			return nil, eris.Errorf("layerio: id field %q not in attribute table", spec.IDField)
		}
	}

	var polygons []model.Polygon
	var skipped int
	recNum := 0

	for reader.Next() {
		_, shape := reader.Shape()
		recNum++

		sp, ok := shape.(*shp.Polygon)
		if !ok || sp == nil {
			skipped++
			continue
		}

		g := polygonFromParts(sp)
		if g == nil {
			skipped++
			continue
		}

		poly := model.Polygon{
			Geom:  g,
			Attrs: make(map[string]any, len(names)),
		}
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val == "" {
				poly.Attrs[name] = nil
			} else {
				poly.Attrs[name] = val
			}
		}

		if idIdx >= 0 {
			poly.ID = strings.TrimSpace(strings.TrimRight(reader.Attribute(idIdx), "\x00"))
		}
		if poly.ID == "" {
			poly.ID = strconv.Itoa(recNum)
		}

		polygons = append(polygons, poly)
	}

	if skipped > 0 {
		zap.L().Debug("layerio: skipped shapefile records",
			zap.String("path", spec.Path),
			zap.Int("skipped", skipped),
		)
	}

	return model.NewPolygonCollection(spec.CRS, polygons)
}

// polygonFromParts converts a shapefile polygon's parts into rings of one
// go-geom polygon.
func polygonFromParts(sp *shp.Polygon) *geom.Polygon {
	if sp.NumParts == 0 || len(sp.Points) == 0 {
		return nil
	}

	poly := geom.NewPolygon(geom.XY)

	for i := int32(0); i < sp.NumParts; i++ {
		start := sp.Parts[i]
		var end int32
		if i+1 < sp.NumParts {
			end = sp.Parts[i+1]
		} else {
			end = int32(len(sp.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, sp.Points[j].X, sp.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("layerio: skipping malformed polygon ring",
				zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if poly.NumLinearRings() == 0 {
		return nil
	}
	return poly
}
