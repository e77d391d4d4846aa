package layerio

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/fieldlab/geojoin/internal/model"
)

// WriteJoined serializes joined records to the manifest's output target.
// Format defaults to GeoJSON when unset.
func WriteJoined(out OutputSpec, records []model.JoinedRecord) error {
	if out.Path == "" {
		return eris.New("layerio: output path is required")
	}
	switch out.Format {
	case "", FormatGeoJSON:
		return WriteGeoJSON(out.Path, records)
	case FormatCSV:
		return WriteCSV(out.Path, records)
	default:
		return eris.Errorf("layerio: unknown output format %q", out.Format)
	}
}

// WriteGeoJSON writes joined records as a GeoJSON FeatureCollection of
// points. Each feature carries the record's merged attributes plus the
// join outcome and matched polygon id. Invalid records have no
// serializable geometry and are skipped with a debug log.
func WriteGeoJSON(path string, records []model.JoinedRecord) error {
	fc := &geojson.FeatureCollection{}
	skipped := 0

	for _, rec := range records {
		if rec.Outcome == model.OutcomeInvalid {
			skipped++
			continue
		}

		props := model.CopyAttrs(rec.Attrs)
		props["outcome"] = string(rec.Outcome)
		if rec.Outcome == model.OutcomeMatched {
			props["polygon_id"] = rec.PolygonID
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         rec.PointID,
			Geometry:   geom.NewPointFlat(geom.XY, []float64{rec.X, rec.Y}),
			Properties: props,
		})
	}

	if skipped > 0 {
		zap.L().Debug("layerio: invalid records omitted from geojson",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return eris.Wrap(err, "layerio: marshal geojson")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "layerio: write geojson %s", path)
	}
	return nil
}

// WriteCSV writes joined records as a flat table. Columns are the fixed
// identity/outcome columns followed by the union of attribute keys in
// sorted order, so output layout is stable for identical inputs.
func WriteCSV(path string, records []model.JoinedRecord) error {
	keys := attrKeys(records)

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "layerio: create csv %s", path)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)

	header := append([]string{"id", "x", "y", "outcome", "polygon_id"}, keys...)
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "layerio: write csv header")
	}

	for _, rec := range records {
		row := make([]string, 0, len(header))
		row = append(row,
			rec.PointID,
			formatCoord(rec.X, rec.Outcome),
			formatCoord(rec.Y, rec.Outcome),
			string(rec.Outcome),
			rec.PolygonID,
		)
		for _, k := range keys {
			row = append(row, formatAttr(rec.Attrs[k]))
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "layerio: write csv row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "layerio: flush csv %s", path)
	}
	return nil
}

// attrKeys returns the sorted union of attribute keys across all records.
func attrKeys(records []model.JoinedRecord) []string {
	seen := make(map[string]struct{})
	for _, rec := range records {
		for k := range rec.Attrs {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatCoord renders a coordinate cell; invalid records get empty cells
// rather than "NaN" text.
func formatCoord(v float64, outcome model.Outcome) string {
	if outcome == model.OutcomeInvalid {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatAttr renders an attribute value for CSV output.
func formatAttr(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
