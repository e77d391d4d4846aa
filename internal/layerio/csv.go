package layerio

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fieldlab/geojoin/internal/geometry"
	"github.com/fieldlab/geojoin/internal/model"
)

// ReadPointsCSV loads a point layer from a header-row CSV file per the
// given spec. Rows whose coordinate cells fail to parse are kept with NaN
// coordinates so the join reports them as invalid records instead of this
// reader aborting the batch. Attribute cells parse to float64 when numeric,
// nil when empty, string otherwise.
func ReadPointsCSV(spec PointsSpec) (*model.PointCollection, error) {
	f, err := os.Open(spec.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "layerio: open points csv %s", spec.Path)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // allow variable fields

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "layerio: read csv header %s", spec.Path)
	}

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[strings.ToLower(strings.TrimSpace(name))] = i
	}

	xIdx, ok := colIdx[strings.ToLower(spec.XColumn)]
	if !ok {
		return nil, eris.Errorf("layerio: x column %q not in header", spec.XColumn)
	}
	yIdx, ok := colIdx[strings.ToLower(spec.YColumn)]
	if !ok {
		return nil, eris.Errorf("layerio: y column %q not in header", spec.YColumn)
	}
	idIdx := -1
	if spec.IDColumn != "" {
		if idIdx, ok = colIdx[strings.ToLower(spec.IDColumn)]; !ok {
			return nil, eris.Errorf("layerio: id column %q not in header", spec.IDColumn)
		}
	}

	var points []model.Point
	var malformed int
	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "layerio: read csv row %d", rowNum+1)
		}
		rowNum++

		pt := model.Point{
			X:     parseCoord(cell(row, xIdx)),
			Y:     parseCoord(cell(row, yIdx)),
			Attrs: make(map[string]any),
		}
		if !geometry.Finite(pt.X, pt.Y) {
			malformed++
		}

		if idIdx >= 0 {
			pt.ID = cell(row, idIdx)
		}
		if pt.ID == "" {
			pt.ID = strconv.Itoa(rowNum)
		}

		for i, name := range header {
			if i == xIdx || i == yIdx || i == idIdx {
				continue
			}
			pt.Attrs[strings.TrimSpace(name)] = parseAttr(cell(row, i))
		}

		points = append(points, pt)
	}

	if malformed > 0 {
		zap.L().Debug("layerio: csv rows with unparseable coordinates",
			zap.String("path", spec.Path),
			zap.Int("rows", malformed),
		)
	}

	return model.NewPointCollection(spec.CRS, points)
}

// cell returns the i-th field of a row, or "" when the row is short.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseCoord parses a coordinate cell; unparseable cells become NaN so the
// record survives to the join as an invalid outcome.
func parseCoord(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// parseAttr types a raw attribute cell: empty becomes nil, numeric becomes
// float64, anything else stays a string.
func parseAttr(s string) any {
	if s == "" {
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return s
}
