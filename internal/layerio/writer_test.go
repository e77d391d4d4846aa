package layerio

import (
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldlab/geojoin/internal/model"
)

func sampleRecords() []model.JoinedRecord {
	return []model.JoinedRecord{
		{
			PointID:   "T1",
			X:         -84.37,
			Y:         33.93,
			Outcome:   model.OutcomeMatched,
			PolygonID: "A",
			Attrs:     map[string]any{"species": "quercus", "name": "HUC-A"},
		},
		{
			PointID: "T2",
			X:       -90.0,
			Y:       45.0,
			Outcome: model.OutcomeUnmatched,
			Attrs:   map[string]any{"species": "acer"},
		},
		{
			PointID: "T3",
			X:       math.NaN(),
			Y:       math.NaN(),
			Outcome: model.OutcomeInvalid,
			Attrs:   map[string]any{"species": "pinus"},
		},
	}
}

func TestWriteGeoJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "joined.geojson")
	require.NoError(t, WriteGeoJSON(path, sampleRecords()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			ID       string `json:"id"`
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &fc))

	assert.Equal(t, "FeatureCollection", fc.Type)
	// The invalid record has no serializable geometry and is omitted.
	require.Len(t, fc.Features, 2)

	matched := fc.Features[0]
	assert.Equal(t, "T1", matched.ID)
	assert.Equal(t, "Point", matched.Geometry.Type)
	assert.Equal(t, []float64{-84.37, 33.93}, matched.Geometry.Coordinates)
	assert.Equal(t, "matched", matched.Properties["outcome"])
	assert.Equal(t, "A", matched.Properties["polygon_id"])
	assert.Equal(t, "HUC-A", matched.Properties["name"])

	unmatched := fc.Features[1]
	assert.Equal(t, "unmatched", unmatched.Properties["outcome"])
	_, hasPolygon := unmatched.Properties["polygon_id"]
	assert.False(t, hasPolygon)
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "joined.csv")
	require.NoError(t, WriteCSV(path, sampleRecords()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	// Attribute columns are the sorted union of keys, after the fixed columns.
	assert.Equal(t, []string{"id", "x", "y", "outcome", "polygon_id", "name", "species"}, rows[0])
	assert.Equal(t, []string{"T1", "-84.37", "33.93", "matched", "A", "HUC-A", "quercus"}, rows[1])
	assert.Equal(t, []string{"T2", "-90", "45", "unmatched", "", "", "acer"}, rows[2])
	// Invalid record keeps its identity but has empty coordinate cells.
	assert.Equal(t, []string{"T3", "", "", "invalid", "", "", "pinus"}, rows[3])
}

func TestWriteJoined_FormatDispatch(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		out     OutputSpec
		wantErr bool
	}{
		{name: "default geojson", out: OutputSpec{Path: filepath.Join(dir, "a.geojson")}, wantErr: false},
		{name: "explicit csv", out: OutputSpec{Path: filepath.Join(dir, "b.csv"), Format: FormatCSV}, wantErr: false},
		{name: "missing path", out: OutputSpec{Format: FormatCSV}, wantErr: true},
		{name: "unknown format", out: OutputSpec{Path: filepath.Join(dir, "c.xyz"), Format: "xyz"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WriteJoined(tt.out, sampleRecords())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				_, statErr := os.Stat(tt.out.Path)
				assert.NoError(t, statErr)
			}
		})
	}
}

func TestWriteGeoJSON_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.geojson")
	require.NoError(t, WriteGeoJSON(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "FeatureCollection")
}
