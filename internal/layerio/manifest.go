// Package layerio reads point and polygon layers from disk and writes
// joined records back out. It is the boundary around the pure join core:
// everything here is file parsing and serialization, nothing here runs
// geometry tests.
package layerio

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by a manifest.
const (
	FormatGeoJSON = "geojson"
	FormatCSV     = "csv"
)

// Manifest describes one join's input layers and output target.
type Manifest struct {
	Points   PointsSpec   `yaml:"points"`
	Polygons PolygonsSpec `yaml:"polygons"`
	Output   OutputSpec   `yaml:"output"`
}

// PointsSpec binds a delimited text file to the point layer: which columns
// carry the identity and the x/y coordinates, and the CRS the coordinates
// are expressed in. Every other column becomes a point attribute.
type PointsSpec struct {
	Path     string `yaml:"path"`
	IDColumn string `yaml:"id_column"`
	XColumn  string `yaml:"x_column"`
	YColumn  string `yaml:"y_column"`
	CRS      string `yaml:"crs"`
}

// PolygonsSpec binds a shapefile to the polygon layer. IDField selects the
// DBF field used as record identity; empty falls back to the shapefile
// record number. Every DBF field becomes a polygon attribute.
type PolygonsSpec struct {
	Path    string `yaml:"path"`
	IDField string `yaml:"id_field"`
	CRS     string `yaml:"crs"`
}

// OutputSpec names where and how joined records are written.
type OutputSpec struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
}

// LoadManifest reads and validates a layer manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "layerio: read manifest %s", path)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(err, "layerio: parse manifest %s", path)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that the manifest names every required binding.
func (m *Manifest) Validate() error {
	switch {
	case m.Points.Path == "":
		return eris.New("layerio: manifest missing points.path")
	case m.Points.XColumn == "":
		return eris.New("layerio: manifest missing points.x_column")
	case m.Points.YColumn == "":
		return eris.New("layerio: manifest missing points.y_column")
	case m.Points.CRS == "":
		return eris.New("layerio: manifest missing points.crs")
	case m.Polygons.Path == "":
		return eris.New("layerio: manifest missing polygons.path")
	case m.Polygons.CRS == "":
		return eris.New("layerio: manifest missing polygons.crs")
	}
	if m.Output.Format != "" && m.Output.Format != FormatGeoJSON && m.Output.Format != FormatCSV {
		return eris.Errorf("layerio: unknown output format %q", m.Output.Format)
	}
	return nil
}
