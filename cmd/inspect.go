package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fieldlab/geojoin/internal/geometry"
	"github.com/fieldlab/geojoin/internal/layerio"
	"github.com/fieldlab/geojoin/internal/model"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarize the layers named by a manifest",
	Long:  "Loads both layers and prints record counts, CRS tags, and extents without running a join. Useful for catching CRS mismatches and column binding mistakes before a long run.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		manifestPath, _ := cmd.Flags().GetString("manifest")

		manifest, err := layerio.LoadManifest(manifestPath)
		if err != nil {
			return err
		}

		points, err := layerio.ReadPointsCSV(manifest.Points)
		if err != nil {
			return err
		}
		polygons, err := layerio.ReadPolygonsShapefile(manifest.Polygons)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "LAYER\tSOURCE\tCRS\tRECORDS\tEXTENT")
		fmt.Fprintf(w, "points\t%s\t%s\t%d\t%s\n",
			manifest.Points.Path, points.CRS, len(points.Points), formatExtent(pointExtent(points)))
		fmt.Fprintf(w, "polygons\t%s\t%s\t%d\t%s\n",
			manifest.Polygons.Path, polygons.CRS, len(polygons.Polygons), formatExtent(polygonExtent(polygons)))
		return w.Flush()
	},
}

// pointExtent computes the bounding box over all finite points.
func pointExtent(pc *model.PointCollection) (geometry.BBox, bool) {
	b := geometry.BBox{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	found := false
	for _, p := range pc.Points {
		if !geometry.Finite(p.X, p.Y) {
			continue
		}
		found = true
		b.MinX = math.Min(b.MinX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b, found
}

// polygonExtent computes the bounding box over all usable polygons.
func polygonExtent(gc *model.PolygonCollection) (geometry.BBox, bool) {
	b := geometry.BBox{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	found := false
	for i := range gc.Polygons {
		if geometry.Degenerate(gc.Polygons[i].Geom) {
			continue
		}
		found = true
		pb := geometry.PolygonBBox(gc.Polygons[i].Geom)
		b.MinX = math.Min(b.MinX, pb.MinX)
		b.MinY = math.Min(b.MinY, pb.MinY)
		b.MaxX = math.Max(b.MaxX, pb.MaxX)
		b.MaxY = math.Max(b.MaxY, pb.MaxY)
	}
	return b, found
}

func formatExtent(b geometry.BBox, ok bool) string {
	if !ok {
		return "(empty)"
	}
	return fmt.Sprintf("[%g, %g, %g, %g]", b.MinX, b.MinY, b.MaxX, b.MaxY)
}

func init() {
	inspectCmd.Flags().String("manifest", "layers.yaml", "path to the layer manifest")
	rootCmd.AddCommand(inspectCmd)
}
