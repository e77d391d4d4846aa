package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fieldlab/geojoin/internal/join"
	"github.com/fieldlab/geojoin/internal/layerio"
	"github.com/fieldlab/geojoin/internal/model"
	"github.com/fieldlab/geojoin/internal/store"
)

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Run a point-in-polygon spatial join",
	Long: `Reads the point and polygon layers named by a manifest, joins every point
against the polygon layer, and writes the enriched records to the manifest's
output target (GeoJSON or CSV).

Both layers must carry the same CRS tag; a mismatch aborts before any
geometry work. Malformed point or polygon records are reported and skipped
rather than failing the batch.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		manifestPath, _ := cmd.Flags().GetString("manifest")
		outPath, _ := cmd.Flags().GetString("out")
		record, _ := cmd.Flags().GetBool("record")

		opts := joinOptionsFromFlags(cmd)

		manifest, err := layerio.LoadManifest(manifestPath)
		if err != nil {
			return err
		}
		if outPath != "" {
			manifest.Output.Path = outPath
		}
		if manifest.Output.Path == "" {
			return eris.New("join: no output path (set output.path in the manifest or pass --out)")
		}

		log := zap.L().With(zap.String("command", "join"))

		points, err := layerio.ReadPointsCSV(manifest.Points)
		if err != nil {
			return err
		}
		polygons, err := layerio.ReadPolygonsShapefile(manifest.Polygons)
		if err != nil {
			return err
		}
		log.Info("layers loaded",
			zap.Int("points", len(points.Points)),
			zap.Int("polygons", len(polygons.Polygons)),
		)

		started := time.Now()
		res, err := join.Join(ctx, points, polygons, opts)
		if err != nil {
			return err
		}

		for _, issue := range res.Issues {
			log.Warn("data-quality issue",
				zap.String("kind", string(issue.Kind)),
				zap.String("record_id", issue.RecordID),
				zap.String("detail", issue.Detail),
			)
		}

		if err := layerio.WriteJoined(manifest.Output, res.Records); err != nil {
			return err
		}
		log.Info("output written",
			zap.String("path", manifest.Output.Path),
			zap.Int("records", len(res.Records)),
		)

		if record {
			if err := recordRun(ctx, manifestPath, manifest, points, polygons, opts, res, time.Since(started)); err != nil {
				return err
			}
		}
		return nil
	},
}

// joinOptionsFromFlags merges config defaults with command-line overrides.
func joinOptionsFromFlags(cmd *cobra.Command) join.Options {
	opts := join.Options{
		Prefix:      cfg.Join.Prefix,
		OnUnmatched: cfg.Join.OnUnmatched,
		Workers:     cfg.Join.Workers,
	}
	if cmd.Flags().Changed("prefix") {
		opts.Prefix, _ = cmd.Flags().GetString("prefix")
	}
	if cmd.Flags().Changed("unmatched") {
		opts.OnUnmatched, _ = cmd.Flags().GetString("unmatched")
	}
	if cmd.Flags().Changed("workers") {
		opts.Workers, _ = cmd.Flags().GetInt("workers")
	}
	return opts
}

// recordRun persists a run summary to the run history database.
func recordRun(ctx context.Context, manifestPath string, manifest *layerio.Manifest, points *model.PointCollection, polygons *model.PolygonCollection, opts join.Options, res *join.Result, elapsed time.Duration) error {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	onUnmatched := opts.OnUnmatched
	if onUnmatched == "" {
		onUnmatched = join.UnmatchedNull
	}

	run := &store.Run{
		Manifest:     manifestPath,
		PointCRS:     points.CRS,
		PolygonCRS:   polygons.CRS,
		Points:       len(points.Points),
		Polygons:     len(polygons.Polygons),
		Matched:      res.Matched,
		Unmatched:    res.Unmatched,
		Invalid:      res.Invalid,
		Issues:       len(res.Issues),
		OnUnmatched:  onUnmatched,
		Prefix:       opts.Prefix,
		OutputPath:   manifest.Output.Path,
		DurationSecs: elapsed.Seconds(),
	}
	if err := st.SaveRun(ctx, run); err != nil {
		return err
	}
	zap.L().Info("run recorded", zap.String("run_id", run.ID))
	return nil
}

func init() {
	joinCmd.Flags().String("manifest", "layers.yaml", "path to the layer manifest")
	joinCmd.Flags().String("out", "", "override the manifest's output path")
	joinCmd.Flags().String("prefix", "", "namespace prefix for merged polygon attribute keys")
	joinCmd.Flags().String("unmatched", "", `unmatched point handling: "null" or "drop"`)
	joinCmd.Flags().Int("workers", 0, "parallel probe workers (0 = one per CPU)")
	joinCmd.Flags().Bool("record", false, "record the run in the run history database")

	rootCmd.AddCommand(joinCmd)
}
