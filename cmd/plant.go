package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/suitability-cli/internal/model"
	"github.com/sells-group/suitability-cli/internal/planting"
)

var plantCmd = &cobra.Command{
	Use:   "plant",
	Short: "Estimate a sapling planting layout for a farm boundary",
	Long: `Lays a square planting grid over a farm boundary polygon, rotates it to fit
the most saplings, and drops points on terrain steeper than the slope limit.

The boundary is read from a polygon shapefile. Slope is derived from an ESRI
ASCII elevation grid (--dem) in the same projected, metre-based CRS.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		applyPlantFlags(cmd)
		if err := cfg.Validate("plant"); err != nil {
			return err
		}

		boundaryPath, _ := cmd.Flags().GetString("boundary")
		if boundaryPath == "" {
			return eris.New("a boundary shapefile is required (--boundary)")
		}
		boundary, err := planting.ReadBoundary(boundaryPath)
		if err != nil {
			return err
		}

		demPath, _ := cmd.Flags().GetString("dem")
		slopeOut, _ := cmd.Flags().GetString("slope-output")
		slope, err := loadSlope(demPath, slopeOut)
		if err != nil {
			return err
		}

		plan, err := planting.Estimate(boundary, slope, planting.Options{
			SpacingM:        cfg.Planting.SpacingM,
			MaxSlopeDeg:     cfg.Planting.MaxSlopeDeg,
			RotationStepDeg: cfg.Planting.RotationStepDeg,
		})
		if err != nil {
			return err
		}

		if pointsOut, _ := cmd.Flags().GetString("output"); pointsOut != "" {
			if err := planting.WritePoints(pointsOut, plan.Points); err != nil {
				return err
			}
			zap.L().Info("planting points written", zap.String("path", pointsOut), zap.Int("points", len(plan.Points)))
		}

		farmID, _ := cmd.Flags().GetString("farm-id")
		var planID string
		if save, _ := cmd.Flags().GetBool("save"); save {
			srid, _ := cmd.Flags().GetInt("srid")
			planID, err = savePlan(ctx, farmID, srid, plan)
			if err != nil {
				return err
			}
		}

		formatPlan(os.Stdout, farmID, planID, plan)
		return nil
	},
}

// applyPlantFlags lets explicit flags override the planting config.
func applyPlantFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("spacing") {
		cfg.Planting.SpacingM, _ = cmd.Flags().GetFloat64("spacing")
	}
	if cmd.Flags().Changed("max-slope") {
		cfg.Planting.MaxSlopeDeg, _ = cmd.Flags().GetFloat64("max-slope")
	}
	if cmd.Flags().Changed("rotation-step") {
		cfg.Planting.RotationStepDeg, _ = cmd.Flags().GetFloat64("rotation-step")
	}
}

// loadSlope reads a DEM and derives its slope raster. An empty path means
// no slope filtering.
func loadSlope(demPath, slopeOut string) (*planting.Grid, error) {
	if demPath == "" {
		return nil, nil
	}
	f, err := os.Open(demPath)
	if err != nil {
		return nil, eris.Wrapf(err, "open dem %s", demPath)
	}
	defer f.Close() //nolint:errcheck

	dem, err := planting.ReadASCIIGrid(f)
	if err != nil {
		return nil, eris.Wrapf(err, "read dem %s", demPath)
	}
	slope := planting.SlopeFromDEM(dem)

	if slopeOut != "" {
		out, err := os.Create(slopeOut)
		if err != nil {
			return nil, eris.Wrapf(err, "create slope raster %s", slopeOut)
		}
		if err := planting.WriteASCIIGrid(out, slope); err != nil {
			_ = out.Close()
			return nil, err
		}
		if err := out.Close(); err != nil {
			return nil, eris.Wrap(err, "close slope raster")
		}
	}
	return slope, nil
}

func savePlan(ctx context.Context, farmID string, srid int, plan *planting.Plan) (string, error) {
	geometry, err := planting.EncodePoints(plan.Points, srid)
	if err != nil {
		return "", err
	}

	st, err := initStore(ctx)
	if err != nil {
		return "", err
	}
	defer st.Close() //nolint:errcheck

	rec := &model.PlantingPlan{
		FarmID:       farmID,
		SpacingM:     cfg.Planting.SpacingM,
		MaxSlopeDeg:  cfg.Planting.MaxSlopeDeg,
		OptimalAngle: plan.OptimalAngle,
		SaplingCount: plan.SaplingCount,
		Dropped:      plan.Dropped,
		Geometry:     geometry,
	}
	if err := st.SavePlan(ctx, rec); err != nil {
		return "", eris.Wrap(err, "save plan")
	}
	return rec.ID, nil
}

// formatPlan writes a plan summary to w.
func formatPlan(out io.Writer, farmID, planID string, plan *planting.Plan) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if farmID != "" {
		_, _ = fmt.Fprintf(w, "Farm:\t%s\n", farmID)
	}
	if planID != "" {
		_, _ = fmt.Fprintf(w, "Plan:\t%s\n", planID)
	}
	_, _ = fmt.Fprintf(w, "Optimal rotation:\t%g°\n", plan.OptimalAngle)
	_, _ = fmt.Fprintf(w, "Grid points:\t%d\n", plan.Candidates)
	_, _ = fmt.Fprintf(w, "Too steep:\t%d\n", plan.Dropped)
	_, _ = fmt.Fprintf(w, "Saplings:\t%d\n", plan.SaplingCount)
	_ = w.Flush()
}

func init() {
	plantCmd.Flags().String("boundary", "", "farm boundary polygon shapefile (.shp)")
	plantCmd.Flags().String("dem", "", "elevation grid in ESRI ASCII format (.asc)")
	plantCmd.Flags().Float64("spacing", 0, "sapling spacing in metres (default from config)")
	plantCmd.Flags().Float64("max-slope", 0, "steepest plantable slope in degrees (default from config)")
	plantCmd.Flags().Float64("rotation-step", 0, "rotation search step in degrees (default from config)")
	plantCmd.Flags().StringP("output", "o", "", "write planting points to this point shapefile")
	plantCmd.Flags().String("slope-output", "", "write the derived slope raster to this .asc file")
	plantCmd.Flags().String("farm-id", "", "farm id recorded with a saved plan")
	plantCmd.Flags().Bool("save", false, "save the plan to the store")
	plantCmd.Flags().Int("srid", 4326, "SRID recorded in the saved plan geometry")
	rootCmd.AddCommand(plantCmd)
}
