package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/suitability-cli/internal/catalog"
	"github.com/sells-group/suitability-cli/internal/model"
	"github.com/sells-group/suitability-cli/internal/suitability"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Rank species for one or more farms",
	Long: `Scores every species in the catalog against each farm profile and prints a
ranked, explained recommendation list per farm.

Farms come from --farms (CSV, TSV, XLSX, YAML or JSON) or a single inline
--farm "soil=loam,rainfall=1200".`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("recommend"); err != nil {
			return err
		}

		paths := catalogPaths{}
		paths.Species, _ = cmd.Flags().GetString("species")
		paths.Params, _ = cmd.Flags().GetString("params")
		paths.Sheet, _ = cmd.Flags().GetString("sheet")

		rec, err := loadRecommender(ctx, paths)
		if err != nil {
			return err
		}

		farms, err := readFarms(ctx, cmd)
		if err != nil {
			return err
		}

		reports, err := rec.RecommendBatch(ctx, farms)
		if err != nil {
			return eris.Wrap(err, "recommend")
		}

		top, _ := cmd.Flags().GetInt("top")
		detail, _ := cmd.Flags().GetBool("detail")
		out := make([]farmReport, len(reports))
		for i, rep := range reports {
			out[i] = newFarmReport(rep, top, detail)
		}

		if save, _ := cmd.Flags().GetBool("save"); save {
			if err := saveRuns(ctx, rec, farms, reports, out); err != nil {
				return err
			}
		}

		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		w, closeFn, err := openOutput(output)
		if err != nil {
			return err
		}
		if err := writeReports(w, out, format, rec.RankOptions().Precision); err != nil {
			_ = closeFn()
			return err
		}
		return closeFn()
	},
}

// readFarms loads the farms named by --farms or --farm and normalizes their keys.
func readFarms(ctx context.Context, cmd *cobra.Command) ([]model.Farm, error) {
	farmsPath, _ := cmd.Flags().GetString("farms")
	pairs, _ := cmd.Flags().GetString("farm")
	farmID, _ := cmd.Flags().GetString("farm-id")

	var farms []model.Farm
	switch {
	case farmsPath != "" && pairs != "":
		return nil, eris.New("use either --farms or --farm, not both")
	case farmsPath != "":
		loaded, err := catalog.LoadFarms(ctx, farmsPath, cfg.Suitability)
		if err != nil {
			return nil, err
		}
		farms = loaded
	case pairs != "":
		profile, err := catalog.ParseFarmPairs(pairs)
		if err != nil {
			return nil, err
		}
		farms = []model.Farm{{ID: farmID, Profile: profile}}
	default:
		return nil, eris.New("a farm is required (--farms or --farm)")
	}
	if len(farms) == 0 {
		return nil, eris.Errorf("no farms found in %s", farmsPath)
	}

	for i := range farms {
		farms[i].Profile = catalog.NormalizeProfile(farms[i].Profile)
		if farms[i].ID == "" {
			farms[i].ID = farmID
		}
	}
	return farms, nil
}

// saveRuns persists one run per farm and records the run ids on the reports.
func saveRuns(ctx context.Context, rec *suitability.Recommender, farms []model.Farm, reports []suitability.Report, out []farmReport) error {
	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	for i, rep := range reports {
		run := &model.Run{
			FarmID:          rep.FarmID,
			ConfigHash:      rec.ConfigHash(),
			Farm:            farms[i].Profile,
			Recommendations: rep.Recommendations,
		}
		if err := st.SaveRun(ctx, run); err != nil {
			return eris.Wrapf(err, "save run for farm %s", rep.FarmID)
		}
		out[i].RunID = run.ID
		zap.L().Info("run saved", zap.String("run_id", run.ID), zap.String("farm_id", run.FarmID))
	}
	return nil
}

func init() {
	addCatalogFlags(recommendCmd)
	recommendCmd.Flags().String("farms", "", "farm profiles file (csv, tsv, xlsx, yaml, json)")
	recommendCmd.Flags().String("farm", "", `inline farm profile, e.g. "soil=loam,rainfall=1200"`)
	recommendCmd.Flags().String("farm-id", "farm", "farm id for --farm or rows without one")
	recommendCmd.Flags().String("format", "table", "output format: table, csv, json or yaml")
	recommendCmd.Flags().StringP("output", "o", "", "write output to a file instead of stdout")
	recommendCmd.Flags().Bool("detail", false, "include per-feature outcomes (json and yaml only)")
	recommendCmd.Flags().Bool("save", false, "save each run to the run history store")
	recommendCmd.Flags().Int("top", 0, "show only the first N recommendations per farm")
	rootCmd.AddCommand(recommendCmd)
}

func addCatalogFlags(cmd *cobra.Command) {
	cmd.Flags().String("species", "", "species catalog (csv, tsv or xlsx)")
	cmd.Flags().String("params", "", "per-species scoring parameter overrides (csv, tsv or xlsx)")
	cmd.Flags().String("sheet", "", "worksheet name for xlsx inputs (default first sheet)")
}
