package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/suitability-cli/internal/catalog"
	"github.com/sells-group/suitability-cli/internal/model"
	"github.com/sells-group/suitability-cli/internal/store"
	"github.com/sells-group/suitability-cli/internal/suitability"
)

// catalogPaths names the species catalog and the optional override table.
type catalogPaths struct {
	Species string
	Params  string
	Sheet   string
}

func (p catalogPaths) options() catalog.Options {
	return catalog.Options{SheetName: p.Sheet}
}

// loadRecommender reads the catalog tables and builds rules from the
// configured features.
func loadRecommender(ctx context.Context, paths catalogPaths) (*suitability.Recommender, error) {
	if paths.Species == "" {
		return nil, eris.New("a species catalog is required (--species)")
	}

	st, err := catalog.ReadTable(ctx, paths.Species, paths.options())
	if err != nil {
		return nil, eris.Wrap(err, "read species catalog")
	}
	species, err := catalog.SpeciesFromTable(st, cfg.Suitability)
	if err != nil {
		return nil, err
	}

	var overrides []model.ParamOverride
	if paths.Params != "" {
		pt, err := catalog.ReadTable(ctx, paths.Params, paths.options())
		if err != nil {
			return nil, eris.Wrap(err, "read scoring params")
		}
		overrides, err = catalog.OverridesFromTable(pt, cfg.Suitability)
		if err != nil {
			return nil, err
		}
	}

	zap.L().Debug("catalog loaded",
		zap.String("species_path", paths.Species),
		zap.Int("species", len(species)),
		zap.Int("overrides", len(overrides)),
	)

	return suitability.NewRecommender(cfg.Suitability, species, overrides,
		suitability.WithRankOptions(suitability.RankOptions{
			Precision:  cfg.Rank.Precision,
			MaxReasons: cfg.Rank.MaxReasons,
		}),
		suitability.WithWorkers(cfg.Batch.MaxConcurrentFarms),
	)
}

// initStore opens the configured run history backend and migrates it.
func initStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}
	return store.New(ctx, cfg.Store)
}
