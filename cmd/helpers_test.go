//go:build !integration

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/suitability-cli/internal/config"
)

const speciesCSV = `species_id,species_name,species_common_name,rainfall_min,rainfall_max,soils
A,Acacia,wattle,1000,1500,"loam, clay"
B,Banksia,banksia,1600,2000,sand
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Suitability: config.SuitabilityConfig{
			IDs:   config.IDsConfig{Species: "species_id", Farm: "farm_id"},
			Names: config.NamesConfig{Species: "species_name", Common: "species_common_name"},
			Features: map[string]config.FeatureConfig{
				"rainfall": {Type: "numerical", Short: "Rainfall"},
				"soil":     {Type: "categorical", Short: "Soil"},
			},
		},
		Rank:     config.RankConfig{Precision: 3, MaxReasons: 3},
		Batch:    config.BatchConfig{MaxConcurrentFarms: 2},
		Store:    config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "test.db")},
		Server:   config.ServerConfig{Port: 8080},
		Planting: config.PlantingConfig{SpacingM: 2, MaxSlopeDeg: 15, RotationStepDeg: 90},
		Log:      config.LogConfig{Level: "info", Format: "json"},
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// setFlags sets command flags for one test and restores their defaults afterwards.
func setFlags(t *testing.T, cmd *cobra.Command, values map[string]string) {
	t.Helper()
	for name, val := range values {
		f := cmd.Flags().Lookup(name)
		require.NotNil(t, f, "flag %q", name)
		require.NoError(t, cmd.Flags().Set(name, val))
	}
	t.Cleanup(func() {
		for name := range values {
			f := cmd.Flags().Lookup(name)
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
}

func runCmd(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	cmd.SetContext(context.Background())
	defer cmd.SetContext(nil) //nolint:staticcheck
	return cmd.RunE(cmd, args)
}
