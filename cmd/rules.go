package main

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/suitability-cli/internal/suitability"
)

// speciesRules is the audit view of one species' resolved rules.
type speciesRules struct {
	SpeciesID   string             `json:"species_id" yaml:"species_id"`
	SpeciesName string             `json:"species_name" yaml:"species_name"`
	Rules       []suitability.Rule `json:"rules" yaml:"rules"`
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the resolved scoring rules per species",
	Long:  "Builds rules from the catalog, overrides and feature configuration exactly as recommend does, and prints them for audit.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("recommend"); err != nil {
			return err
		}

		paths := catalogPaths{}
		paths.Species, _ = cmd.Flags().GetString("species")
		paths.Params, _ = cmd.Flags().GetString("params")
		paths.Sheet, _ = cmd.Flags().GetString("sheet")

		rec, err := loadRecommender(cmd.Context(), paths)
		if err != nil {
			return err
		}

		only, _ := cmd.Flags().GetString("species-id")
		list := collectRules(rec, only)
		if only != "" && len(list) == 0 {
			return eris.Errorf("species %q not in catalog", only)
		}

		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		w, closeFn, err := openOutput(output)
		if err != nil {
			return err
		}
		if err := writeRules(w, list, format); err != nil {
			_ = closeFn()
			return err
		}
		return closeFn()
	},
}

// collectRules lists rules in catalog order, optionally for one species.
func collectRules(rec *suitability.Recommender, only string) []speciesRules {
	var out []speciesRules
	for _, sp := range rec.Species() {
		if only != "" && sp.ID != only {
			continue
		}
		rules, _ := rec.Rules(sp.ID)
		if rules == nil {
			rules = []suitability.Rule{}
		}
		out = append(out, speciesRules{SpeciesID: sp.ID, SpeciesName: sp.Name, Rules: rules})
	}
	return out
}

func writeRules(w io.Writer, list []speciesRules, format string) error {
	switch strings.ToLower(format) {
	case "", "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(list); err != nil {
			return eris.Wrap(err, "encode rules")
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	default:
		return eris.Errorf("unknown format %q (want yaml or json)", format)
	}
}

func init() {
	addCatalogFlags(rulesCmd)
	rulesCmd.Flags().String("species-id", "", "only print rules for this species")
	rulesCmd.Flags().String("format", "yaml", "output format: yaml or json")
	rulesCmd.Flags().StringP("output", "o", "", "write output to a file instead of stdout")
	rootCmd.AddCommand(rulesCmd)
}
