package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/suitability-cli/internal/model"
	"github.com/sells-group/suitability-cli/internal/suitability"
)

// farmReport is the printable result for one farm.
type farmReport struct {
	FarmID          string                    `json:"farm_id" yaml:"farm_id"`
	RunID           string                    `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Recommendations []model.Recommendation    `json:"recommendations" yaml:"recommendations"`
	Results         []model.SuitabilityResult `json:"results,omitempty" yaml:"results,omitempty"`
}

func newFarmReport(rep suitability.Report, top int, detail bool) farmReport {
	fr := farmReport{FarmID: rep.FarmID, Recommendations: rep.Recommendations}
	if top > 0 && top < len(fr.Recommendations) {
		fr.Recommendations = fr.Recommendations[:top]
	}
	if detail {
		fr.Results = rep.Results
	}
	return fr
}

// openOutput returns stdout for an empty path or "-", otherwise a new file.
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "create output %s", path)
	}
	return f, f.Close, nil
}

func formatScore(s float64, precision int) string {
	return strconv.FormatFloat(s, 'f', precision, 64)
}

// writeReports renders reports in the given format: table, csv, json or yaml.
func writeReports(out io.Writer, reports []farmReport, format string, precision int) error {
	switch strings.ToLower(format) {
	case "", "table":
		formatReportsTable(out, reports, precision)
		return nil
	case "csv":
		return writeReportsCSV(out, reports, precision)
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return enc.Close()
	default:
		return eris.Errorf("unknown format %q (want table, csv, json or yaml)", format)
	}
}

// formatReportsTable writes one ranked table per farm.
func formatReportsTable(out io.Writer, reports []farmReport, precision int) {
	for i, rep := range reports {
		if i > 0 {
			_, _ = fmt.Fprintln(out)
		}
		header := "Farm " + rep.FarmID
		if rep.RunID != "" {
			header += " (run " + truncateID(rep.RunID) + ")"
		}
		_, _ = fmt.Fprintln(out, header)

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "RANK\tSPECIES\tCOMMON NAME\tSCORE\tKEY REASONS")
		_, _ = fmt.Fprintln(w, "----\t-------\t-----------\t-----\t-----------")
		for _, r := range rep.Recommendations {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				r.RankOverall,
				r.SpeciesName,
				r.SpeciesCommonName,
				formatScore(r.ScoreMCDA, precision),
				strings.Join(r.KeyReasons, "; "),
			)
		}
		_ = w.Flush()
	}
}

var recommendationColumns = []string{
	"farm_id", "rank_overall", "species_id", "species_name", "species_common_name", "score_mcda", "key_reasons",
}

// writeReportsCSV writes one row per (farm, species) recommendation.
func writeReportsCSV(out io.Writer, reports []farmReport, precision int) error {
	w := csv.NewWriter(out)
	if err := w.Write(recommendationColumns); err != nil {
		return eris.Wrap(err, "write csv header")
	}
	for _, rep := range reports {
		for _, r := range rep.Recommendations {
			row := []string{
				rep.FarmID,
				strconv.Itoa(r.RankOverall),
				r.SpeciesID,
				r.SpeciesName,
				r.SpeciesCommonName,
				formatScore(r.ScoreMCDA, precision),
				strings.Join(r.KeyReasons, "; "),
			}
			if err := w.Write(row); err != nil {
				return eris.Wrap(err, "write csv row")
			}
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "flush csv")
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
