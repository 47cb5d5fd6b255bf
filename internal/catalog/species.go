package catalog

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/suitability-cli/internal/config"
	"github.com/sells-group/suitability-cli/internal/model"
)

// Override table columns.
const (
	ColFeature      = "feature"
	ColScoreMethod  = "score_method"
	ColWeight       = "weight"
	ColTrapLeftTol  = "trap_left_tol"
	ColTrapRightTol = "trap_right_tol"
)

// SpeciesFromTable converts catalog rows into species records. Rows with a
// blank id are skipped; a repeated id replaces the earlier row in place.
func SpeciesFromTable(t *Table, cfg config.SuitabilityConfig) ([]model.SpeciesRow, error) {
	idCol := t.Index(cfg.IDs.Species)
	if idCol < 0 {
		return nil, eris.Errorf("catalog: species table has no %q column", cfg.IDs.Species)
	}
	nameCol := t.Index(cfg.Names.Species)
	commonCol := t.Index(cfg.Names.Common)

	var out []model.SpeciesRow
	seen := make(map[string]int)
	skipped := 0

	for _, row := range t.Rows {
		id := t.Cell(row, idCol)
		if id == "" {
			skipped++
			continue
		}

		attrs := t.Record(row)
		delete(attrs, t.Header[idCol])
		sp := model.SpeciesRow{
			ID:         id,
			Name:       t.Cell(row, nameCol),
			CommonName: t.Cell(row, commonCol),
			Attrs:      attrs,
		}
		if nameCol >= 0 {
			delete(attrs, t.Header[nameCol])
		}
		if commonCol >= 0 {
			delete(attrs, t.Header[commonCol])
		}

		if i, dup := seen[id]; dup {
			zap.L().Warn("catalog: duplicate species id, keeping last row", zap.String("species_id", id))
			out[i] = sp
			continue
		}
		seen[id] = len(out)
		out = append(out, sp)
	}

	if skipped > 0 {
		zap.L().Warn("catalog: skipped species rows without id", zap.Int("rows", skipped))
	}
	return out, nil
}

// OverridesFromTable converts parameter rows into overrides. Cells are kept
// as text; numeric coercion happens when the parameter index is built.
func OverridesFromTable(t *Table, cfg config.SuitabilityConfig) ([]model.ParamOverride, error) {
	idCol := t.Index(cfg.IDs.Species)
	if idCol < 0 {
		return nil, eris.Errorf("catalog: parameter table has no %q column", cfg.IDs.Species)
	}
	featCol := t.Index(ColFeature)
	if featCol < 0 {
		return nil, eris.Errorf("catalog: parameter table has no %q column", ColFeature)
	}
	methodCol := t.Index(ColScoreMethod)
	weightCol := t.Index(ColWeight)
	leftCol := t.Index(ColTrapLeftTol)
	rightCol := t.Index(ColTrapRightTol)

	out := make([]model.ParamOverride, 0, len(t.Rows))
	for _, row := range t.Rows {
		id, feat := t.Cell(row, idCol), model.NormalizeKey(t.Cell(row, featCol))
		if id == "" || feat == "" {
			continue
		}
		out = append(out, model.ParamOverride{
			SpeciesID:    id,
			Feature:      feat,
			ScoreMethod:  t.Cell(row, methodCol),
			Weight:       t.Cell(row, weightCol),
			TrapLeftTol:  t.Cell(row, leftCol),
			TrapRightTol: t.Cell(row, rightCol),
		})
	}
	return out, nil
}
