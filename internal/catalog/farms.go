package catalog

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/suitability-cli/internal/config"
	"github.com/sells-group/suitability-cli/internal/model"
)

// FarmsFromTable converts rows into farm profiles, one farm per row. Every
// column other than the farm id becomes a feature value. Rows without an id
// are named by position.
func FarmsFromTable(t *Table, cfg config.SuitabilityConfig) []model.Farm {
	idCol := t.Index(cfg.IDs.Farm)

	farms := make([]model.Farm, 0, len(t.Rows))
	for i, row := range t.Rows {
		id := t.Cell(row, idCol)
		if id == "" {
			id = fmt.Sprintf("farm-%d", i+1)
		}
		profile := make(model.FarmProfile)
		for key, cell := range t.Record(row) {
			if idCol >= 0 && key == t.Header[idCol] {
				continue
			}
			profile[key] = CellValue(cell)
		}
		farms = append(farms, model.Farm{ID: id, Profile: profile})
	}
	return farms
}

// CellValue reads a text cell as a farm value, keeping the numeric reading
// when the cell parses as a number.
func CellValue(cell string) model.Value {
	v := model.TextValue(cell)
	if f, ok := model.ParseNumber(cell); ok {
		v.Number = &f
	}
	return v
}

// LoadFarms reads farm profiles from a table (.csv, .tsv, .xlsx) or a YAML
// or JSON document. A document may hold a single farm, either as
// {farm_id, farm: {...}} or as a flat feature map, or a list of farms.
func LoadFarms(ctx context.Context, path string, cfg config.SuitabilityConfig) ([]model.Farm, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "catalog: read farm file %s", path)
		}
		farms, err := DecodeFarms(data)
		if err != nil {
			return nil, eris.Wrapf(err, "catalog: decode farm file %s", path)
		}
		return farms, nil
	default:
		t, err := ReadTable(ctx, path, Options{})
		if err != nil {
			return nil, err
		}
		return FarmsFromTable(t, cfg), nil
	}
}

// DecodeFarms parses a YAML or JSON farm document.
func DecodeFarms(data []byte) ([]model.Farm, error) {
	var node yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&node); err != nil {
		return nil, eris.Wrap(err, "catalog: parse farm document")
	}
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = *node.Content[0]
	}

	switch node.Kind {
	case yaml.SequenceNode:
		var farms []model.Farm
		for i, item := range node.Content {
			farm, err := decodeFarm(item)
			if err != nil {
				return nil, eris.Wrapf(err, "catalog: farm %d", i+1)
			}
			if farm.ID == "" {
				farm.ID = fmt.Sprintf("farm-%d", i+1)
			}
			farms = append(farms, farm)
		}
		return farms, nil
	case yaml.MappingNode:
		farm, err := decodeFarm(&node)
		if err != nil {
			return nil, err
		}
		return []model.Farm{farm}, nil
	default:
		return nil, eris.New("catalog: farm document must be a mapping or a list")
	}
}

func decodeFarm(node *yaml.Node) (model.Farm, error) {
	var wrapped struct {
		ID   string    `yaml:"farm_id"`
		Farm yaml.Node `yaml:"farm"`
	}
	if err := node.Decode(&wrapped); err != nil {
		return model.Farm{}, eris.Wrap(err, "catalog: decode farm")
	}

	body := node
	if wrapped.Farm.Kind == yaml.MappingNode {
		body = &wrapped.Farm
	}

	var profile model.FarmProfile
	if err := body.Decode(&profile); err != nil {
		return model.Farm{}, eris.Wrap(err, "catalog: decode farm profile")
	}
	profile = NormalizeProfile(profile)
	delete(profile, "farm_id")

	return model.Farm{ID: wrapped.ID, Profile: profile}, nil
}

// NormalizeProfile returns a copy of p with keys normalized like catalog
// headers and empty values dropped.
func NormalizeProfile(p model.FarmProfile) model.FarmProfile {
	out := make(model.FarmProfile, len(p))
	for k, v := range p {
		if v.IsZero() {
			continue
		}
		out[model.NormalizeKey(k)] = v
	}
	return out
}

// ParseFarmPairs parses "soil=loam,rainfall=1200" into a farm profile.
func ParseFarmPairs(s string) (model.FarmProfile, error) {
	profile := make(model.FarmProfile)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, val, ok := strings.Cut(pair, "=")
		key = model.NormalizeKey(key)
		if !ok || key == "" {
			return nil, eris.Errorf("catalog: invalid farm pair %q (want key=value)", pair)
		}
		if v := CellValue(val); !v.IsZero() {
			profile[key] = v
		}
	}
	return profile, nil
}
