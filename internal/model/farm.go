package model

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Value is one observed farm attribute. A value carries either a number, a
// text token, or both when the text came from a numeric-looking cell.
type Value struct {
	Text   string
	Number *float64
}

// NumberValue wraps a numeric observation.
func NumberValue(f float64) Value {
	return Value{Number: &f}
}

// TextValue wraps a categorical (or not yet parsed) observation.
func TextValue(s string) Value {
	return Value{Text: strings.TrimSpace(s)}
}

// IsZero reports whether the value carries no observation.
func (v Value) IsZero() bool {
	return v.Number == nil && v.Text == ""
}

// Float returns the numeric reading of the value.
func (v Value) Float() (float64, bool) {
	if v.Number != nil {
		return *v.Number, true
	}
	return ParseNumber(v.Text)
}

// String returns the categorical reading of the value.
func (v Value) String() string {
	if v.Text != "" {
		return v.Text
	}
	if v.Number != nil {
		return strconv.FormatFloat(*v.Number, 'f', -1, 64)
	}
	return ""
}

// MarshalJSON renders numbers as JSON numbers, text as strings and absent values as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch {
	case v.Number != nil:
		return json.Marshal(*v.Number)
	case v.Text != "":
		return json.Marshal(v.Text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts numbers, strings, booleans and null.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "model: decode farm value")
	}
	switch x := raw.(type) {
	case nil:
		*v = Value{}
	case float64:
		*v = NumberValue(x)
	case string:
		*v = TextValue(x)
	case bool:
		*v = TextValue(strconv.FormatBool(x))
	default:
		return eris.Errorf("model: unsupported farm value %s", string(data))
	}
	return nil
}

// MarshalYAML mirrors MarshalJSON.
func (v Value) MarshalYAML() (any, error) {
	switch {
	case v.Number != nil:
		return *v.Number, nil
	case v.Text != "":
		return v.Text, nil
	default:
		return nil, nil
	}
}

// UnmarshalYAML accepts scalar nodes; numeric tags become numbers.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return eris.Errorf("model: farm value must be a scalar (line %d)", node.Line)
	}
	switch node.Tag {
	case "!!null":
		*v = Value{}
	case "!!int", "!!float":
		f, ok := ParseNumber(node.Value)
		if !ok {
			*v = TextValue(node.Value)
			return nil
		}
		*v = NumberValue(f)
	default:
		*v = TextValue(node.Value)
	}
	return nil
}

// FarmProfile maps a feature key to the farm's observed value. Keys may be absent.
type FarmProfile map[string]Value

// Get returns the observation for key when present and non-empty.
func (p FarmProfile) Get(key string) (Value, bool) {
	v, ok := p[key]
	if !ok || v.IsZero() {
		return Value{}, false
	}
	return v, true
}

// Farm is a named farm profile, used for batch evaluation.
type Farm struct {
	ID      string      `json:"farm_id" yaml:"farm_id"`
	Profile FarmProfile `json:"farm" yaml:"farm"`
}
