package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/suitability-cli/internal/model"
)

func TestFarmsFromTable(t *testing.T) {
	tbl, err := newTable([][]string{
		{"farm_id", "Soil", "rainfall"},
		{"f1", "Loam", "1,200"},
		{"", "sand", ""},
	})
	require.NoError(t, err)

	farms := FarmsFromTable(tbl, testConfig())
	require.Len(t, farms, 2)

	assert.Equal(t, "f1", farms[0].ID)
	assert.Equal(t, "Loam", farms[0].Profile["soil"].String())
	rain, ok := farms[0].Profile["rainfall"].Float()
	require.True(t, ok)
	assert.Equal(t, 1200.0, rain)

	assert.Equal(t, "farm-2", farms[1].ID)
	_, ok = farms[1].Profile.Get("rainfall")
	assert.False(t, ok)
	_, ok = farms[1].Profile["farm_id"]
	assert.False(t, ok)
}

func TestDecodeFarms(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []model.Farm
	}{
		{
			name: "wrapped",
			doc:  "farm_id: north\nfarm:\n  Soil: loam\n  rainfall: 1200\n",
			want: []model.Farm{{ID: "north", Profile: model.FarmProfile{
				"soil": model.TextValue("loam"), "rainfall": model.NumberValue(1200),
			}}},
		},
		{
			name: "flat",
			doc:  "farm_id: south\nsoil: clay\nslope: 4.5\nfrost: null\n",
			want: []model.Farm{{ID: "south", Profile: model.FarmProfile{
				"soil": model.TextValue("clay"), "slope": model.NumberValue(4.5),
			}}},
		},
		{
			name: "json",
			doc:  `{"farm_id": "east", "farm": {"soil": "sand", "rainfall": 800}}`,
			want: []model.Farm{{ID: "east", Profile: model.FarmProfile{
				"soil": model.TextValue("sand"), "rainfall": model.NumberValue(800),
			}}},
		},
		{
			name: "list",
			doc:  "- farm_id: a\n  farm: {soil: loam}\n- soil: sand\n",
			want: []model.Farm{
				{ID: "a", Profile: model.FarmProfile{"soil": model.TextValue("loam")}},
				{ID: "farm-2", Profile: model.FarmProfile{"soil": model.TextValue("sand")}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeFarms([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeFarms_Errors(t *testing.T) {
	_, err := DecodeFarms([]byte("just a string"))
	assert.Error(t, err)

	_, err = DecodeFarms([]byte("soil: [a, b]\n"))
	assert.Error(t, err)

	_, err = DecodeFarms([]byte("soil: [unclosed"))
	assert.Error(t, err)
}

func TestLoadFarms(t *testing.T) {
	yamlPath := writeFile(t, "farm.yaml", "farm_id: north\nfarm:\n  soil: loam\n")
	farms, err := LoadFarms(context.Background(), yamlPath, testConfig())
	require.NoError(t, err)
	require.Len(t, farms, 1)
	assert.Equal(t, "north", farms[0].ID)

	csvPath := writeFile(t, "farms.csv", "farm_id,soil\nf1,loam\nf2,clay\n")
	farms, err = LoadFarms(context.Background(), csvPath, testConfig())
	require.NoError(t, err)
	require.Len(t, farms, 2)
	assert.Equal(t, "f2", farms[1].ID)

	_, err = LoadFarms(context.Background(), writeFile(t, "bad.json", "{"), testConfig())
	assert.Error(t, err)
}

func TestParseFarmPairs(t *testing.T) {
	p, err := ParseFarmPairs("Soil=loam, rainfall=1200,slope=")
	require.NoError(t, err)
	assert.Len(t, p, 2)
	assert.Equal(t, "loam", p["soil"].String())
	f, ok := p["rainfall"].Float()
	assert.True(t, ok)
	assert.Equal(t, 1200.0, f)

	_, err = ParseFarmPairs("soil")
	assert.Error(t, err)
	_, err = ParseFarmPairs("=loam")
	assert.Error(t, err)

	p, err = ParseFarmPairs("")
	require.NoError(t, err)
	assert.Empty(t, p)
}

func TestNormalizeProfile(t *testing.T) {
	p := NormalizeProfile(model.FarmProfile{
		"Soil Type": model.TextValue("loam"),
		"empty":     {},
	})
	assert.Equal(t, model.FarmProfile{"soil_type": model.TextValue("loam")}, p)
}
