package suitability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/suitability-cli/internal/model"
)

func TestBuildParamsIndex(t *testing.T) {
	t.Parallel()

	idx := BuildParamsIndex([]model.ParamOverride{
		{SpeciesID: "sp1", Feature: "rainfall", ScoreMethod: " Trapezoid ", Weight: "2", TrapLeftTol: "100", TrapRightTol: "abc"},
		{SpeciesID: "sp1", Feature: "soil", Weight: "n/a"},
		{SpeciesID: "sp2", Feature: "soil", ScoreMethod: "none", Weight: "-1"},
		{SpeciesID: "", Feature: "soil", Weight: "5"},
		{SpeciesID: "sp3", Feature: " ", Weight: "5"},
	})

	require.Len(t, idx, 2)

	p, ok := idx.Lookup("sp1", "rainfall")
	require.True(t, ok)
	assert.Equal(t, MethodTrapezoid, p.ScoreMethod)
	require.NotNil(t, p.Weight)
	assert.Equal(t, 2.0, *p.Weight)
	require.NotNil(t, p.TrapLeftTol)
	assert.Equal(t, 100.0, *p.TrapLeftTol)
	assert.Nil(t, p.TrapRightTol, "unparseable cells become absent")

	p, ok = idx.Lookup("sp1", "soil")
	require.True(t, ok)
	assert.Nil(t, p.Weight)
	assert.Empty(t, p.ScoreMethod)

	p, ok = idx.Lookup("sp2", "soil")
	require.True(t, ok)
	assert.Nil(t, p.Weight, "negative weights become absent")
	assert.Empty(t, p.ScoreMethod, "null-like method tokens become absent")

	_, ok = idx.Lookup("sp1", "slope")
	assert.False(t, ok)
	_, ok = idx.Lookup("sp9", "soil")
	assert.False(t, ok)
}

func TestBuildParamsIndex_LastRowWins(t *testing.T) {
	t.Parallel()

	idx := BuildParamsIndex([]model.ParamOverride{
		{SpeciesID: "sp1", Feature: "soil", Weight: "1"},
		{SpeciesID: "sp1", Feature: "soil", Weight: "3"},
	})

	p, ok := idx.Lookup("sp1", "soil")
	require.True(t, ok)
	require.NotNil(t, p.Weight)
	assert.Equal(t, 3.0, *p.Weight)
}

func TestBuildParamsIndex_Empty(t *testing.T) {
	t.Parallel()

	idx := BuildParamsIndex(nil)
	assert.Empty(t, idx)
	_, ok := idx.Lookup("sp1", "soil")
	assert.False(t, ok)
}
