package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1200", 1200, true},
		{" 6.5 ", 6.5, true},
		{"-3", -3, true},
		{"1,500", 1500, true},
		{"1e3", 1000, true},
		{"", 0, false},
		{"  ", 0, false},
		{"N/A", 0, false},
		{"none", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"-", 0, false},
		{"twelve", 0, false},
		{"12mm", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNumberPtr(t *testing.T) {
	t.Parallel()

	p := ParseNumberPtr("0.5")
	if assert.NotNil(t, p) {
		assert.Equal(t, 0.5, *p)
	}
	assert.Nil(t, ParseNumberPtr("bad"))
}
