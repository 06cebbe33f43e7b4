package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single-byte-compatible taichung", "台中市", "臺中市"},
		{"already canonical taichung", "臺中市", "臺中市"},
		{"taipei alias", "台北市", "臺北市"},
		{"tainan alias", "台南市", "臺南市"},
		{"taitung alias", "台東縣", "臺東縣"},
		{"renamed taoyuan", "桃園縣", "桃園市"},
		{"changhua passthrough", "彰化縣", "彰化縣"},
		{"whitespace trimmed", " 彰化縣 ", "彰化縣"},
		{"unknown passthrough", "全區", "全區"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonical(tt.in))
		})
	}
}

func TestCanonicalRoundTrip(t *testing.T) {
	// Alias and canonical spelling must land on the same string.
	assert.Equal(t, Canonical("臺中市"), Canonical("台中市"))
	// Canonicalization is idempotent.
	for _, c := range Counties() {
		assert.Equal(t, c, Canonical(c))
	}
}

func TestCounties(t *testing.T) {
	cs := Counties()
	assert.Len(t, cs, 22)
	assert.Equal(t, "基隆市", cs[0])
	assert.True(t, IsCounty("台中市"))
	assert.False(t, IsCounty("員林鎮"))

	// Returned slice is a copy.
	cs[0] = "mutated"
	assert.Equal(t, "基隆市", Counties()[0])
}

func TestTownName(t *testing.T) {
	assert.Equal(t, "員林鎮", TownName("彰化縣", "彰化縣員林鎮"))
	assert.Equal(t, "員林鎮", TownName("彰化縣", "員林鎮"))
	assert.Equal(t, "", TownName("彰化縣", ""))
}
