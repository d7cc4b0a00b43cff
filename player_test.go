package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlayer(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		ok   bool
	}{
		{"valid profile", "nRacer1`12.5`3`2`1`50`50`50", true},
		{"attribute sum at boundary", "nRacer1`0`1`1`1`50`50`50", true},
		{"empty identity", "n`1`1`1`1`0`0`0", false},
		{"identity with angle bracket", "nRa<er`1`1`1`1`0`0`0", false},
		{"identity with encoded nul", "nRacer&#0;`1`1`1`1`0`0`0", false},
		{"identity with backtick", "nRa`cer`1`1`1`1`0`0`0", false},
		{"cosmetic zero", "nRacer1`1`0`1`1`0`0`0", false},
		{"cosmetic twelve", "nRacer1`1`12`1`1`0`0`0", false},
		{"attribute over hundred", "nRacer1`1`1`1`1`101`0`0", false},
		{"attribute sum over limit", "nRacer1`1`1`1`1`51`50`50", false},
		{"too few fields", "nRacer1`1`1", false},
		{"garbled cosmetic counts as zero", "nRacer1`1`x`1`1`0`0`0", false},
		{"garbled attribute counts as zero", "nRacer1`1`1`1`1`x`0`0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parsePlayer(tt.msg)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestParsePlayerFields(t *testing.T) {
	p, err := parsePlayer("nRacer1`12.5`3`2`1`50`40`30")
	require.NoError(t, err)

	assert.Equal(t, "Racer1", p.Name)
	assert.Equal(t, 12.5, p.Rank)
	assert.Equal(t, 3, p.Head)
	assert.Equal(t, 2, p.Body)
	assert.Equal(t, 1, p.Foot)
	assert.Equal(t, 50, p.Speed)
	assert.Equal(t, 40, p.Jump)
	assert.Equal(t, 30, p.Traction)
	assert.Equal(t, 0, p.roomID)
}

func TestProfileLine(t *testing.T) {
	p := player{Name: "Racer1", Rank: 12.5, Head: 3, Body: 2, Foot: 1, Speed: 50, Jump: 40, Traction: 30}
	assert.Equal(t, "p7`Racer1`12.5`3`2`1`50`40`30", p.profileLine(7))
}

func TestFormatRank(t *testing.T) {
	assert.Equal(t, "2", formatRank(2))
	assert.Equal(t, "1.5", formatRank(1.5))
	assert.Equal(t, "0.1", formatRank(0.1))
}
