package leveling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerive(t *testing.T) {
	tests := []struct {
		name        string
		totalReward int
		wantLevel   int
		wantInLevel int
		wantToNext  int
	}{
		{"zero reward is level one", 0, 1, 0, 100},
		{"mid level", 50, 1, 50, 50},
		{"exact level boundary", 100, 2, 0, 100},
		{"two levels and a half", 250, 3, 50, 50},
		{"just below boundary", 99, 1, 99, 1},
		{"large total", 5250, 53, 50, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Derive(tt.totalReward)
			assert.Equal(t, tt.wantLevel, got.Level)
			assert.Equal(t, tt.wantInLevel, got.InLevelProgress)
			assert.Equal(t, tt.wantToNext, got.ProgressToNextLevel)
		})
	}
}

func TestDeriveClampsNegative(t *testing.T) {
	got := Derive(-25)
	assert.Equal(t, 1, got.Level)
	assert.Equal(t, 0, got.InLevelProgress)
	assert.Equal(t, 100, got.ProgressToNextLevel)
	assert.Equal(t, RankNovice, got.RankTitle)
}

// TestDeriveInvariant verifies the derivation identity holds across a range:
// progress + toNext always spans exactly one level, and the three fields
// reconstruct the total.
func TestDeriveInvariant(t *testing.T) {
	for total := 0; total <= 1000; total++ {
		got := Derive(total)
		assert.Equal(t, 100, got.InLevelProgress+got.ProgressToNextLevel, "total=%d", total)
		assert.Equal(t, total, (got.Level-1)*100+got.InLevelProgress, "total=%d", total)
	}
}

func TestRankTitleBands(t *testing.T) {
	tests := []struct {
		level int
		want  string
	}{
		{1, RankNovice},
		{4, RankNovice},
		{5, RankApprentice},
		{9, RankApprentice},
		{10, RankAdventurer},
		{19, RankAdventurer},
		{20, RankHero},
		{29, RankHero},
		{30, RankChampion},
		{49, RankChampion},
		{50, RankGrandmaster},
		{120, RankGrandmaster},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RankTitle(tt.level), "level=%d", tt.level)
	}
}
