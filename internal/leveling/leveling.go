package leveling

import "github.com/kowshikb/kidQuest-sub000/internal/domain"

// Derived is the level state computed from a cumulative reward total.
// The three numeric fields are always recomputed together; nothing here is
// ever incremented independently of TotalReward.
type Derived struct {
	Level               int    `json:"level"`
	InLevelProgress     int    `json:"in_level_progress"`
	ProgressToNextLevel int    `json:"progress_to_next_level"`
	RankTitle           string `json:"rank_title"`
}

// Rank titles, highest band first.
const (
	RankGrandmaster = "Grandmaster"
	RankChampion    = "Champion"
	RankHero        = "Hero"
	RankAdventurer  = "Adventurer"
	RankApprentice  = "Apprentice"
	RankNovice      = "Novice"
)

// rankBand maps a minimum level to a title.
type rankBand struct {
	minLevel int
	title    string
}

// rankBands is ordered highest threshold first so the first match wins.
var rankBands = []rankBand{
	{50, RankGrandmaster},
	{30, RankChampion},
	{20, RankHero},
	{10, RankAdventurer},
	{5, RankApprentice},
}

// Derive computes level, in-level progress, progress to the next level and
// the rank title from a cumulative reward total. Pure and total: negative
// input is clamped to zero and there are no error conditions.
func Derive(totalReward int) Derived {
	if totalReward < 0 {
		totalReward = 0
	}

	level := totalReward/domain.RewardPerLevel + 1
	progress := totalReward % domain.RewardPerLevel

	return Derived{
		Level:               level,
		InLevelProgress:     progress,
		ProgressToNextLevel: domain.RewardPerLevel - progress,
		RankTitle:           RankTitle(level),
	}
}

// RankTitle returns the title for a level using the fixed band table.
func RankTitle(level int) string {
	for _, band := range rankBands {
		if level >= band.minLevel {
			return band.title
		}
	}
	return RankNovice
}
