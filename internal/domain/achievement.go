package domain

// AchievementDescriptor is a single entry in the achievement catalog.
// Qualification is a pure threshold check over the Stats projection, so
// evaluation order across the catalog has no semantic effect.
type AchievementDescriptor struct {
	ID            string `json:"id" validate:"required"`
	Title         string `json:"title" validate:"required"`
	Description   string `json:"description"`
	RewardOnGrant int    `json:"reward_on_grant" validate:"gte=0"`

	// Qualification thresholds. Zero means "no requirement" for that stat.
	MinCompletedTasks int `json:"min_completed_tasks" validate:"gte=0"`
	MinTotalReward    int `json:"min_total_reward" validate:"gte=0"`
	MinFriendCount    int `json:"min_friend_count" validate:"gte=0"`
	MinLevel          int `json:"min_level" validate:"gte=0"`
}

// Qualifies reports whether the stats meet every threshold of the descriptor.
func (a AchievementDescriptor) Qualifies(stats Stats) bool {
	return stats.CompletedTaskCount >= a.MinCompletedTasks &&
		stats.TotalReward >= a.MinTotalReward &&
		stats.FriendCount >= a.MinFriendCount &&
		stats.Level >= a.MinLevel
}

// AchievementCatalogConfig is the on-disk shape of configs/achievements.json.
type AchievementCatalogConfig struct {
	Version      string                  `json:"version" validate:"required"`
	Achievements []AchievementDescriptor `json:"achievements" validate:"required,dive"`
}
