package domain

// TaskDescriptor is a single entry in the task catalog. The catalog is
// read-only to the engine; completing a task grants Reward once per user.
type TaskDescriptor struct {
	ID              string   `json:"id" validate:"required"`
	Title           string   `json:"title" validate:"required"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	Reward          int      `json:"reward" validate:"gte=0"`
	PrerequisiteIDs []string `json:"prerequisite_ids,omitempty"`
	Active          bool     `json:"active"`
}

// TaskCatalogConfig is the on-disk shape of configs/tasks.json.
type TaskCatalogConfig struct {
	Version string           `json:"version" validate:"required"`
	Tasks   []TaskDescriptor `json:"tasks" validate:"required,dive"`
}

// CompletionResult is what a successful (or idempotently rejected) task
// completion reports back to the caller.
type CompletionResult struct {
	Accepted              bool     `json:"accepted"`
	TaskID                string   `json:"task_id"`
	RewardApplied         int      `json:"reward_applied"`
	NewTotalReward        int      `json:"new_total_reward"`
	NewLevel              int      `json:"new_level"`
	LeveledUp             bool     `json:"leveled_up"`
	GrantedAchievementIDs []string `json:"granted_achievement_ids"`
}
