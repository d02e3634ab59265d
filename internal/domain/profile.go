package domain

import "time"

// RewardPerLevel is the amount of totalReward that spans one level.
// Level, in-level progress and progress-to-next are always derived from
// TotalReward with this constant; they are never stored independently.
const RewardPerLevel = 100

// ProgressionProfile is a user's authoritative progression state.
// TotalReward is the single semantic quantity behind both the spendable
// currency balance and experience; it is monotonically non-decreasing.
type ProgressionProfile struct {
	UserID                string          `json:"user_id"`
	TotalReward           int             `json:"total_reward"`
	CompletedTaskIDs      map[string]bool `json:"completed_task_ids"`
	GrantedAchievementIDs map[string]bool `json:"granted_achievement_ids"`
	FriendCount           int             `json:"friend_count"`
	Version               int64           `json:"version"` // optimistic concurrency token
	Placeholder           bool            `json:"placeholder,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// NewProgressionProfile returns an empty profile for a user.
func NewProgressionProfile(userID string) *ProgressionProfile {
	now := time.Now().UTC()
	return &ProgressionProfile{
		UserID:                userID,
		CompletedTaskIDs:      make(map[string]bool),
		GrantedAchievementIDs: make(map[string]bool),
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// Clone returns a deep copy of the profile. Repositories hand out clones so
// callers never share mutable state with the store.
func (p *ProgressionProfile) Clone() *ProgressionProfile {
	cp := *p
	cp.CompletedTaskIDs = make(map[string]bool, len(p.CompletedTaskIDs))
	for id := range p.CompletedTaskIDs {
		cp.CompletedTaskIDs[id] = true
	}
	cp.GrantedAchievementIDs = make(map[string]bool, len(p.GrantedAchievementIDs))
	for id := range p.GrantedAchievementIDs {
		cp.GrantedAchievementIDs[id] = true
	}
	return &cp
}

// HasCompleted reports whether the user has completed the given task.
func (p *ProgressionProfile) HasCompleted(taskID string) bool {
	return p.CompletedTaskIDs[taskID]
}

// HasAchievement reports whether the achievement has already been granted.
func (p *ProgressionProfile) HasAchievement(achievementID string) bool {
	return p.GrantedAchievementIDs[achievementID]
}

// Stats is the read-only projection achievement predicates evaluate against.
type Stats struct {
	CompletedTaskCount int `json:"completed_task_count"`
	TotalReward        int `json:"total_reward"`
	FriendCount        int `json:"friend_count"`
	Level              int `json:"level"`
}

// StatsOf projects a profile into the aggregate stats used for achievement
// checks. Level is derived, not read from storage.
func StatsOf(p *ProgressionProfile) Stats {
	return Stats{
		CompletedTaskCount: len(p.CompletedTaskIDs),
		TotalReward:        p.TotalReward,
		FriendCount:        p.FriendCount,
		Level:              p.TotalReward/RewardPerLevel + 1,
	}
}
