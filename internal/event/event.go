package event

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// EventSchemaVersion is the current version of the event envelope.
const EventSchemaVersion = "1.0"

// Type represents the type of an event
type Type string

// Common event types
const (
	TaskCompleted      Type = "task.completed"
	LevelUp            Type = "level.up"
	AchievementGranted Type = "achievement.granted"
)

// Event represents a generic event in the system
type Event struct {
	Version string      `json:"version"` // Event schema version (e.g., "1.0")
	Type    Type        `json:"type"`
	Payload interface{} `json:"payload"`
}

// Typed event payloads for type safety

// TaskCompletedPayloadV1 is the typed payload for task completion events
type TaskCompletedPayloadV1 struct {
	UserID         string `json:"user_id"`
	TaskID         string `json:"task_id"`
	RewardApplied  int    `json:"reward_applied"`
	NewTotalReward int    `json:"new_total_reward"`
	Timestamp      int64  `json:"timestamp"`
}

// LevelUpPayloadV1 is the typed payload for level up events
type LevelUpPayloadV1 struct {
	UserID    string `json:"user_id"`
	OldLevel  int    `json:"old_level"`
	NewLevel  int    `json:"new_level"`
	RankTitle string `json:"rank_title"`
}

// AchievementGrantedPayloadV1 is the typed payload for achievement grant events
type AchievementGrantedPayloadV1 struct {
	UserID        string `json:"user_id"`
	AchievementID string `json:"achievement_id"`
	RewardOnGrant int    `json:"reward_on_grant"`
}

// Type-safe event constructors

// NewTaskCompletedEvent creates a task completion event
func NewTaskCompletedEvent(userID, taskID string, rewardApplied, newTotalReward int) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    TaskCompleted,
		Payload: TaskCompletedPayloadV1{
			UserID:         userID,
			TaskID:         taskID,
			RewardApplied:  rewardApplied,
			NewTotalReward: newTotalReward,
			Timestamp:      time.Now().Unix(),
		},
	}
}

// NewLevelUpEvent creates a level up event
func NewLevelUpEvent(userID string, oldLevel, newLevel int, rankTitle string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    LevelUp,
		Payload: LevelUpPayloadV1{
			UserID:    userID,
			OldLevel:  oldLevel,
			NewLevel:  newLevel,
			RankTitle: rankTitle,
		},
	}
}

// NewAchievementGrantedEvent creates an achievement grant event
func NewAchievementGrantedEvent(userID, achievementID string, rewardOnGrant int) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    AchievementGranted,
		Payload: AchievementGrantedPayloadV1{
			UserID:        userID,
			AchievementID: achievementID,
			RewardOnGrant: rewardOnGrant,
		},
	}
}

// Handler processes an event
type Handler func(ctx context.Context, event Event) error

// Bus is the pub/sub boundary between the engine and its observers
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-process Bus implementation
type MemoryBus struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
}

// NewMemoryBus creates an empty in-process bus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish delivers the event to every subscribed handler synchronously.
// Handler errors are logged and do not stop delivery to later handlers.
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type]))
	copy(handlers, b.handlers[event.Type])
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			slog.Default().Warn("Event handler failed", "event_type", event.Type, "error", err)
		}
	}
	return nil
}

// Subscribe registers a handler for an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}
