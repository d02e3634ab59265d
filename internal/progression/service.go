package progression

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kowshikb/kidQuest-sub000/internal/cache"
	"github.com/kowshikb/kidQuest-sub000/internal/catalog"
	"github.com/kowshikb/kidQuest-sub000/internal/concurrency"
	"github.com/kowshikb/kidQuest-sub000/internal/domain"
	"github.com/kowshikb/kidQuest-sub000/internal/event"
	"github.com/kowshikb/kidQuest-sub000/internal/leveling"
	"github.com/kowshikb/kidQuest-sub000/internal/logger"
	"github.com/kowshikb/kidQuest-sub000/internal/metrics"
	"github.com/kowshikb/kidQuest-sub000/internal/repository"
)

// Snapshot is the derived progression view returned to read surfaces.
// Everything level-related is computed from TotalReward on the way out.
type Snapshot struct {
	UserID                string           `json:"user_id"`
	TotalReward           int              `json:"total_reward"`
	Leveling              leveling.Derived `json:"leveling"`
	CompletedTaskCount    int              `json:"completed_task_count"`
	GrantedAchievementIDs []string         `json:"granted_achievement_ids"`
	FriendCount           int              `json:"friend_count"`
	Placeholder           bool             `json:"placeholder,omitempty"`
}

// Service is the progression engine: task completion, achievement grants and
// profile reads with fallback.
type Service interface {
	// CompleteTask applies the reward for a task exactly once. Validation
	// failures come back as domain sentinels; an achievement-check failure
	// after the reward committed never does.
	CompleteTask(ctx context.Context, userID, taskID string) (*domain.CompletionResult, error)

	// GetProfile returns the authoritative profile, read through the
	// dynamic cache tier.
	GetProfile(ctx context.Context, userID string) (*domain.ProgressionProfile, error)

	// GetProfileWithFallback behaves like GetProfile but bounds the wait.
	// When the store does not answer within the configured timeout it
	// returns a placeholder profile and keeps retrying in the background;
	// mutations against a user in that state fail with ErrProfileNotReady.
	GetProfileWithFallback(ctx context.Context, userID string) (*domain.ProgressionProfile, error)

	// GetSnapshot projects a profile into the derived view.
	GetSnapshot(ctx context.Context, userID string) (*Snapshot, error)

	// CheckAndGrantAchievements evaluates the catalog against the user's
	// stats and grants every qualifying achievement not yet held. Returns
	// the IDs granted by this call. Safe to invoke concurrently.
	CheckAndGrantAchievements(ctx context.Context, userID string) ([]string, error)
}

// Config bounds the profile-fetch fallback behaviour.
type Config struct {
	ProfileFetchTimeout time.Duration
	ProfileFetchRetries int
	ProfileRetryBackoff time.Duration
}

func (c *Config) applyDefaults() {
	if c.ProfileFetchTimeout <= 0 {
		c.ProfileFetchTimeout = 2 * time.Second
	}
	if c.ProfileFetchRetries <= 0 {
		c.ProfileFetchRetries = 3
	}
	if c.ProfileRetryBackoff <= 0 {
		c.ProfileRetryBackoff = 500 * time.Millisecond
	}
}

type service struct {
	repo    repository.ProfileRepository
	catalog *catalog.Loader
	tiers   *cache.Tiers
	bus     event.Bus
	cfg     Config

	// grants collapses concurrent achievement checks for the same user.
	grants *concurrency.FlightGroup[[]string]

	// pending tracks users whose profile read timed out and is being
	// re-fetched in the background. Mutations for these users are refused
	// until the authoritative profile arrives.
	pendingMu sync.Mutex
	pending   map[string]bool
}

// NewService creates the progression service.
func NewService(repo repository.ProfileRepository, loader *catalog.Loader, tiers *cache.Tiers, bus event.Bus, cfg Config) Service {
	cfg.applyDefaults()
	return &service{
		repo:    repo,
		catalog: loader,
		tiers:   tiers,
		bus:     bus,
		cfg:     cfg,
		grants:  concurrency.NewFlightGroup[[]string](),
		pending: make(map[string]bool),
	}
}

// CompleteTask validates the completion, applies the reward inside a single
// store transaction and then runs the achievement check as an isolated
// sub-step. Preconditions are checked in a fixed order: existence, active
// flag, idempotence, prerequisites.
func (s *service) CompleteTask(ctx context.Context, userID, taskID string) (*domain.CompletionResult, error) {
	log := logger.FromContext(ctx)

	if userID == "" || taskID == "" {
		return nil, fmt.Errorf("%w: user id and task id are required", domain.ErrInvalidInput)
	}

	if s.isPending(userID) {
		metrics.CompletionRejections.WithLabelValues("profile_not_ready").Inc()
		return nil, fmt.Errorf("%w: user %s", domain.ErrProfileNotReady, userID)
	}

	tasks, err := s.catalog.Tasks()
	if err != nil {
		return nil, err
	}

	task, ok := tasks[taskID]
	if !ok {
		metrics.CompletionRejections.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, taskID)
	}
	if !task.Active {
		metrics.CompletionRejections.WithLabelValues("inactive").Inc()
		return nil, fmt.Errorf("%w: %s", domain.ErrTaskInactive, taskID)
	}

	// All profile checks and the reward write happen inside one optimistic
	// transaction so a concurrent duplicate can never double-apply. The
	// closure may re-run on a version conflict, so captured state is reset
	// at the top.
	var oldLevel, newLevel int
	updated, err := s.repo.UpdateProfile(ctx, userID, func(p *domain.ProgressionProfile) error {
		oldLevel, newLevel = 0, 0

		if p.HasCompleted(taskID) {
			return fmt.Errorf("%w: %s", domain.ErrTaskAlreadyCompleted, taskID)
		}
		if missing := missingPrerequisites(task, p); len(missing) > 0 {
			return fmt.Errorf("%w: task %s requires %s",
				domain.ErrPrerequisitesNotMet, taskID, strings.Join(missing, ", "))
		}

		oldLevel = leveling.Derive(p.TotalReward).Level
		p.CompletedTaskIDs[taskID] = true
		p.TotalReward += task.Reward
		newLevel = leveling.Derive(p.TotalReward).Level
		return nil
	})
	if err != nil {
		if isCompletionRejection(err) {
			metrics.CompletionRejections.WithLabelValues(rejectionReason(err)).Inc()
		}
		return nil, err
	}

	s.invalidateUserCaches(userID)
	metrics.TasksCompleted.WithLabelValues(taskID).Inc()

	result := &domain.CompletionResult{
		Accepted:              true,
		TaskID:                taskID,
		RewardApplied:         task.Reward,
		NewTotalReward:        updated.TotalReward,
		NewLevel:              newLevel,
		LeveledUp:             newLevel > oldLevel,
		GrantedAchievementIDs: []string{},
	}

	s.publish(ctx, event.NewTaskCompletedEvent(userID, taskID, task.Reward, updated.TotalReward))
	if result.LeveledUp {
		metrics.LevelUps.Inc()
		s.publish(ctx, event.NewLevelUpEvent(userID, oldLevel, newLevel, leveling.RankTitle(newLevel)))
	}

	// The reward is already committed; a failure here must not surface as a
	// completion failure. The granted list just stays empty.
	granted, err := s.CheckAndGrantAchievements(ctx, userID)
	if err != nil {
		metrics.AchievementCheckFailures.Inc()
		log.Error("Achievement check failed after task completion",
			"user_id", userID,
			"task_id", taskID,
			"error", err)
	} else {
		result.GrantedAchievementIDs = granted
	}

	log.Info("Task completed",
		"user_id", userID,
		"task_id", taskID,
		"reward", task.Reward,
		"new_total", updated.TotalReward,
		"leveled_up", result.LeveledUp,
		"achievements_granted", len(result.GrantedAchievementIDs))

	return result, nil
}

func (s *service) GetProfile(ctx context.Context, userID string) (*domain.ProgressionProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}

	key := cache.PrefixProfile + userID
	if v, ok := s.tiers.Dynamic.Get(key); ok {
		if p, ok := v.(*domain.ProgressionProfile); ok {
			metrics.CacheHits.WithLabelValues(cache.TierDynamic).Inc()
			return p.Clone(), nil
		}
	}
	metrics.CacheMisses.WithLabelValues(cache.TierDynamic).Inc()

	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.tiers.Dynamic.Set(key, profile.Clone(), 0)
	return profile, nil
}

func (s *service) GetSnapshot(ctx context.Context, userID string) (*Snapshot, error) {
	profile, err := s.GetProfileWithFallback(ctx, userID)
	if err != nil {
		return nil, err
	}
	return snapshotOf(profile), nil
}

func snapshotOf(p *domain.ProgressionProfile) *Snapshot {
	granted := make([]string, 0, len(p.GrantedAchievementIDs))
	for id := range p.GrantedAchievementIDs {
		granted = append(granted, id)
	}
	return &Snapshot{
		UserID:                p.UserID,
		TotalReward:           p.TotalReward,
		Leveling:              leveling.Derive(p.TotalReward),
		CompletedTaskCount:    len(p.CompletedTaskIDs),
		GrantedAchievementIDs: granted,
		FriendCount:           p.FriendCount,
		Placeholder:           p.Placeholder,
	}
}

// invalidateUserCaches drops every entry keyed under the user's quest and
// profile prefixes, not just the bare keys; readers may cache suffixed
// variants (paginated views, filters) under the same prefix.
func (s *service) invalidateUserCaches(userID string) {
	for _, c := range []*cache.Cache{s.tiers.Dynamic, s.tiers.Session} {
		c.InvalidateByPrefix(cache.PrefixProfile + userID)
		c.InvalidateByPrefix(cache.PrefixQuests + userID)
	}
}

func (s *service) publish(ctx context.Context, e event.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, e); err != nil {
		logger.FromContext(ctx).Warn("Failed to publish event", "event_type", e.Type, "error", err)
	}
}

func missingPrerequisites(task domain.TaskDescriptor, p *domain.ProgressionProfile) []string {
	var missing []string
	for _, prereq := range task.PrerequisiteIDs {
		if !p.HasCompleted(prereq) {
			missing = append(missing, prereq)
		}
	}
	return missing
}

func isCompletionRejection(err error) bool {
	return rejectionReason(err) != ""
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrTaskAlreadyCompleted):
		return "already_completed"
	case errors.Is(err, domain.ErrPrerequisitesNotMet):
		return "prerequisites_not_met"
	}
	return ""
}
