package progression

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kowshikb/kidQuest-sub000/internal/cache"
	"github.com/kowshikb/kidQuest-sub000/internal/catalog"
	"github.com/kowshikb/kidQuest-sub000/internal/domain"
	"github.com/kowshikb/kidQuest-sub000/internal/event"
	"github.com/kowshikb/kidQuest-sub000/internal/repository"
)

// fakeRepository is an in-memory ProfileRepository. The mutex makes every
// UpdateProfile atomic, mirroring what the versioned write gives the real
// implementation.
type fakeRepository struct {
	mu       sync.Mutex
	profiles map[string]*domain.ProgressionProfile

	getDelay  time.Duration
	getErr    error
	updateErr error
}

var _ repository.ProfileRepository = (*fakeRepository)(nil)

func newFakeRepository() *fakeRepository {
	return &fakeRepository{profiles: make(map[string]*domain.ProgressionProfile)}
}

func (r *fakeRepository) GetProfile(ctx context.Context, userID string) (*domain.ProgressionProfile, error) {
	if r.getDelay > 0 {
		select {
		case <-time.After(r.getDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.getErr != nil {
		return nil, r.getErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, userID)
	}
	return p.Clone(), nil
}

func (r *fakeRepository) SaveProfile(ctx context.Context, profile *domain.ProgressionProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.UserID] = profile.Clone()
	return nil
}

func (r *fakeRepository) UpdateProfile(ctx context.Context, userID string, fn func(*domain.ProgressionProfile) error) (*domain.ProgressionProfile, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.profiles[userID]
	if !ok {
		current = domain.NewProgressionProfile(userID)
	}

	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}

	working.Version++
	working.UpdatedAt = time.Now().UTC()
	r.profiles[userID] = working
	return working.Clone(), nil
}

func (r *fakeRepository) GetTopProfiles(ctx context.Context, limit int) ([]*domain.ProgressionProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*domain.ProgressionProfile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalReward > out[j].TotalReward })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeRepository) version(userID string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[userID]; ok {
		return p.Version
	}
	return 0
}

const defaultTasksJSON = `{
  "version": "1.0",
  "tasks": [
    {"id": "task_basic", "title": "Basic", "reward": 10, "active": true},
    {"id": "task_big", "title": "Big", "reward": 120, "active": true},
    {"id": "task_advanced", "title": "Advanced", "reward": 25, "active": true, "prerequisite_ids": ["task_basic"]},
    {"id": "task_retired", "title": "Retired", "reward": 5, "active": false}
  ]
}`

const defaultAchievementsJSON = `{
  "version": "1.0",
  "achievements": [
    {"id": "ach_first", "title": "First Quest", "reward_on_grant": 5, "min_completed_tasks": 1},
    {"id": "ach_rich", "title": "Saver", "reward_on_grant": 0, "min_total_reward": 100}
  ]
}`

func newTestLoader(t *testing.T, tasksJSON, achievementsJSON string) *catalog.Loader {
	t.Helper()

	dir := t.TempDir()
	taskPath := filepath.Join(dir, "tasks.json")
	achPath := filepath.Join(dir, "achievements.json")
	require.NoError(t, os.WriteFile(taskPath, []byte(tasksJSON), 0644))
	require.NoError(t, os.WriteFile(achPath, []byte(achievementsJSON), 0644))

	return catalog.NewLoader(taskPath, achPath, nil)
}

func newTestService(t *testing.T, repo repository.ProfileRepository, loader *catalog.Loader, cfg Config) Service {
	t.Helper()
	if loader == nil {
		loader = newTestLoader(t, defaultTasksJSON, defaultAchievementsJSON)
	}
	return NewService(repo, loader, cache.NewTiers(), event.NewMemoryBus(), cfg)
}
