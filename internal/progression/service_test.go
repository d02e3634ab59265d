package progression

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kowshikb/kidQuest-sub000/internal/cache"
	"github.com/kowshikb/kidQuest-sub000/internal/domain"
)

func TestCompleteTaskAppliesRewardAndDerivesLevel(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo, nil, Config{})
	ctx := context.Background()

	result, err := svc.CompleteTask(ctx, "u1", "task_basic")
	require.NoError(t, err)

	assert.True(t, result.Accepted)
	assert.Equal(t, 10, result.RewardApplied)
	// ach_first fires on the first completion and adds its grant reward.
	assert.Equal(t, []string{"ach_first"}, result.GrantedAchievementIDs)
	assert.Equal(t, 1, result.NewLevel)
	assert.False(t, result.LeveledUp)

	profile, err := svc.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 15, profile.TotalReward)
	assert.True(t, profile.HasCompleted("task_basic"))
	assert.True(t, profile.HasAchievement("ach_first"))
}

func TestCompleteTaskIsIdempotent(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo, nil, Config{})
	ctx := context.Background()

	_, err := svc.CompleteTask(ctx, "u1", "task_basic")
	require.NoError(t, err)

	before, err := svc.GetProfile(ctx, "u1")
	require.NoError(t, err)

	_, err = svc.CompleteTask(ctx, "u1", "task_basic")
	require.ErrorIs(t, err, domain.ErrTaskAlreadyCompleted)

	after, err := svc.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, before.TotalReward, after.TotalReward)
}

func TestCompleteTaskUnknownTask(t *testing.T) {
	svc := newTestService(t, newFakeRepository(), nil, Config{})

	_, err := svc.CompleteTask(context.Background(), "u1", "task_nope")
	require.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestCompleteTaskInactiveTask(t *testing.T) {
	svc := newTestService(t, newFakeRepository(), nil, Config{})

	_, err := svc.CompleteTask(context.Background(), "u1", "task_retired")
	require.ErrorIs(t, err, domain.ErrTaskInactive)
}

func TestCompleteTaskEnforcesPrerequisites(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo, nil, Config{})
	ctx := context.Background()

	_, err := svc.CompleteTask(ctx, "u1", "task_advanced")
	require.ErrorIs(t, err, domain.ErrPrerequisitesNotMet)
	assert.Contains(t, err.Error(), "task_basic")

	_, err = svc.CompleteTask(ctx, "u1", "task_basic")
	require.NoError(t, err)

	result, err := svc.CompleteTask(ctx, "u1", "task_advanced")
	require.NoError(t, err)
	assert.True(t, result.Accepted)
}

func TestCompleteTaskReportsLevelUp(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo, nil, Config{})

	result, err := svc.CompleteTask(context.Background(), "u1", "task_big")
	require.NoError(t, err)

	assert.True(t, result.LeveledUp)
	assert.Equal(t, 2, result.NewLevel)
	// 120 from the task plus grant rewards on top.
	assert.GreaterOrEqual(t, result.NewTotalReward, 120)
}

func TestCompleteTaskValidatesInput(t *testing.T) {
	svc := newTestService(t, newFakeRepository(), nil, Config{})

	_, err := svc.CompleteTask(context.Background(), "", "task_basic")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.CompleteTask(context.Background(), "u1", "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCompleteTaskSurvivesAchievementCheckFailure(t *testing.T) {
	repo := newFakeRepository()
	loader := newTestLoader(t, defaultTasksJSON, `{not json`)
	svc := newTestService(t, repo, loader, Config{})
	ctx := context.Background()

	result, err := svc.CompleteTask(ctx, "u1", "task_basic")
	require.NoError(t, err)

	// The reward committed even though the grant pass blew up.
	assert.True(t, result.Accepted)
	assert.Empty(t, result.GrantedAchievementIDs)

	profile, err := svc.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 10, profile.TotalReward)
}

func TestGetProfileCachesReads(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo, nil, Config{})
	ctx := context.Background()

	seed := domain.NewProgressionProfile("u1")
	seed.TotalReward = 42
	require.NoError(t, repo.SaveProfile(ctx, seed))

	first, err := svc.GetProfile(ctx, "u1")
	require.NoError(t, err)

	// Mutate the store behind the cache; the cached snapshot still serves.
	repo.mu.Lock()
	repo.profiles["u1"].TotalReward = 99
	repo.mu.Unlock()

	second, err := svc.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first.TotalReward, second.TotalReward)
}

func TestCompleteTaskInvalidatesUserPrefixedEntries(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo, nil, Config{})
	ctx := context.Background()

	tiers := svc.(*service).tiers
	tiers.Dynamic.Set(cache.PrefixQuests+"u1", "bare", 0)
	tiers.Dynamic.Set(cache.PrefixQuests+"u1_active_page1", "suffixed", 0)
	tiers.Session.Set(cache.PrefixProfile+"u1_summary", "suffixed", 0)
	tiers.Dynamic.Set(cache.PrefixQuests+"u2", "other user", 0)
	tiers.Dynamic.Set(cache.PrefixFriends+"u1", "other prefix", 0)

	_, err := svc.CompleteTask(ctx, "u1", "task_basic")
	require.NoError(t, err)

	_, ok := tiers.Dynamic.Get(cache.PrefixQuests + "u1")
	assert.False(t, ok, "bare quests key must be invalidated")
	_, ok = tiers.Dynamic.Get(cache.PrefixQuests + "u1_active_page1")
	assert.False(t, ok, "suffixed quests key must be invalidated")
	_, ok = tiers.Session.Get(cache.PrefixProfile + "u1_summary")
	assert.False(t, ok, "suffixed profile key must be invalidated")

	_, ok = tiers.Dynamic.Get(cache.PrefixQuests + "u2")
	assert.True(t, ok, "other users' entries must survive")
	_, ok = tiers.Dynamic.Get(cache.PrefixFriends + "u1")
	assert.True(t, ok, "other prefixes must survive")
}

func TestGetProfileUnknownUser(t *testing.T) {
	svc := newTestService(t, newFakeRepository(), nil, Config{})

	_, err := svc.GetProfile(context.Background(), "ghost")
	require.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestGetSnapshotDerivesLevelState(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo, nil, Config{})
	ctx := context.Background()

	seed := domain.NewProgressionProfile("u1")
	seed.TotalReward = 250
	seed.CompletedTaskIDs["task_basic"] = true
	require.NoError(t, repo.SaveProfile(ctx, seed))

	snap, err := svc.GetSnapshot(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, 250, snap.TotalReward)
	assert.Equal(t, 3, snap.Leveling.Level)
	assert.Equal(t, 50, snap.Leveling.InLevelProgress)
	assert.Equal(t, 50, snap.Leveling.ProgressToNextLevel)
	assert.Equal(t, 1, snap.CompletedTaskCount)
	assert.False(t, snap.Placeholder)
}
