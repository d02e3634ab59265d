package leaderboard

import (
	"context"
	"fmt"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kowshikb/kidQuest-sub000/internal/cache"
	"github.com/kowshikb/kidQuest-sub000/internal/leveling"
	"github.com/kowshikb/kidQuest-sub000/internal/metrics"
	"github.com/kowshikb/kidQuest-sub000/internal/repository"
)

const (
	// MaxLimit caps how many entries one request can ask for.
	MaxLimit     = 100
	DefaultLimit = 10

	// cacheSize bounds distinct limit values held at once.
	cacheSize = 16
)

// Entry is one leaderboard row.
type Entry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	TotalReward int    `json:"total_reward"`
	Level       int    `json:"level"`
	RankTitle   string `json:"rank_title"`
}

// Service serves top-N rankings. Results are cached with the realtime TTL;
// rankings tolerate sub-minute staleness.
type Service interface {
	GetTop(ctx context.Context, limit int) ([]Entry, error)
}

type service struct {
	repo repository.ProfileRepository
	lru  *expirable.LRU[int, []Entry]
}

// NewService creates a leaderboard service backed by the profile store.
func NewService(repo repository.ProfileRepository) Service {
	return &service{
		repo: repo,
		lru:  expirable.NewLRU[int, []Entry](cacheSize, nil, cache.DefaultRealtimeTTL),
	}
}

func (s *service) GetTop(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	if entries, ok := s.lru.Get(limit); ok {
		metrics.CacheHits.WithLabelValues(cache.TierRealtime).Inc()
		return entries, nil
	}
	metrics.CacheMisses.WithLabelValues(cache.TierRealtime).Inc()

	profiles, err := s.repo.GetTopProfiles(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(profiles))
	for i, p := range profiles {
		derived := leveling.Derive(p.TotalReward)
		entries = append(entries, Entry{
			Rank:        i + 1,
			UserID:      p.UserID,
			TotalReward: p.TotalReward,
			Level:       derived.Level,
			RankTitle:   derived.RankTitle,
		})
	}

	s.lru.Add(limit, entries)
	return entries, nil
}
