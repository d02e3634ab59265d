package progression

import (
	"context"
	"errors"
	"fmt"

	"github.com/kowshikb/kidQuest-sub000/internal/domain"
	"github.com/kowshikb/kidQuest-sub000/internal/event"
	"github.com/kowshikb/kidQuest-sub000/internal/logger"
	"github.com/kowshikb/kidQuest-sub000/internal/metrics"
)

// errNoNewGrants aborts the grant transaction when nothing qualifies, so a
// no-op check never writes (and never bumps the profile version).
var errNoNewGrants = errors.New("no new grants")

// CheckAndGrantAchievements grants every achievement the user qualifies for
// and does not yet hold.
//
// Two layers keep the grant exactly-once. Concurrent checks for the same user
// inside this process collapse into one execution via the flight group; that
// is load shedding, not the correctness boundary. The boundary is the store
// transaction: the granted set is re-read and re-diffed inside the optimistic
// write, so even racing processes converge on a single grant per achievement.
func (s *service) CheckAndGrantAchievements(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}

	granted, shared, err := s.grants.Do(userID, func() ([]string, error) {
		return s.grantOnce(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.FromContext(ctx).Debug("Achievement check collapsed into in-flight call", "user_id", userID)
	}
	return granted, nil
}

func (s *service) grantOnce(ctx context.Context, userID string) ([]string, error) {
	achievements, err := s.catalog.Achievements()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAchievementCheckFailed, err)
	}

	var granted []*domain.AchievementDescriptor
	_, err = s.repo.UpdateProfile(ctx, userID, func(p *domain.ProgressionProfile) error {
		granted = granted[:0]

		stats := domain.StatsOf(p)
		for i := range achievements {
			a := &achievements[i]
			if p.HasAchievement(a.ID) || !a.Qualifies(stats) {
				continue
			}
			granted = append(granted, a)
		}
		if len(granted) == 0 {
			return errNoNewGrants
		}

		// Grant rewards do not feed back into this evaluation pass; a
		// reward that pushes the user over another threshold is picked
		// up by the next check.
		for _, a := range granted {
			p.GrantedAchievementIDs[a.ID] = true
			p.TotalReward += a.RewardOnGrant
		}
		return nil
	})
	if errors.Is(err, errNoNewGrants) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAchievementCheckFailed, err)
	}

	s.invalidateUserCaches(userID)

	ids := make([]string, 0, len(granted))
	for _, a := range granted {
		ids = append(ids, a.ID)
		metrics.AchievementsGranted.WithLabelValues(a.ID).Inc()
		s.publish(ctx, event.NewAchievementGrantedEvent(userID, a.ID, a.RewardOnGrant))
	}

	logger.FromContext(ctx).Info("Achievements granted", "user_id", userID, "achievement_ids", ids)
	return ids, nil
}
