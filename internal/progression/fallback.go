package progression

import (
	"context"
	"fmt"
	"time"

	"github.com/kowshikb/kidQuest-sub000/internal/cache"
	"github.com/kowshikb/kidQuest-sub000/internal/domain"
	"github.com/kowshikb/kidQuest-sub000/internal/logger"
)

type fetchResult struct {
	profile *domain.ProgressionProfile
	err     error
}

// GetProfileWithFallback races the authoritative read against the configured
// timeout. On timeout the caller gets a placeholder profile immediately and a
// background loop keeps trying to fetch the real one; while that loop runs,
// the user is marked pending and mutations are refused. The placeholder is
// never written to the store.
func (s *service) GetProfileWithFallback(ctx context.Context, userID string) (*domain.ProgressionProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}

	// Buffered so a late fetch never leaks the goroutine. The fetch keeps
	// its own context: cancelling it at timeout would defeat the background
	// resolution.
	resultCh := make(chan fetchResult, 1)
	fetchCtx := context.WithoutCancel(ctx)
	go func() {
		p, err := s.GetProfile(fetchCtx, userID)
		resultCh <- fetchResult{profile: p, err: err}
	}()

	timer := time.NewTimer(s.cfg.ProfileFetchTimeout)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		if res.err != nil {
			return nil, res.err
		}
		return res.profile, nil

	case <-ctx.Done():
		return nil, ctx.Err()

	case <-timer.C:
		logger.FromContext(ctx).Warn("Profile fetch timed out, serving placeholder",
			"user_id", userID,
			"timeout", s.cfg.ProfileFetchTimeout)

		s.markPending(userID)
		go s.resolveInBackground(fetchCtx, userID, resultCh)

		placeholder := domain.NewProgressionProfile(userID)
		placeholder.Placeholder = true
		return placeholder, nil
	}
}

// resolveInBackground drains the original fetch and, if it also failed, keeps
// retrying with increasing backoff up to the configured attempt count. The
// pending mark is cleared on success or when retries run out.
func (s *service) resolveInBackground(ctx context.Context, userID string, resultCh <-chan fetchResult) {
	defer s.clearPending(userID)
	log := logger.FromContext(ctx)

	res := <-resultCh
	if res.err == nil {
		s.tiers.Dynamic.Set(cache.PrefixProfile+userID, res.profile.Clone(), 0)
		log.Info("Delayed profile fetch resolved", "user_id", userID)
		return
	}

	for attempt := 1; attempt <= s.cfg.ProfileFetchRetries; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.ProfileRetryBackoff * time.Duration(attempt)):
		}

		profile, err := s.repo.GetProfile(ctx, userID)
		if err == nil {
			s.tiers.Dynamic.Set(cache.PrefixProfile+userID, profile.Clone(), 0)
			log.Info("Delayed profile fetch resolved", "user_id", userID, "attempt", attempt)
			return
		}
		log.Warn("Background profile fetch failed", "user_id", userID, "attempt", attempt, "error", err)
	}

	log.Error("Background profile fetch exhausted retries", "user_id", userID)
}

func (s *service) markPending(userID string) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	s.pending[userID] = true
}

func (s *service) clearPending(userID string) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	delete(s.pending, userID)
}

func (s *service) isPending(userID string) bool {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	return s.pending[userID]
}
