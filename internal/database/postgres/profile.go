package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kowshikb/kidQuest-sub000/internal/domain"
	"github.com/kowshikb/kidQuest-sub000/internal/logger"
	"github.com/kowshikb/kidQuest-sub000/internal/metrics"
	"github.com/kowshikb/kidQuest-sub000/internal/repository"
)

// Write conflict retry policy. The version check makes lost updates
// impossible; retries only bound how long we keep re-reading under
// contention before giving up.
const (
	defaultMaxRetries   = 5
	defaultRetryBackoff = 25 * time.Millisecond
)

type profileRepository struct {
	pool         *pgxpool.Pool
	maxRetries   int
	retryBackoff time.Duration
}

// NewProfileRepository creates a postgres-backed ProfileRepository.
// Non-positive retry values fall back to the defaults.
func NewProfileRepository(pool *pgxpool.Pool, maxRetries int, retryBackoff time.Duration) repository.ProfileRepository {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if retryBackoff <= 0 {
		retryBackoff = defaultRetryBackoff
	}
	return &profileRepository{
		pool:         pool,
		maxRetries:   maxRetries,
		retryBackoff: retryBackoff,
	}
}

func (r *profileRepository) GetProfile(ctx context.Context, userID string) (*domain.ProgressionProfile, error) {
	profile, err := r.loadProfile(ctx, r.pool, userID)
	if err != nil {
		return nil, translateCtxErr(err)
	}
	return profile, nil
}

// loadProfile reads the profile row and its two membership sets. The querier
// may be the pool or an open transaction.
func (r *profileRepository) loadProfile(ctx context.Context, q querier, userID string) (*domain.ProgressionProfile, error) {
	profile := domain.NewProgressionProfile(userID)

	row := q.QueryRow(ctx,
		`SELECT total_reward, friend_count, version, created_at, updated_at
		 FROM progression_profiles WHERE user_id = $1`, userID)
	err := row.Scan(&profile.TotalReward, &profile.FriendCount, &profile.Version,
		&profile.CreatedAt, &profile.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	// Queries run sequentially; a transaction's connection only supports one
	// open result set at a time.
	if err := scanIDSet(ctx, q,
		`SELECT task_id FROM profile_completed_tasks WHERE user_id = $1`,
		userID, profile.CompletedTaskIDs); err != nil {
		return nil, fmt.Errorf("failed to load completed tasks: %w", err)
	}
	if err := scanIDSet(ctx, q,
		`SELECT achievement_id FROM profile_granted_achievements WHERE user_id = $1`,
		userID, profile.GrantedAchievementIDs); err != nil {
		return nil, fmt.Errorf("failed to load granted achievements: %w", err)
	}

	return profile, nil
}

// scanIDSet reads a one-column id query into set, closing the result set
// before returning.
func scanIDSet(ctx context.Context, q querier, sql, userID string, set map[string]bool) error {
	rows, err := q.Query(ctx, sql, userID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		set[id] = true
	}
	return rows.Err()
}

func (r *profileRepository) SaveProfile(ctx context.Context, profile *domain.ProgressionProfile) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx,
		`INSERT INTO progression_profiles (user_id, total_reward, friend_count, version, created_at, updated_at)
		 VALUES ($1, $2, $3, 1, now(), now())
		 ON CONFLICT (user_id) DO UPDATE
		 SET total_reward = EXCLUDED.total_reward,
		     friend_count = EXCLUDED.friend_count,
		     version      = progression_profiles.version + 1,
		     updated_at   = now()`,
		profile.UserID, profile.TotalReward, profile.FriendCount)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	if err := r.insertMemberships(ctx, tx, profile); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *profileRepository) UpdateProfile(ctx context.Context, userID string, fn func(*domain.ProgressionProfile) error) (*domain.ProgressionProfile, error) {
	log := logger.FromContext(ctx)

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			// Linear-growth backoff between conflict retries.
			select {
			case <-ctx.Done():
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return nil, fmt.Errorf("%w: %v", domain.ErrStoreTimeout, ctx.Err())
				}
				return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, ctx.Err())
			case <-time.After(r.retryBackoff * time.Duration(attempt)):
			}
		}

		profile, err := r.updateOnce(ctx, userID, fn)
		if errors.Is(err, domain.ErrTransactionConflict) {
			metrics.GrantConflictRetries.Inc()
			log.Debug("Profile write conflict, retrying", "user_id", userID, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, translateCtxErr(err)
		}
		return profile, nil
	}

	log.Warn("Profile write retries exhausted", "user_id", userID, "retries", r.maxRetries)
	return nil, fmt.Errorf("%w: write conflict retries exhausted", domain.ErrStoreUnavailable)
}

// updateOnce runs one read-mutate-write cycle. A version mismatch on write
// returns domain.ErrTransactionConflict so the caller can re-read and retry.
func (r *profileRepository) updateOnce(ctx context.Context, userID string, fn func(*domain.ProgressionProfile) error) (*domain.ProgressionProfile, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	existed := true
	profile, err := r.loadProfile(ctx, tx, userID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		existed = false
		profile = domain.NewProgressionProfile(userID)
	} else if err != nil {
		return nil, err
	}

	before := profile.Clone()
	if err := fn(profile); err != nil {
		// fn errors are validation outcomes, not store failures; abort
		// without retrying and let the sentinel flow to the caller.
		return nil, err
	}

	if existed {
		tag, err := tx.Exec(ctx,
			`UPDATE progression_profiles
			 SET total_reward = $2, friend_count = $3, version = version + 1, updated_at = now()
			 WHERE user_id = $1 AND version = $4`,
			userID, profile.TotalReward, profile.FriendCount, before.Version)
		if err != nil {
			if isSerializationFailure(err) {
				return nil, domain.ErrTransactionConflict
			}
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, domain.ErrTransactionConflict
		}
	} else {
		tag, err := tx.Exec(ctx,
			`INSERT INTO progression_profiles (user_id, total_reward, friend_count, version, created_at, updated_at)
			 VALUES ($1, $2, $3, 1, now(), now())
			 ON CONFLICT (user_id) DO NOTHING`,
			userID, profile.TotalReward, profile.FriendCount)
		if err != nil {
			return nil, fmt.Errorf("failed to insert profile: %w", err)
		}
		if tag.RowsAffected() == 0 {
			// Someone else created the row between our read and write.
			return nil, domain.ErrTransactionConflict
		}
	}

	if err := r.insertNewMemberships(ctx, tx, before, profile); err != nil {
		if isSerializationFailure(err) {
			return nil, domain.ErrTransactionConflict
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		if isSerializationFailure(err) {
			return nil, domain.ErrTransactionConflict
		}
		return nil, fmt.Errorf("failed to commit profile update: %w", err)
	}

	profile.Version = before.Version + 1
	return profile.Clone(), nil
}

func (r *profileRepository) GetTopProfiles(ctx context.Context, limit int) ([]*domain.ProgressionProfile, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, total_reward, friend_count, version, created_at, updated_at
		 FROM progression_profiles
		 ORDER BY total_reward DESC, user_id
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*domain.ProgressionProfile
	for rows.Next() {
		p := domain.NewProgressionProfile("")
		if err := rows.Scan(&p.UserID, &p.TotalReward, &p.FriendCount, &p.Version,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate top profiles: %w", err)
	}
	return profiles, nil
}

// insertMemberships writes all set members (SaveProfile path).
func (r *profileRepository) insertMemberships(ctx context.Context, tx pgx.Tx, profile *domain.ProgressionProfile) error {
	for taskID := range profile.CompletedTaskIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO profile_completed_tasks (user_id, task_id)
			 VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			profile.UserID, taskID); err != nil {
			return fmt.Errorf("failed to insert completed task: %w", err)
		}
	}
	for achievementID := range profile.GrantedAchievementIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO profile_granted_achievements (user_id, achievement_id)
			 VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			profile.UserID, achievementID); err != nil {
			return fmt.Errorf("failed to insert granted achievement: %w", err)
		}
	}
	return nil
}

// insertNewMemberships writes only the set members added by fn. Membership
// is permanent once added, so deletions never happen here.
func (r *profileRepository) insertNewMemberships(ctx context.Context, tx pgx.Tx, before, after *domain.ProgressionProfile) error {
	for taskID := range after.CompletedTaskIDs {
		if before.CompletedTaskIDs[taskID] {
			continue
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO profile_completed_tasks (user_id, task_id)
			 VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			after.UserID, taskID); err != nil {
			return fmt.Errorf("failed to insert completed task: %w", err)
		}
	}
	for achievementID := range after.GrantedAchievementIDs {
		if before.GrantedAchievementIDs[achievementID] {
			continue
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO profile_granted_achievements (user_id, achievement_id)
			 VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			after.UserID, achievementID); err != nil {
			return fmt.Errorf("failed to insert granted achievement: %w", err)
		}
	}
	return nil
}

// querier is the subset of pgx shared by pools and transactions.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// translateCtxErr maps context deadline expiry to the store-timeout sentinel
// so callers can distinguish a slow store from an unavailable one. fn
// validation sentinels never carry a deadline error and pass through intact.
func translateCtxErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrStoreTimeout, err)
	}
	return err
}

// isSerializationFailure reports whether err is a store-level concurrency
// conflict (serialization failure or deadlock) worth retrying.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
