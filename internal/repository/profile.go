package repository

import (
	"context"

	"github.com/kowshikb/kidQuest-sub000/internal/domain"
)

// ProfileRepository is the authoritative store for progression profiles.
// Every mutation goes through UpdateProfile's read-modify-write transaction;
// the engine never holds a profile as shared mutable memory and all reads
// return defensive copies.
type ProfileRepository interface {
	// GetProfile returns the user's profile or domain.ErrProfileNotFound.
	GetProfile(ctx context.Context, userID string) (*domain.ProgressionProfile, error)

	// SaveProfile upserts a profile wholesale. Used by registration and
	// seeding paths, not by the completion pipeline.
	SaveProfile(ctx context.Context, profile *domain.ProgressionProfile) error

	// UpdateProfile runs fn inside an optimistic-concurrency transaction:
	// the current profile (an empty one if the user has none yet) is read,
	// fn mutates it, and the write back is conditional on the version
	// observed at read time. On a conflicting concurrent write the whole
	// read-mutate-write cycle is retried with backoff; exhaustion returns
	// domain.ErrStoreUnavailable. An error from fn aborts the transaction
	// without retrying and is returned unwrapped, so validation sentinels
	// pass through to the caller.
	UpdateProfile(ctx context.Context, userID string, fn func(*domain.ProgressionProfile) error) (*domain.ProgressionProfile, error)

	// GetTopProfiles returns up to limit profiles ordered by total reward
	// descending. Leaderboard surface only.
	GetTopProfiles(ctx context.Context, limit int) ([]*domain.ProgressionProfile, error)
}
