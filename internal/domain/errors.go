package domain

import "errors"

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	// Task completion errors
	ErrMsgTaskNotFound         = "task not found"
	ErrMsgTaskInactive         = "task is inactive"
	ErrMsgTaskAlreadyCompleted = "task already completed"
	ErrMsgPrerequisitesNotMet  = "prerequisites not met"

	// Profile errors
	ErrMsgProfileNotFound = "profile not found"
	ErrMsgProfileNotReady = "profile not confirmed yet"

	// Store errors
	ErrMsgStoreTimeout        = "store timeout"
	ErrMsgTransactionConflict = "transaction conflict"
	ErrMsgStoreUnavailable    = "store unavailable"

	// Achievement errors
	ErrMsgAchievementCheckFailed = "achievement check failed"
	ErrMsgAchievementNotFound    = "achievement not found"

	// Input errors
	ErrMsgInvalidInput = "invalid input"
)

// Common domain errors
// These errors should be used consistently across all layers of the application.
// Wrap these errors with fmt.Errorf("%w: %s", domain.ErrXxx, details) for additional context.
var (
	// Task completion errors. These are validation failures returned
	// synchronously to the caller and never retried.
	ErrTaskNotFound         = errors.New(ErrMsgTaskNotFound)
	ErrTaskInactive         = errors.New(ErrMsgTaskInactive)
	ErrTaskAlreadyCompleted = errors.New(ErrMsgTaskAlreadyCompleted)
	ErrPrerequisitesNotMet  = errors.New(ErrMsgPrerequisitesNotMet)

	// Profile errors
	ErrProfileNotFound = errors.New(ErrMsgProfileNotFound)
	// ErrProfileNotReady rejects mutations attempted against a placeholder
	// profile synthesized during a fetch-timeout fallback.
	ErrProfileNotReady = errors.New(ErrMsgProfileNotReady)

	// Store errors. ErrTransactionConflict is retried internally and only
	// surfaces when retries are exhausted; callers see ErrStoreUnavailable.
	ErrStoreTimeout        = errors.New(ErrMsgStoreTimeout)
	ErrTransactionConflict = errors.New(ErrMsgTransactionConflict)
	ErrStoreUnavailable    = errors.New(ErrMsgStoreUnavailable)

	// Achievement errors. Never unwinds a committed reward.
	ErrAchievementCheckFailed = errors.New(ErrMsgAchievementCheckFailed)
	ErrAchievementNotFound    = errors.New(ErrMsgAchievementNotFound)

	// Validation errors
	ErrInvalidInput = errors.New(ErrMsgInvalidInput)
)
