package handler

// Generic HTTP error messages for client responses.
// These messages intentionally do not expose internal error details.
// Both handlers and tests should reference these constants to maintain consistency.
const (
	ErrMsgMethodNotAllowed  = "Method not allowed"
	ErrMsgInvalidRequest    = "Invalid request body"
	ErrMsgMissingQueryParam = "Missing %s query parameter"
	ErrMsgInvalidLimit      = "Invalid limit parameter"

	ErrMsgCompleteTaskFailed      = "Failed to complete quest"
	ErrMsgGetProfileFailed        = "Failed to retrieve profile"
	ErrMsgGetTasksFailed          = "Failed to retrieve quests"
	ErrMsgGetAchievementsFailed   = "Failed to retrieve achievements"
	ErrMsgGetLeaderboardFailed    = "Failed to retrieve leaderboard"
	ErrMsgCheckAchievementsFailed = "Failed to check achievements"
)

// Success messages for API responses
const (
	MsgCacheClearedSuccess    = "Caches cleared successfully"
	MsgCatalogReloadedSuccess = "Catalogs reloaded successfully"
)
