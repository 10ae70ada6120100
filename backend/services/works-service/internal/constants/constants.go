package constants

import "time"

// Work creation
const (
	MaxManualCodeAttempts = 5
)

// Completion attempt throttle
const (
	AttemptLimiterCleanupInterval = 10 * time.Minute
)

// Common concurrency conflict / row-version conflict messages
const (
	ErrMsgRowVersionConflictRefresh = "The work has changed, please refresh"
)
