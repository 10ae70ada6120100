package routes

const (
	// Health & metrics
	Health  = "/health"
	Metrics = "/metrics"

	// Registry
	Works        = "/works"
	WorksActive  = "/works/active"
	WorksResolve = "/works/resolve"
	WorksByCode  = "/works/by-code/{manualCode}"
	WorkByID     = "/works/{id}"

	// Employee actions
	WorkAssign   = "/works/{id}/assign"
	WorkStart    = "/works/{id}/start"
	WorkPause    = "/works/{id}/pause"
	WorkResume   = "/works/{id}/resume"
	WorkRelease  = "/works/{id}/release"
	WorkComplete = "/works/{id}/complete"

	// Employer actions
	WorkCompletionCode = "/works/{id}/completion-code"
	WorkPublish        = "/works/{id}/publish"
	WorkReject         = "/works/{id}/reject"
)
