package models

// WorkTransition is a named edge of the work status machine.
type WorkTransition struct {
	Name string
	From WorkStatusType
	To   WorkStatusType
}

const (
	TransitionPublish  = "publish"
	TransitionReject   = "reject"
	TransitionAssign   = "assign"
	TransitionStart    = "start"
	TransitionRelease  = "release"
	TransitionPause    = "pause"
	TransitionResume   = "resume"
	TransitionComplete = "complete"
)

// WorkTransitions is the full status machine. Anything not listed is refused.
var WorkTransitions = []WorkTransition{
	{Name: TransitionPublish, From: WorkStatusDraft, To: WorkStatusPublished},
	{Name: TransitionReject, From: WorkStatusDraft, To: WorkStatusRejected},
	{Name: TransitionReject, From: WorkStatusPublished, To: WorkStatusRejected},
	{Name: TransitionAssign, From: WorkStatusPublished, To: WorkStatusAssigned},
	{Name: TransitionStart, From: WorkStatusAssigned, To: WorkStatusActive},
	{Name: TransitionRelease, From: WorkStatusAssigned, To: WorkStatusPublished},
	{Name: TransitionPause, From: WorkStatusActive, To: WorkStatusPaused},
	{Name: TransitionResume, From: WorkStatusPaused, To: WorkStatusActive},
	{Name: TransitionComplete, From: WorkStatusActive, To: WorkStatusCompleted},
	{Name: TransitionComplete, From: WorkStatusPaused, To: WorkStatusCompleted},
}

// NextStatus returns the target status of the named transition out of from.
func NextStatus(from WorkStatusType, name string) (WorkStatusType, bool) {
	for _, t := range WorkTransitions {
		if t.From == from && t.Name == name {
			return t.To, true
		}
	}
	return "", false
}

// AvailableTransitions lists the transitions leaving from.
func AvailableTransitions(from WorkStatusType) []WorkTransition {
	r := []WorkTransition{}
	for _, t := range WorkTransitions {
		if t.From == from {
			r = append(r, t)
		}
	}
	return r
}
