package models

import (
	"time"

	"github.com/google/uuid"
)

type WorkStatusType string

const (
	WorkStatusDraft     WorkStatusType = "draft"
	WorkStatusPublished WorkStatusType = "published"
	WorkStatusAssigned  WorkStatusType = "assigned"
	WorkStatusActive    WorkStatusType = "active"
	WorkStatusPaused    WorkStatusType = "paused"
	WorkStatusCompleted WorkStatusType = "completed"
	WorkStatusRejected  WorkStatusType = "rejected"
)

type PaymentType string

const (
	PaymentHourly PaymentType = "hourly"
	PaymentDaily  PaymentType = "daily"
	PaymentFixed  PaymentType = "fixed"
)

const (
	ManualCodeLength     = 8
	CompletionCodeLength = 6
)

// ActiveWorkStatuses are the statuses that occupy an employee's active slot.
var ActiveWorkStatuses = []WorkStatusType{
	WorkStatusAssigned,
	WorkStatusActive,
	WorkStatusPaused,
}

type Work struct {
	Versioned

	ID           uuid.UUID      `json:"id"`
	Title        string         `json:"title"`
	EmployerName string         `json:"employerName"`
	EmployerID   string         `json:"employerId"`
	EmployeeID   *string        `json:"employeeId"`
	Wage         float64        `json:"wage"`
	PaymentType  PaymentType    `json:"paymentType"`
	Status       WorkStatusType `json:"status"`
	Location     string         `json:"location"`
	Skills       []string       `json:"skills"`
	ManualCode   string         `json:"manualCode"`

	// Never serialized: the code is handed to the employer through the
	// issuing endpoint only.
	CompletionCode *string `json:"-"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	StartTime *time.Time `json:"startTime,omitempty"`
	EndTime   *time.Time `json:"endTime,omitempty"`
}

func (w *Work) GetID() string {
	return w.ID.String()
}

// IsAssignedTo reports whether employeeID currently holds the work.
func (w *Work) IsAssignedTo(employeeID string) bool {
	return w.EmployeeID != nil && *w.EmployeeID == employeeID
}

// HoldsActiveSlot reports whether the work counts against its employee's
// single active slot.
func (w *Work) HoldsActiveSlot() bool {
	return w.EmployeeID != nil && w.Status.IsActive()
}

// IsActive is true for assigned, active and paused.
func (s WorkStatusType) IsActive() bool {
	switch s {
	case WorkStatusAssigned, WorkStatusActive, WorkStatusPaused:
		return true
	}
	return false
}

// AcceptsCompletionCode is true while a completion code may be issued or redeemed.
func (s WorkStatusType) AcceptsCompletionCode() bool {
	return s == WorkStatusActive || s == WorkStatusPaused
}

func (s WorkStatusType) IsValid() bool {
	switch s {
	case WorkStatusDraft, WorkStatusPublished, WorkStatusAssigned, WorkStatusActive,
		WorkStatusPaused, WorkStatusCompleted, WorkStatusRejected:
		return true
	}
	return false
}

// Clone returns a deep copy, so stores can hand out values callers may mutate.
func (w *Work) Clone() *Work {
	if w == nil {
		return nil
	}
	c := *w
	if w.EmployeeID != nil {
		c.EmployeeID = ptrCopy(*w.EmployeeID)
	}
	if w.CompletionCode != nil {
		c.CompletionCode = ptrCopy(*w.CompletionCode)
	}
	if w.StartTime != nil {
		c.StartTime = ptrCopy(*w.StartTime)
	}
	if w.EndTime != nil {
		c.EndTime = ptrCopy(*w.EndTime)
	}
	if w.Skills != nil {
		c.Skills = append([]string(nil), w.Skills...)
	}
	return &c
}

func ptrCopy[T any](v T) *T {
	return &v
}
