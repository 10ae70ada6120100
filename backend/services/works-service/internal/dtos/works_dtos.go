package dtos

import (
	"time"

	"github.com/shiftly/mono-repo/backend/shared/go-models"
)

/*
CreateWorkRequest is the body of POST /works.
Status defaults to "published" when omitted.
*/
type CreateWorkRequest struct {
	Title        string     `json:"title" validate:"required,max=200"`
	EmployerName string     `json:"employerName" validate:"max=200"`
	EmployerID   string     `json:"employerId" validate:"required"`
	Wage         float64    `json:"wage" validate:"gte=0"`
	PaymentType  string     `json:"paymentType" validate:"omitempty,oneof=hourly daily fixed"`
	Status       string     `json:"status" validate:"omitempty,oneof=draft published"`
	Location     string     `json:"location"`
	Skills       []string   `json:"skills" validate:"dive,required"`
	StartTime    *time.Time `json:"startTime,omitempty"`
}

// EmployeeActionRequest is the body of assign/start/pause/resume/release.
type EmployeeActionRequest struct {
	EmployeeID string `json:"employeeId" validate:"required"`
}

// EmployerActionRequest is the body of publish/reject.
type EmployerActionRequest struct {
	EmployerID string `json:"employerId" validate:"required"`
}

// CompleteWorkRequest is the body of POST /works/{id}/complete. The code
// format is checked by the verifier so the error code stays specific.
type CompleteWorkRequest struct {
	EmployeeID string `json:"employeeId" validate:"required"`
	Code       string `json:"code"`
}

// ResolveWorkRequest carries a scanned QR payload or a typed manual code.
type ResolveWorkRequest struct {
	Payload string `json:"payload" validate:"required"`
}

type CompletionCodeResponse struct {
	Code string `json:"code"`
}

type WorkListResponse struct {
	Results []*models.Work `json:"results"`
	Total   int            `json:"total"`
}

type HealthCheckResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}
