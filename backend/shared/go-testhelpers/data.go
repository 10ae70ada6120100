package testhelpers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shiftly/mono-repo/backend/shared/go-models"
	"github.com/shiftly/mono-repo/backend/shared/go-utils"
	"github.com/stretchr/testify/require"
)

// CreateTestWork stores a work for employerID straight through the
// repository, bypassing the status machine. employeeID may be empty.
func (h *TestHelper) CreateTestWork(employerID string, status models.WorkStatusType, employeeID string) *models.Work {
	h.T.Helper()
	w := &models.Work{
		ID:           uuid.New(),
		Title:        "Test shift " + utils.RandomAlphanumericString(4),
		EmployerName: "Test Employer",
		EmployerID:   employerID,
		Wage:         15,
		PaymentType:  models.PaymentHourly,
		Status:       status,
		Location:     "1 Test St",
		Skills:       []string{"testing"},
		ManualCode:   utils.RandomAlphanumericString(models.ManualCodeLength),
		CreatedAt:    time.Now().UTC(),
	}
	if employeeID != "" {
		w.EmployeeID = &employeeID
	}
	require.NoError(h.T, h.WorkRepo.Create(h.Ctx, w), "Failed to create test work")
	return w
}
