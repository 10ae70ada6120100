package services

import (
	"context"
	"fmt"

	"github.com/shiftly/mono-repo/backend/services/works-service/internal/metrics"
	"github.com/shiftly/mono-repo/backend/shared/go-models"
	"github.com/shiftly/mono-repo/backend/shared/go-repositories"
	"github.com/shiftly/mono-repo/backend/shared/go-utils"
	"github.com/sirupsen/logrus"
)

// AuditService looks for store states the write path should never produce.
type AuditService struct {
	repo repositories.WorkRepository
}

func NewAuditService(repo repositories.WorkRepository) *AuditService {
	return &AuditService{repo: repo}
}

/*
RunActiveSlotAudit reports every employee holding more than one work in
assigned/active/paused and refreshes the per-status gauges. It returns the
offending employees with their active-work counts.
*/
func (s *AuditService) RunActiveSlotAudit(ctx context.Context) (map[string]int, error) {
	violations, err := s.repo.ListEmployeesWithMultipleActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("active slot audit: %w", err)
	}
	for employeeID, n := range violations {
		utils.Logger.WithFields(logrus.Fields{
			"employee_id":  employeeID,
			"active_works": n,
		}).Error("Employee holds more than one active work")
	}
	metrics.ActiveSlotViolations.Set(float64(len(violations)))

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return violations, fmt.Errorf("counting works by status: %w", err)
	}
	for _, st := range []models.WorkStatusType{
		models.WorkStatusDraft,
		models.WorkStatusPublished,
		models.WorkStatusAssigned,
		models.WorkStatusActive,
		models.WorkStatusPaused,
		models.WorkStatusCompleted,
		models.WorkStatusRejected,
	} {
		metrics.ByStatus.WithLabelValues(string(st)).Set(float64(counts[st]))
	}

	if len(violations) == 0 {
		utils.Logger.Debug("Active slot audit clean")
	}
	return violations, nil
}
