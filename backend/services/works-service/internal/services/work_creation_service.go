package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shiftly/mono-repo/backend/services/works-service/internal/constants"
	"github.com/shiftly/mono-repo/backend/services/works-service/internal/dtos"
	"github.com/shiftly/mono-repo/backend/services/works-service/internal/metrics"
	internal_utils "github.com/shiftly/mono-repo/backend/services/works-service/internal/utils"
	"github.com/shiftly/mono-repo/backend/shared/go-models"
	"github.com/shiftly/mono-repo/backend/shared/go-repositories"
	"github.com/shiftly/mono-repo/backend/shared/go-utils"
	"github.com/sirupsen/logrus"
)

/*
CreateWork stores a new draft or published work with a fresh manual code.
A manual-code collision is retried with a new code up to
constants.MaxManualCodeAttempts times.
*/
func (s *WorkService) CreateWork(ctx context.Context, req dtos.CreateWorkRequest) (*models.Work, error) {
	status := models.WorkStatusType(req.Status)
	if status == "" {
		status = models.WorkStatusPublished
	}
	if status != models.WorkStatusDraft && status != models.WorkStatusPublished {
		return nil, fmt.Errorf("%w: new works must be draft or published", internal_utils.ErrInvalidPayload)
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.EmployerID) == "" {
		return nil, fmt.Errorf("%w: title and employerId are required", internal_utils.ErrInvalidPayload)
	}
	if req.Wage < 0 {
		return nil, fmt.Errorf("%w: wage must not be negative", internal_utils.ErrInvalidPayload)
	}

	skills := req.Skills
	if skills == nil {
		skills = []string{}
	}
	w := &models.Work{
		ID:           uuid.New(),
		Title:        strings.TrimSpace(req.Title),
		EmployerName: req.EmployerName,
		EmployerID:   strings.TrimSpace(req.EmployerID),
		Wage:         req.Wage,
		PaymentType:  models.PaymentType(req.PaymentType),
		Status:       status,
		Location:     req.Location,
		Skills:       skills,
		StartTime:    req.StartTime,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.insertWithManualCode(ctx, w); err != nil {
		return nil, err
	}

	metrics.WorksCreated.Inc()
	utils.Logger.WithFields(logrus.Fields{
		"work_id":     w.ID,
		"employer_id": w.EmployerID,
		"manual_code": w.ManualCode,
	}).Info("Work created")
	return w, nil
}

func (s *WorkService) insertWithManualCode(ctx context.Context, w *models.Work) error {
	for attempt := 1; attempt <= constants.MaxManualCodeAttempts; attempt++ {
		w.ManualCode = s.newManualCode()
		err := s.repo.Create(ctx, w)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repositories.ErrManualCodeTaken) {
			return fmt.Errorf("creating work: %w", err)
		}
		utils.Logger.WithField("attempt", attempt).Warn("Manual code collision, retrying")
	}
	return internal_utils.ErrManualCodeExhausted
}
