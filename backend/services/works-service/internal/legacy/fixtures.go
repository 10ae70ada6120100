package legacy

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	internal_utils "github.com/shiftly/mono-repo/backend/services/works-service/internal/utils"
	"github.com/shiftly/mono-repo/backend/shared/go-models"
	"gopkg.in/yaml.v3"
)

// Fixture is one entry of a seed file:
//
//	works:
//	  - id: 5b0b6c4e-...        # optional, derived from title+employer otherwise
//	    title: Dishwasher
//	    employerId: R1
//	    status: published
//	    manualCode: ABCD1234    # optional
type Fixture struct {
	ID           string     `yaml:"id"`
	Title        string     `yaml:"title"`
	EmployerName string     `yaml:"employerName"`
	EmployerID   string     `yaml:"employerId"`
	EmployeeID   string     `yaml:"employeeId"`
	Wage         float64    `yaml:"wage"`
	PaymentType  string     `yaml:"paymentType"`
	Status       string     `yaml:"status"`
	Location     string     `yaml:"location"`
	Skills       []string   `yaml:"skills"`
	ManualCode   string     `yaml:"manualCode"`
	StartTime    *time.Time `yaml:"startTime"`
}

type fixtureFile struct {
	Works []Fixture `yaml:"works"`
}

// LoadFixtures decodes a seed file. Unknown keys are rejected so typos in
// hand-written fixtures surface early.
func LoadFixtures(r io.Reader, now time.Time) ([]*models.Work, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f fixtureFile
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding fixtures: %w", err)
	}

	works := make([]*models.Work, 0, len(f.Works))
	seenCodes := map[string]int{}
	for i, fx := range f.Works {
		w, err := fx.toWork(now)
		if err != nil {
			return nil, fmt.Errorf("fixture %d: %w", i, err)
		}
		if prev, dup := seenCodes[w.ManualCode]; dup {
			return nil, fmt.Errorf("fixture %d: manual code %s already used by fixture %d", i, w.ManualCode, prev)
		}
		seenCodes[w.ManualCode] = i
		works = append(works, w)
	}
	return works, nil
}

func (fx Fixture) toWork(now time.Time) (*models.Work, error) {
	if strings.TrimSpace(fx.Title) == "" || strings.TrimSpace(fx.EmployerID) == "" {
		return nil, fmt.Errorf("title and employerId are required")
	}

	var id uuid.UUID
	if fx.ID != "" {
		parsed, err := uuid.Parse(fx.ID)
		if err != nil {
			return nil, fmt.Errorf("id %q: %w", fx.ID, err)
		}
		id = parsed
	} else {
		id = uuid.NewSHA1(legacyNamespace, []byte(fx.EmployerID+"/"+fx.Title))
	}

	status := models.WorkStatusPublished
	if fx.Status != "" {
		status = models.WorkStatusType(strings.ToLower(fx.Status))
		if !status.IsValid() {
			return nil, fmt.Errorf("unknown status %q", fx.Status)
		}
	}

	var employeeID *string
	if fx.EmployeeID != "" {
		e := fx.EmployeeID
		employeeID = &e
	}
	if status.IsActive() != (employeeID != nil) && status != models.WorkStatusCompleted {
		return nil, fmt.Errorf("status %s and employeeId %q do not agree", status, fx.EmployeeID)
	}

	code := DerivedManualCode(id, 0)
	if fx.ManualCode != "" {
		c, err := internal_utils.NormalizeManualCode(fx.ManualCode)
		if err != nil {
			return nil, fmt.Errorf("manualCode %q: %w", fx.ManualCode, err)
		}
		code = c
	}

	skills := fx.Skills
	if skills == nil {
		skills = []string{}
	}
	return &models.Work{
		ID:           id,
		Title:        fx.Title,
		EmployerName: fx.EmployerName,
		EmployerID:   fx.EmployerID,
		EmployeeID:   employeeID,
		Wage:         fx.Wage,
		PaymentType:  models.PaymentType(fx.PaymentType),
		Status:       status,
		Location:     fx.Location,
		Skills:       skills,
		ManualCode:   code,
		StartTime:    fx.StartTime,
		CreatedAt:    now.UTC(),
	}, nil
}
