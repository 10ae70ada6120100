package legacy

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	internal_utils "github.com/shiftly/mono-repo/backend/services/works-service/internal/utils"
	"github.com/shiftly/mono-repo/backend/shared/go-models"
)

// legacyNamespace derives stable work ids for legacy rows whose id is not a
// UUID, so re-running an import hits the same records.
var legacyNamespace = uuid.MustParse("6f1d4a0e-5c2b-4b8e-9a3d-2f7c1e9b0a44")

const manualCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// MapStatus translates a legacy status name. hasEmployee decides where a
// legacy "pending" row lands.
func MapStatus(legacy string, hasEmployee bool) (models.WorkStatusType, error) {
	s := strings.ToLower(strings.TrimSpace(legacy))
	switch s {
	case "", "pending", "open":
		if hasEmployee {
			return models.WorkStatusAssigned, nil
		}
		return models.WorkStatusPublished, nil
	case "in_progress", "inprogress", "started":
		return models.WorkStatusActive, nil
	case "done", "finished":
		return models.WorkStatusCompleted, nil
	case "cancelled", "canceled":
		return models.WorkStatusRejected, nil
	}
	if st := models.WorkStatusType(s); st.IsValid() {
		return st, nil
	}
	return "", fmt.Errorf("unknown legacy status %q", legacy)
}

// ParseSkills accepts a JSON array or a comma separated list.
func ParseSkills(raw string) []string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return []string{}
	}
	if strings.HasPrefix(s, "[") {
		var list []string
		if err := json.Unmarshal([]byte(s), &list); err == nil {
			return cleanSkills(list)
		}
		s = strings.Trim(s, "[]")
	}
	return cleanSkills(strings.Split(s, ","))
}

func cleanSkills(in []string) []string {
	out := make([]string, 0, len(in))
	for _, sk := range in {
		sk = strings.Trim(strings.TrimSpace(sk), `"`)
		if sk != "" {
			out = append(out, sk)
		}
	}
	return out
}

func parseTime(raw string) (*time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unparseable time %q", raw)
}

// WorkID returns the id a legacy row is stored under.
func WorkID(legacyID string) uuid.UUID {
	id := strings.TrimSpace(legacyID)
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed
	}
	return uuid.NewSHA1(legacyNamespace, []byte(id))
}

// DerivedManualCode is a stable manual code for a work that has none.
// salt > 0 yields alternatives when the first one is taken.
func DerivedManualCode(id uuid.UUID, salt int) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s/%d", id, salt)))
	b := make([]byte, models.ManualCodeLength)
	for i := range b {
		b[i] = manualCodeAlphabet[int(sum[i])%len(manualCodeAlphabet)]
	}
	return string(b)
}

/*
ToWork converts a legacy row. Problems the row can survive (a bad manual
code, an unparseable timestamp, an active status with no employee) are
repaired and reported as warnings; a row without an id or with an unknown
status is an error.
*/
func ToWork(r Row, now time.Time) (*models.Work, []string, error) {
	if !r.ID.Valid || strings.TrimSpace(r.ID.String) == "" {
		return nil, nil, fmt.Errorf("legacy row without id")
	}
	legacyID := strings.TrimSpace(r.ID.String)
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf("%s: ", legacyID)+fmt.Sprintf(format, args...))
	}

	var employeeID *string
	if r.EmployeeID.Valid && strings.TrimSpace(r.EmployeeID.String) != "" {
		e := strings.TrimSpace(r.EmployeeID.String)
		employeeID = &e
	}

	status, err := MapStatus(r.Status.String, employeeID != nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", legacyID, err)
	}
	if status.IsActive() && employeeID == nil {
		warn("status %s without an employee, importing as published", status)
		status = models.WorkStatusPublished
	}
	if employeeID != nil && (status == models.WorkStatusDraft || status == models.WorkStatusPublished) {
		warn("dropping employee %s from unassigned work", *employeeID)
		employeeID = nil
	}

	w := &models.Work{
		ID:           WorkID(legacyID),
		Title:        strings.TrimSpace(r.Title.String),
		EmployerName: r.EmployerName.String,
		EmployerID:   strings.TrimSpace(r.EmployerID.String),
		EmployeeID:   employeeID,
		Wage:         r.Wage.Float64,
		PaymentType:  models.PaymentType(strings.ToLower(strings.TrimSpace(r.PaymentType.String))),
		Status:       status,
		Location:     r.Location.String,
		Skills:       ParseSkills(r.Skills.String),
		UpdatedAt:    now.UTC(),
	}

	if code, err := internal_utils.NormalizeManualCode(r.ManualCode.String); err == nil {
		w.ManualCode = code
	} else {
		w.ManualCode = DerivedManualCode(w.ID, 0)
		if r.ManualCode.String != "" {
			warn("invalid manual code %q replaced with %s", r.ManualCode.String, w.ManualCode)
		}
	}

	if r.CompletionCode.Valid && r.CompletionCode.String != "" {
		code := strings.TrimSpace(r.CompletionCode.String)
		switch {
		case !status.AcceptsCompletionCode():
		case internal_utils.ValidateCompletionCode(code) != nil:
			warn("dropping malformed completion code")
		default:
			w.CompletionCode = &code
		}
	}

	created, err := parseTime(r.CreatedAt.String)
	if err != nil {
		warn("%v", err)
	}
	if created == nil {
		created = &now
	}
	w.CreatedAt = created.UTC()

	if w.StartTime, err = parseTime(r.StartTime.String); err != nil {
		warn("start_time: %v", err)
	}
	if w.EndTime, err = parseTime(r.EndTime.String); err != nil {
		warn("end_time: %v", err)
	}
	return w, warnings, nil
}
