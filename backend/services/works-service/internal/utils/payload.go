package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shiftly/mono-repo/backend/shared/go-models"
)

var (
	manualCodeRe     = regexp.MustCompile(`^[A-Z0-9]{8}$`)
	completionCodeRe = regexp.MustCompile(`^[0-9]{6}$`)
)

// WorkRef is what a scanned or typed payload points at: exactly one of
// ID or ManualCode is set.
type WorkRef struct {
	ID         *uuid.UUID
	ManualCode string
}

/*
ParseWorkPayload accepts the three shapes a client may submit:

  - a bare UUID token
  - a JSON object {"workId": "<uuid>"}
  - an 8-character manual code (case-insensitive)
*/
func ParseWorkPayload(raw string) (WorkRef, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return WorkRef{}, fmt.Errorf("%w: empty payload", ErrInvalidPayload)
	}

	// uuid.Parse also takes the braced and urn forms, so it goes before the
	// JSON branch.
	if id, err := uuid.Parse(s); err == nil {
		return WorkRef{ID: &id}, nil
	}

	if strings.HasPrefix(s, "{") {
		var body struct {
			WorkID string `json:"workId"`
		}
		if err := json.Unmarshal([]byte(s), &body); err != nil {
			return WorkRef{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		id, err := uuid.Parse(strings.TrimSpace(body.WorkID))
		if err != nil {
			return WorkRef{}, fmt.Errorf("%w: workId is not a valid id", ErrInvalidPayload)
		}
		return WorkRef{ID: &id}, nil
	}

	code, err := NormalizeManualCode(s)
	if err != nil {
		return WorkRef{}, err
	}
	return WorkRef{ManualCode: code}, nil
}

// NormalizeManualCode trims and upper-cases code, then checks it is
// 8 characters of [A-Z0-9].
func NormalizeManualCode(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if len(c) != models.ManualCodeLength || !manualCodeRe.MatchString(c) {
		return "", ErrInvalidManualCode
	}
	return c, nil
}

func IsValidManualCode(code string) bool {
	return manualCodeRe.MatchString(code)
}

// ValidateCompletionCode requires exactly six ASCII digits, nothing trimmed.
func ValidateCompletionCode(code string) error {
	if !completionCodeRe.MatchString(code) {
		return ErrInvalidCompletionCode
	}
	return nil
}
