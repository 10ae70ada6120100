package repositories

import "errors"

var (
	ErrNotFound = errors.New("not_found")

	// Returned when a write would give a second work the same manual code.
	ErrManualCodeTaken = errors.New("manual_code_taken")

	// Returned when a write would give an employee a second work in
	// assigned/active/paused.
	ErrActiveSlotTaken = errors.New("active_slot_taken")
)
