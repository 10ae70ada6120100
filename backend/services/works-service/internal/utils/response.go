package utils

// Error codes specific to works-service only.
const (
	ErrCodeWorkNotFound          = "work_not_found"
	ErrCodeAlreadyAssigned       = "already_assigned"
	ErrCodeEmployeeAlreadyActive = "employee_already_active"
	ErrCodeInvalidState          = "invalid_state"
	ErrCodeCodeMismatch          = "code_mismatch"
	ErrCodeNoCodeIssued          = "no_code_issued"
	ErrCodeNotAssignedToEmployee = "not_assigned_to_employee"
	ErrCodeNotWorkEmployer       = "not_work_employer"
	ErrCodeSubjectMismatch       = "subject_mismatch"
	ErrCodeInvalidCompletionCode = "invalid_completion_code"
	ErrCodeInvalidManualCode     = "invalid_manual_code"
	ErrCodeMultipleActiveWorks   = "multiple_active_works"
)
