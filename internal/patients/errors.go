package patients

import "errors"

var (
	ErrMissingPracticeID = errors.New("patients: missing practice id")
	ErrMissingName       = errors.New("patients: first and last name are required")
	ErrMissingContact    = errors.New("patients: email or phone is required")
	ErrNotFound          = errors.New("patients: patient not found")
)
