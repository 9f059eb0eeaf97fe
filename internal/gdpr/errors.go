package gdpr

import "errors"

var (
	ErrMissingPracticeID = errors.New("gdpr: missing practice id")
	ErrMissingPatientID  = errors.New("gdpr: missing patient id")
	ErrInvalidType       = errors.New("gdpr: request type must be export or erasure")
	ErrNotFound          = errors.New("gdpr: request not found")
	ErrNotCompleted      = errors.New("gdpr: request not completed yet")
)
