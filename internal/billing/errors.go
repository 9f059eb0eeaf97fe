package billing

import "errors"

var (
	ErrMissingPracticeID = errors.New("billing: missing practice id")
	ErrNotConfigured     = errors.New("billing: stripe is not configured")
	ErrPracticeNotFound  = errors.New("billing: practice not found")
)
