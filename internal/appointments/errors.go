package appointments

import "errors"

var (
	// ErrMissingPracticeID is returned when no practice scope is supplied
	ErrMissingPracticeID = errors.New("practice id is required")

	// ErrMissingDateTime is returned when date or time is absent
	ErrMissingDateTime = errors.New("appointment date and time are required")

	// ErrInvalidDateTime is returned when date or time cannot be parsed
	ErrInvalidDateTime = errors.New("appointment date or time is malformed")

	// ErrInvalidStatus is returned for an unknown appointment status
	ErrInvalidStatus = errors.New("invalid appointment status")

	// ErrNotFound is returned when an appointment is not found
	ErrNotFound = errors.New("appointment not found")
)
