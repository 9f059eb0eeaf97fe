package voiceagent

import "errors"

var (
	ErrSessionNotFound = errors.New("voiceagent: call session not found")
	ErrMissingCallID   = errors.New("voiceagent: missing call id")
)
