package core

import "errors"

// Per-item failures. None of these abort a run; the pipeline logs them and
// moves on to the next candidate.
var (
	ErrTransport          = errors.New("model transport error")
	ErrSafetyBlocked      = errors.New("content blocked by safety filters")
	ErrTruncatedOutput    = errors.New("response truncated due to token limit")
	ErrMalformedResponse  = errors.New("malformed model response")
	ErrMissingFields      = errors.New("missing theme or summary")
	ErrContentTooShort    = errors.New("content too short")
	ErrSummaryTooShort    = errors.New("summary too short")
	ErrUnclassifiedTheme  = errors.New("theme not in taxonomy")
	ErrPersistenceCorrupt = errors.New("persisted payload is corrupt")
)
