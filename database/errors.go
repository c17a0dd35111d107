package database

import "errors"

// Store sentinel errors. Implementations wrap these so callers can use errors.Is.
var (
	ErrNotFound     = errors.New("document not found")
	ErrDuplicate    = errors.New("duplicate key")
	ErrStale        = errors.New("document changed or closed concurrently")
	ErrInsufficient = errors.New("insufficient quantity on hand")
)
