package journal

import "errors"

// Sentinel errors returned by the journal service. The HTTP layer maps
// them to response codes with errors.Is.
var (
	ErrNotFound     = errors.New("journal: not found")
	ErrInvalidInput = errors.New("journal: invalid input")
)
