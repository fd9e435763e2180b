package sdk

import "errors"

// Provider error taxonomy shared by all SDK clients. Transport problems are
// ErrUnavailable, a valid response without the requested record is
// ErrNotFound, and a response that violates the expected shape is
// ErrInvalidData.
var (
	ErrUnavailable = errors.New("provider unavailable")
	ErrNotFound    = errors.New("record not found")
	ErrInvalidData = errors.New("invalid provider data")
)
