package domain

import "errors"

var (
	// ErrMissingParameter is returned when a required query parameter is absent.
	ErrMissingParameter = errors.New("missing parameter")

	// ErrInvalidParameter is returned when a query parameter cannot be parsed or is out of range.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrSourceUnavailable is returned when the remote dataset cannot be fetched or decoded.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrPersistence is returned when the store cannot complete a write.
	ErrPersistence = errors.New("persistence error")
)
