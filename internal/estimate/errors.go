package estimate

import "errors"

var (
	// ErrInvalidInput is returned for a non-positive transfer rate or a negative file size.
	ErrInvalidInput = errors.New("invalid input")
	// ErrOverflow is returned when a duration does not fit in a time.Duration.
	ErrOverflow = errors.New("duration overflow")
)
