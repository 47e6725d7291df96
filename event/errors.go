package event

import (
	"errors"
)

// Standard errors.
var (
	// ErrNilTarget is returned when a Trigger is constructed without a target.
	ErrNilTarget = errors.New("event: nil target")

	// ErrZeroRate is returned when a Trigger is configured with a zero rate.
	ErrZeroRate = errors.New("event: rate must be positive")
)
