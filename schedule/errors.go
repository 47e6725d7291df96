package schedule

import (
	"errors"
)

// Standard errors.
var (
	// ErrZeroRate is returned when a scheduler, or one of its tasks, declares
	// a rate of zero.
	ErrZeroRate = errors.New("schedule: rate must be positive")

	// ErrRateExceedsBase is returned when a task declares a rate greater than
	// the scheduler's base rate, which cannot be honored.
	ErrRateExceedsBase = errors.New("schedule: task rate exceeds base rate")

	// ErrNilTask is returned when a nil Schedulable is registered.
	ErrNilTask = errors.New("schedule: nil task")
)
