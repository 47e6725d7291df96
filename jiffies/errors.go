package jiffies

import (
	"errors"
)

// Standard errors.
var (
	// ErrInvalidRate is returned when a tick rate is outside the supported
	// range, see MinRate and MaxRate.
	ErrInvalidRate = errors.New("jiffies: invalid rate")

	// ErrRunning is returned by SysTick.Run if it is already running.
	ErrRunning = errors.New("jiffies: systick is already running")
)
