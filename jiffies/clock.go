package jiffies

import (
	"fmt"
	"sync/atomic"
	"time"
)

const (
	// MinRate is the minimum tick rate, in Hz.
	MinRate = 1
	// MaxRate is the maximum tick rate, in Hz.
	MaxRate = 10000
)

// Clock is a monotonic clock, derived from a tick count at a fixed rate. It
// is advanced by a single context (typically via SysTick), and may be read
// from any context.
type Clock struct {
	ticks atomic.Uint64
	rate  uint64
}

// New initializes a new Clock, for the given tick rate, which must be within
// [MinRate, MaxRate].
func New(rate uint) (*Clock, error) {
	if err := validateRate(rate); err != nil {
		return nil, err
	}
	return &Clock{rate: uint64(rate)}, nil
}

func validateRate(rate uint) error {
	if rate < MinRate || rate > MaxRate {
		return fmt.Errorf(`%w: %d not in [%d, %d]`, ErrInvalidRate, rate, MinRate, MaxRate)
	}
	return nil
}

// Tick advances the clock by one tick, returning the new tick count.
func (x *Clock) Tick() uint64 {
	return x.ticks.Add(1)
}

// Ticks returns the number of ticks since the clock started.
func (x *Clock) Ticks() uint64 {
	return x.ticks.Load()
}

// Rate returns the tick rate, in Hz.
func (x *Clock) Rate() uint {
	return uint(x.rate)
}

// Now returns the time since the clock started, with a resolution of one
// tick.
func (x *Clock) Now() time.Duration {
	ticks := x.ticks.Load()
	return time.Duration(ticks/x.rate)*time.Second +
		time.Duration(ticks%x.rate)*time.Second/time.Duration(x.rate)
}

// Uptime formats Now as seconds, with millisecond precision, e.g. "12.345".
func (x *Clock) Uptime() string {
	now := x.Now()
	return fmt.Sprintf(`%d.%03d`, now/time.Second, now%time.Second/time.Millisecond)
}
