package jiffies

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-flightcore/logging"
)

// for testing purposes
var (
	timeNow       = time.Now
	timeNewTicker = time.NewTicker
)

// SysTick is the periodic timer interrupt, delivering a steady tick at a fixed
// rate, to an ordered set of callbacks, e.g. Clock.Tick followed by the root
// Scheduler's Schedule.
//
// Callbacks run sequentially, on the goroutine calling Run (or Step). A tick
// whose callbacks take longer than one period is recorded as an overrun, and
// the timer does not attempt to catch up on the missed ticks.
type SysTick struct {
	callbacks []func()
	logger    *logging.Logger
	throttle  *logging.Throttle
	period    time.Duration
	rate      uint
	ticks     atomic.Uint64
	overruns  atomic.Uint64
	running   atomic.Bool
}

// NewSysTick initializes a new SysTick, at the given rate, which must be
// within [MinRate, MaxRate].
func NewSysTick(rate uint, opts ...Option) (*SysTick, error) {
	if err := validateRate(rate); err != nil {
		return nil, err
	}
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	x := SysTick{
		callbacks: cfg.callbacks,
		logger:    cfg.logger,
		period:    time.Second / time.Duration(rate),
		rate:      rate,
	}
	if x.logger != nil {
		x.throttle = logging.NewThrottle(time.Second, 1)
	}
	return &x, nil
}

// Run delivers ticks until ctx is done, returning ctx.Err(). A panic from any
// callback propagates.
func (x *SysTick) Run(ctx context.Context) error {
	if !x.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer x.running.Store(false)

	if err := ctx.Err(); err != nil {
		return err
	}

	ticker := timeNewTicker(x.period)
	defer ticker.Stop()

	x.logger.Info().
		Uint64(`rate`, uint64(x.rate)).
		Dur(`period`, x.period).
		Log(`systick started`)

	for {
		select {
		case <-ctx.Done():
			x.logger.Info().
				Uint64(`ticks`, x.ticks.Load()).
				Uint64(`overruns`, x.overruns.Load()).
				Log(`systick stopped`)
			return ctx.Err()
		case <-ticker.C:
			x.tick()
		}
	}
}

// Step synchronously delivers n ticks, and is intended for deterministic
// simulation and tests. It must not be called concurrently with Run.
func (x *SysTick) Step(n int) {
	for range n {
		x.tick()
	}
}

func (x *SysTick) tick() {
	start := timeNow()
	for _, fn := range x.callbacks {
		fn()
	}
	ticks := x.ticks.Add(1)
	if elapsed := timeNow().Sub(start); elapsed > x.period {
		overruns := x.overruns.Add(1)
		if x.logger != nil && x.throttle.Allow(`overrun`) {
			x.logger.Warning().
				Uint64(`tick`, ticks).
				Dur(`elapsed`, elapsed).
				Dur(`period`, x.period).
				Uint64(`overruns`, overruns).
				Log(`systick overrun`)
		}
	}
}

// Rate returns the tick rate, in Hz.
func (x *SysTick) Rate() uint {
	return x.rate
}

// Period returns the interval between ticks.
func (x *SysTick) Period() time.Duration {
	return x.period
}

// Ticks returns the number of ticks delivered.
func (x *SysTick) Ticks() uint64 {
	return x.ticks.Load()
}

// Overruns returns the number of ticks whose callbacks took longer than one
// period.
func (x *SysTick) Overruns() uint64 {
	return x.overruns.Load()
}
