package board

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-flightcore/schedule"
)

// ErrWatchdogTimeout is returned by Watchdog.Run if the watchdog was not fed
// within the timeout, i.e. the scheduler has stalled.
var ErrWatchdogTimeout = errors.New("board: watchdog timeout")

// Watchdog is fed by the scheduler, and monitored by an independent
// goroutine, which fails if it is not fed in time.
type Watchdog struct {
	feeds atomic.Uint64
	rate  schedule.Rate
}

var (
	_ schedule.Schedulable = (*Watchdog)(nil)
	_ schedule.Namer       = (*Watchdog)(nil)
)

// NewWatchdog initializes a new Watchdog.
func NewWatchdog(rate schedule.Rate) *Watchdog {
	return &Watchdog{rate: rate}
}

func (x *Watchdog) Rate() schedule.Rate { return x.rate }

func (x *Watchdog) Name() string { return `watchdog` }

// Schedule feeds the watchdog.
func (x *Watchdog) Schedule() bool {
	x.feeds.Add(1)
	return true
}

// Feeds returns the number of times the watchdog has been fed.
func (x *Watchdog) Feeds() uint64 {
	return x.feeds.Load()
}

// Run checks the watchdog has been fed, every timeout, until ctx is done.
func (x *Watchdog) Run(ctx context.Context, timeout time.Duration) error {
	ticker := time.NewTicker(timeout)
	defer ticker.Stop()
	last := x.feeds.Load()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			feeds := x.feeds.Load()
			if feeds == last {
				return ErrWatchdogTimeout
			}
			last = feeds
		}
	}
}
