package event

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-flightcore/logging"
	"github.com/joeycumines/go-flightcore/schedule"
)

type (
	// Trigger runs a target schedule.Schedulable in response to Notify, at
	// most at a fixed rate.
	//
	// Notify may be called from any context. Requests made while one is
	// already pending coalesce. Each pending request is served by the
	// configured Pender (see WithPender), or by polling, via Schedule, e.g.
	// as a task of a schedule.Scheduler. A request that arrives too soon after
	// the previous run is deferred, and will be served by the first poll
	// after the interval elapses, so a Trigger that is never polled may leave
	// deferred requests pending.
	//
	// The target is never run concurrently with itself.
	Trigger struct {
		target   schedule.Schedulable
		pre      schedule.PreScheduler
		post     schedule.PostScheduler
		clock    Clock
		pender   Pender
		logger   *logging.Logger
		throttle *logging.Throttle
		pend     func()
		name     string
		interval time.Duration
		rate     schedule.Rate
		pollRate schedule.Rate
		periodic bool

		// guarded by running
		last time.Duration
		ran  bool

		pending atomic.Bool
		running atomic.Bool

		notifies  atomic.Uint64
		coalesced atomic.Uint64
		deferred  atomic.Uint64
		runs      atomic.Uint64
		busy      atomic.Uint64
		failed    atomic.Uint64
	}

	// TriggerStats are cumulative counters, for a Trigger.
	TriggerStats struct {
		// Notifies is the number of calls to Notify.
		Notifies uint64
		// Coalesced is the number of notifications that arrived while a
		// request was already pending.
		Coalesced uint64
		// Deferred is the number of times a pending request could not be
		// served, due to the maximum rate.
		Deferred uint64
		// Runs is the number of times the target was run.
		Runs uint64
		// Busy is the number of times a request could not be served, because
		// the target was already running, in another context.
		Busy uint64
		// PendFailures is the number of requests the Pender rejected.
		PendFailures uint64
	}
)

var (
	// compile time assertions

	_ Notify               = (*Trigger)(nil)
	_ schedule.Schedulable = (*Trigger)(nil)
	_ schedule.Namer       = (*Trigger)(nil)
)

// NewTrigger initializes a new Trigger, which runs target at most rate times
// per second.
func NewTrigger(target schedule.Schedulable, rate schedule.Rate, opts ...Option) (*Trigger, error) {
	if target == nil {
		return nil, ErrNilTarget
	}
	if rate == 0 {
		return nil, ErrZeroRate
	}

	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	x := Trigger{
		target:   target,
		clock:    cfg.clock,
		pender:   cfg.pender,
		logger:   cfg.logger,
		name:     cfg.name,
		interval: time.Second / time.Duration(rate),
		rate:     rate,
		pollRate: cfg.pollRate,
		periodic: cfg.periodic,
	}
	x.pre, _ = target.(schedule.PreScheduler)
	x.post, _ = target.(schedule.PostScheduler)
	x.pend = x.serveNotify
	if x.clock == nil {
		x.clock = newMonotonicClock()
	}
	if x.pollRate == 0 {
		x.pollRate = rate
	}
	if x.name == `` {
		if namer, ok := target.(schedule.Namer); ok {
			x.name = namer.Name()
		}
		if x.name == `` {
			x.name = fmt.Sprintf(`%T`, target)
		}
	}
	if x.logger != nil {
		x.throttle = logging.NewThrottle(time.Second, 1)
	}

	return &x, nil
}

// Notify requests that the target be run. It never blocks, and is safe to
// call from any context.
func (x *Trigger) Notify() {
	x.notifies.Add(1)
	if !x.pending.CompareAndSwap(false, true) {
		x.coalesced.Add(1)
		return
	}
	if x.pender != nil {
		if err := x.pender.Pend(x.pend); err != nil {
			// still pending, will be served by polling
			n := x.failed.Add(1)
			if x.logger != nil && x.throttle.Allow(`pend`) {
				x.logger.Warning().
					Str(`trigger`, x.name).
					Err(err).
					Uint64(`failures`, n).
					Log(`failed to pend trigger`)
			}
		}
	}
}

// Rate returns the poll rate, see WithPollRate.
func (x *Trigger) Rate() schedule.Rate {
	return x.pollRate
}

// MaxRate returns the maximum rate, at which the target may be run.
func (x *Trigger) MaxRate() schedule.Rate {
	return x.rate
}

// Name returns the name of the Trigger, see WithName.
func (x *Trigger) Name() string {
	return x.name
}

// Schedule polls the Trigger, serving any pending request, or running the
// target if periodic, subject to the maximum rate. It always returns true.
func (x *Trigger) Schedule() bool {
	x.serve(true)
	return true
}

// Pending reports whether a request is pending.
func (x *Trigger) Pending() bool {
	return x.pending.Load()
}

// Stats returns a snapshot of the cumulative counters.
func (x *Trigger) Stats() TriggerStats {
	return TriggerStats{
		Notifies:     x.notifies.Load(),
		Coalesced:    x.coalesced.Load(),
		Deferred:     x.deferred.Load(),
		Runs:         x.runs.Load(),
		Busy:         x.busy.Load(),
		PendFailures: x.failed.Load(),
	}
}

func (x *Trigger) serveNotify() {
	x.serve(false)
}

func (x *Trigger) serve(poll bool) {
	if !x.running.CompareAndSwap(false, true) {
		x.busy.Add(1)
		return
	}

	pending := x.pending.Load()
	if !pending && !(poll && x.periodic) {
		x.running.Store(false)
		return
	}

	now := x.clock.Now()
	if x.ran && now-x.last < x.interval {
		if pending {
			x.deferred.Add(1)
		}
		x.running.Store(false)
		return
	}
	x.last = now
	x.ran = true

	// notifications during the run must re-arm
	x.pending.Store(false)

	if x.pre != nil {
		x.pre.PreSchedule()
	}
	done := x.target.Schedule()
	if x.post != nil {
		x.post.PostSchedule()
	}
	if !done {
		x.pending.Store(true)
	}

	x.runs.Add(1)
	x.running.Store(false)
}
