package schedule

import (
	"fmt"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-flightcore/logging"
)

type (
	// TaskInfo is the scheduling state of a single task.
	TaskInfo struct {
		// Counter is the number of ticks since the task last completed.
		Counter uint
		// Interval is the number of ticks between runs, i.e. the base rate
		// divided by the task rate, with a minimum of 1.
		Interval uint
	}

	// Scheduler converts a single base tick into per-task invocations, for an
	// ordered, fixed set of tasks. It implements Schedulable, and may be
	// nested within another Scheduler.
	//
	// Registration order is significant: tasks that are due on the same tick
	// are always run in registration order, e.g. an estimator registered
	// before the consumers of its output.
	//
	// Instances must be initialized using New, and (other than Rate, Name,
	// Ticks, and Reentries) must only be used from a single task context.
	Scheduler struct {
		tasks    []Schedulable
		pre      []PreScheduler  // nil where not implemented
		post     []PostScheduler // nil where not implemented
		infos    []TaskInfo
		due      []int // scratch, avoids allocating per tick
		logger   *logging.Logger
		throttle *logging.Throttle
		name     string
		rate     Rate

		ticks     atomic.Uint64
		reentries atomic.Uint64
		running   atomic.Bool
	}
)

var (
	// compile time assertions

	_ Schedulable = (*Scheduler)(nil)
	_ Namer       = (*Scheduler)(nil)
)

// New initializes a new Scheduler, driving the given tasks from a base tick
// of rate. The order of tasks is preserved. Invalid rates are rejected (see
// ErrZeroRate and ErrRateExceedsBase), unless clamping is enabled via
// WithClampRates.
func New(tasks []Schedulable, rate Rate, opts ...Option) (*Scheduler, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	if rate == 0 {
		return nil, fmt.Errorf(`schedule: %s: base: %w`, cfg.name, ErrZeroRate)
	}

	x := Scheduler{
		tasks:  make([]Schedulable, len(tasks)),
		pre:    make([]PreScheduler, len(tasks)),
		post:   make([]PostScheduler, len(tasks)),
		infos:  make([]TaskInfo, len(tasks)),
		due:    make([]int, 0, len(tasks)),
		logger: cfg.logger,
		name:   cfg.name,
		rate:   rate,
	}
	if x.logger != nil {
		x.throttle = logging.NewThrottle(time.Second, 1)
	}

	for i, task := range tasks {
		if isNil(task) {
			return nil, fmt.Errorf(`schedule: %s: task %d: %w`, cfg.name, i, ErrNilTask)
		}

		taskRate := task.Rate()
		switch {
		case taskRate == 0:
			return nil, fmt.Errorf(`schedule: %s: task %d (%s): %w`, cfg.name, i, taskName(task), ErrZeroRate)
		case taskRate > rate && !cfg.clampRates:
			return nil, fmt.Errorf(`schedule: %s: task %d (%s): %d > %d: %w`, cfg.name, i, taskName(task), taskRate, rate, ErrRateExceedsBase)
		case taskRate > rate:
			x.logger.Warning().
				Str(`scheduler`, x.name).
				Str(`task`, taskName(task)).
				Uint64(`rate`, uint64(taskRate)).
				Uint64(`base_rate`, uint64(rate)).
				Log(`task rate clamped to base rate`)
		}

		interval := uint(rate / taskRate)
		if interval == 0 {
			interval = 1
		}

		x.tasks[i] = task
		x.infos[i] = TaskInfo{Interval: interval}
		x.pre[i], _ = task.(PreScheduler)
		x.post[i], _ = task.(PostScheduler)

		x.logger.Debug().
			Str(`scheduler`, x.name).
			Int(`index`, i).
			Str(`task`, taskName(task)).
			Uint64(`rate`, uint64(taskRate)).
			Uint64(`interval`, uint64(interval)).
			Log(`task registered`)
	}

	x.logger.Info().
		Str(`scheduler`, x.name).
		Uint64(`rate`, uint64(rate)).
		Int(`tasks`, len(x.tasks)).
		Log(`scheduler initialized`)

	return &x, nil
}

// Rate returns the base rate.
func (x *Scheduler) Rate() Rate {
	return x.rate
}

// Name returns the name configured via WithName.
func (x *Scheduler) Name() string {
	return x.name
}

// Schedule performs a single base tick. It always returns true, and must be
// called at the base rate.
//
// If called re-entrantly (e.g. from a nested interrupt, while a previous tick
// is still running), it returns immediately, without running any task, or
// advancing any counter.
//
// A panic from any task propagates to the caller, leaving the scheduler in
// the running state. It is not recoverable.
func (x *Scheduler) Schedule() bool {
	if !x.running.CompareAndSwap(false, true) {
		x.reentered()
		return true
	}

	x.ticks.Add(1)

	due := x.due[:0]
	for i := range x.infos {
		info := &x.infos[i]
		info.Counter++
		if info.Counter >= info.Interval {
			due = append(due, i)
		}
	}
	x.due = due

	// all setup happens before any task mutates shared outputs
	for _, i := range due {
		if pre := x.pre[i]; pre != nil {
			pre.PreSchedule()
		}
	}

	// incomplete tasks keep their counter, and will be due on the next tick
	for _, i := range due {
		if x.tasks[i].Schedule() {
			x.infos[i].Counter = 0
		}
	}

	for _, i := range due {
		if post := x.post[i]; post != nil {
			post.PostSchedule()
		}
	}

	x.running.Store(false)
	return true
}

func (x *Scheduler) reentered() {
	n := x.reentries.Add(1)
	if x.logger != nil && x.throttle.Allow(x.name) {
		x.logger.Warning().
			Str(`scheduler`, x.name).
			Uint64(`reentries`, n).
			Log(`scheduler re-entered while running`)
	}
}

// Len returns the number of tasks.
func (x *Scheduler) Len() int {
	return len(x.tasks)
}

// Info returns a copy of the scheduling state of the task at index i, in
// registration order. It must only be called from task context.
func (x *Scheduler) Info(i int) TaskInfo {
	return x.infos[i]
}

// Ticks returns the number of (non re-entrant) ticks performed.
func (x *Scheduler) Ticks() uint64 {
	return x.ticks.Load()
}

// Reentries returns the number of re-entrant calls to Schedule, that were
// ignored.
func (x *Scheduler) Reentries() uint64 {
	return x.reentries.Load()
}

func taskName(task Schedulable) string {
	if namer, ok := task.(Namer); ok {
		if name := namer.Name(); name != `` {
			return name
		}
	}
	return fmt.Sprintf(`%T`, task)
}

// isNil reports whether task is nil, including a nil pointer, wrapped in the
// interface.
func isNil(task Schedulable) bool {
	if task == nil {
		return true
	}
	v := reflect.ValueOf(task)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
