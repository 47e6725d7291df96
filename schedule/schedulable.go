package schedule

type (
	// Rate is a number of invocations per second.
	Rate uint

	// Schedulable is implemented by every periodic component.
	Schedulable interface {
		// Rate returns the desired number of invocations per second. It must
		// not change after registration.
		Rate() Rate

		// Schedule performs the actual work. Returning false indicates that a
		// logical cycle was not completed (e.g. device not yet ready), and
		// causes the task to be retried on the next tick, rather than waiting
		// a full interval.
		Schedule() bool
	}

	// PreScheduler may be implemented by a Schedulable, to perform setup
	// (e.g. snapshotting inputs) before any due task is scheduled.
	PreScheduler interface {
		PreSchedule()
	}

	// PostScheduler may be implemented by a Schedulable, to perform cleanup
	// after every due task has been scheduled.
	PostScheduler interface {
		PostSchedule()
	}

	// Namer may be implemented by a Schedulable, to identify it in logs.
	Namer interface {
		Name() string
	}

	// Task implements Schedulable (and the optional interfaces) using
	// functions. Run is required, Pre and Post are optional.
	Task struct {
		Pre   func()
		Run   func() bool
		Post  func()
		Label string
		Hz    Rate
	}
)

var (
	// compile time assertions

	_ Schedulable   = (*Task)(nil)
	_ PreScheduler  = (*Task)(nil)
	_ PostScheduler = (*Task)(nil)
	_ Namer         = (*Task)(nil)
)

func (x *Task) Rate() Rate { return x.Hz }

func (x *Task) Schedule() bool { return x.Run() }

func (x *Task) PreSchedule() {
	if x.Pre != nil {
		x.Pre()
	}
}

func (x *Task) PostSchedule() {
	if x.Post != nil {
		x.Post()
	}
}

func (x *Task) Name() string { return x.Label }
