package event

import (
	"time"
)

type (
	// Notify is implemented by anything that may be signalled from an
	// interrupt context. Implementations must not block.
	Notify interface {
		Notify()
	}

	// NotifyFunc adapts a function to Notify.
	NotifyFunc func()

	// Notifiers fans out a single notification, to each element, in order.
	Notifiers []Notify

	// Clock provides a monotonic time base, e.g. a tick derived clock.
	Clock interface {
		Now() time.Duration
	}

	// Pender requests that fn be run, asynchronously, in a context that
	// runs each request to completion, sequentially.
	Pender interface {
		Pend(fn func()) error
	}

	monotonicClock struct {
		start time.Time
	}
)

var (
	// compile time assertions

	_ Notify = NotifyFunc(nil)
	_ Notify = Notifiers(nil)
	_ Clock  = monotonicClock{}
)

func (x NotifyFunc) Notify() { x() }

func (x Notifiers) Notify() {
	for _, n := range x {
		n.Notify()
	}
}

func newMonotonicClock() monotonicClock {
	return monotonicClock{start: time.Now()}
}

func (x monotonicClock) Now() time.Duration {
	return time.Since(x.start)
}
