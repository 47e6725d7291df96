package event

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/joeycumines/go-eventloop"
)

// SoftInterrupt is a dedicated, low-priority software interrupt, backed by an
// [eventloop.Loop]. Pended handlers run to completion, sequentially, on the
// goroutine calling Run.
//
// A panic from a handler is fatal: it stops the SoftInterrupt, and is
// re-raised by Run, on its caller's goroutine.
type SoftInterrupt struct {
	loop    *eventloop.Loop
	fault   atomic.Pointer[handlerPanic]
	faulted chan struct{}
	pends   atomic.Uint64
}

type handlerPanic struct {
	value any
}

var _ Pender = (*SoftInterrupt)(nil)

// NewSoftInterrupt initializes a new SoftInterrupt. Run must be called for
// any pended handler to run.
func NewSoftInterrupt() (*SoftInterrupt, error) {
	loop, err := eventloop.New()
	if err != nil {
		return nil, err
	}
	return &SoftInterrupt{loop: loop, faulted: make(chan struct{})}, nil
}

// Pend queues fn to be run, returning an error only if the SoftInterrupt
// has been terminated.
func (x *SoftInterrupt) Pend(fn func()) error {
	if err := x.loop.Submit(func() { x.call(fn) }); err != nil {
		return err
	}
	x.pends.Add(1)
	return nil
}

// the loop recovers (and only logs) handler panics, so they are captured
// here, instead
func (x *SoftInterrupt) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if x.fault.CompareAndSwap(nil, &handlerPanic{value: r}) {
				close(x.faulted)
			}
		}
	}()
	if x.fault.Load() == nil {
		fn()
	}
}

// Run serves pended handlers, until ctx is done, or the SoftInterrupt is
// closed. If a handler panicked, Run panics with the same value.
func (x *SoftInterrupt) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-x.faulted:
			cancel()
		case <-ctx.Done():
		}
	}()

	err := x.loop.Run(ctx)
	if fault := x.fault.Load(); fault != nil {
		panic(fault.value)
	}
	return err
}

// Shutdown stops the SoftInterrupt, after serving any queued handlers.
func (x *SoftInterrupt) Shutdown(ctx context.Context) error {
	return x.loop.Shutdown(ctx)
}

// Close immediately terminates the SoftInterrupt. Closing a terminated
// SoftInterrupt is a no-op.
func (x *SoftInterrupt) Close() error {
	if err := x.loop.Close(); err != nil && !errors.Is(err, eventloop.ErrLoopTerminated) {
		return err
	}
	return nil
}

// Pends returns the number of handlers accepted by Pend.
func (x *SoftInterrupt) Pends() uint64 {
	return x.pends.Load()
}
