package datasource

import (
	"runtime"
	"sync/atomic"
)

type (
	// Singular is a single slot channel, where readers only ever observe the
	// most recent value. It has the same single producer model as
	// Overwriting.
	//
	// The zero value is ready to use, but must not be copied after first use.
	Singular[T any] struct {
		write   atomic.Uint64
		written atomic.Uint64
		value   T
	}

	// SingularReader reads the latest value of a Singular channel.
	SingularReader[T any] struct {
		slot *Singular[T]
		// seen is the written sequence of the last value returned by Read
		seen uint64
	}
)

// NewSingular initializes a new Singular channel.
func NewSingular[T any]() *Singular[T] {
	return new(Singular[T])
}

// NewSingularChannel is a convenience function, returning the writer, and a
// function that derives new readers.
func NewSingularChannel[T any]() (*Singular[T], func() *SingularReader[T]) {
	slot := NewSingular[T]()
	return slot, slot.Reader
}

// Write replaces the value.
//
// Write must only be called by the single producer, and must not be
// re-entered.
func (x *Singular[T]) Write(value T) {
	next := x.write.Load() + 1
	if next == 0 {
		// zero is reserved for "never written"
		next = 1
	}
	x.write.Store(next)
	x.value = value
	x.written.Store(next)
}

// Reader returns a new reader. Unlike Overwriting, readers of a Singular
// channel observe the latest value regardless of when they were created.
func (x *Singular[T]) Reader() *SingularReader[T] {
	return &SingularReader[T]{slot: x}
}

// Read returns the latest committed value, or false if nothing has been
// written yet.
func (x *SingularReader[T]) Read() (value T, ok bool) {
	for {
		written := x.slot.written.Load()
		if written == 0 {
			return value, false
		}
		value = x.slot.value
		if x.slot.write.Load() == written {
			x.seen = written
			return value, true
		}
		// the producer was mid-write, or completed another write, during the
		// copy; the next attempt observes the newer value
		runtime.Gosched()
	}
}

// Latest returns the latest committed value, or the zero value.
func (x *SingularReader[T]) Latest() T {
	value, _ := x.Read()
	return value
}

// Changed indicates if a value was committed since the last Read (or Latest)
// by this reader.
func (x *SingularReader[T]) Changed() bool {
	return x.slot.written.Load() != x.seen
}

// Clone returns a new reader for the same channel.
func (x *SingularReader[T]) Clone() *SingularReader[T] {
	return x.slot.Reader()
}
