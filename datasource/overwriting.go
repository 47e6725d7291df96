package datasource

import (
	"fmt"
	"math"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

type (
	// Overwriting is a fixed-capacity ring buffer, with a single producer, and
	// any number of independent readers. The producer never blocks; once the
	// ring is full, each write overwrites the oldest value.
	//
	// Instances must be initialized using NewOverwriting. The value returned
	// by NewOverwriting is the writer handle, see also Reader.
	Overwriting[T any] struct { // betteralign:ignore
		_ cpu.CacheLinePad
		// write is incremented prior to filling a slot
		write atomic.Uint64
		// written is stored (release) after filling a slot, and is the only
		// counter readers may trust to mean "slot is committed"
		written atomic.Uint64
		_       cpu.CacheLinePad
		buffer  []T
		mask    uint64
	}

	// OverwritingReader consumes values from an Overwriting channel, using a
	// private cursor. It is not safe for concurrent use, use Clone to derive
	// additional readers.
	OverwritingReader[T any] struct {
		ring *Overwriting[T]
		// read is the sequence number of the next expected value
		read    uint64
		dropped uint64
	}
)

// NewOverwriting initializes a new Overwriting channel. Capacity must be a
// positive power of 2, so that slot indexes remain continuous, across
// wraparound of the sequence counters. A panic will occur if capacity is
// invalid.
func NewOverwriting[T any](capacity int) *Overwriting[T] {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		panic(fmt.Errorf(`datasource: overwriting: capacity must be a positive power of 2: %d`, capacity))
	}
	return &Overwriting[T]{
		buffer: make([]T, capacity),
		mask:   uint64(capacity) - 1,
	}
}

// NewOverwritingChannel is a convenience function, returning the writer, and
// a function that derives new readers. See also NewOverwriting.
func NewOverwritingChannel[T any](capacity int) (*Overwriting[T], func() *OverwritingReader[T]) {
	ring := NewOverwriting[T](capacity)
	return ring, ring.Reader
}

// Write appends value, overwriting the oldest value if the ring is full.
//
// Write must only be called by the single producer (e.g. one ISR), and must
// not be re-entered.
func (x *Overwriting[T]) Write(value T) {
	write := x.write.Load()
	next := write + 1
	x.write.Store(next)
	x.buffer[write&x.mask] = value
	x.written.Store(next)
}

// Cap returns the (fixed) number of slots.
func (x *Overwriting[T]) Cap() int {
	return len(x.buffer)
}

// Written returns the committed sequence number, i.e. the (wrapping) count of
// completed writes.
func (x *Overwriting[T]) Written() uint64 {
	return x.written.Load()
}

// Reader returns a new reader, that will observe only values committed after
// the call to Reader. A write in progress, during the call, will be observed.
func (x *Overwriting[T]) Reader() *OverwritingReader[T] {
	return &OverwritingReader[T]{
		ring: x,
		read: x.written.Load(),
	}
}

// Read returns the oldest value not yet observed by this reader, or false if
// there is no new data.
//
// If the reader has fallen behind by more than the capacity, the cursor jumps
// forward to the oldest value still held, and the skipped values are added to
// Dropped.
func (x *OverwritingReader[T]) Read() (value T, ok bool) {
	ring := x.ring
	size := uint64(len(ring.buffer))
	written := ring.written.Load()
	for written != x.read {
		behind := written - x.read
		if behind > math.MaxUint64/2 {
			// cursor is ahead of the committed sequence
			break
		}
		if behind > size {
			x.dropped += behind - size
			x.read = written - size
		}

		value = ring.buffer[x.read&ring.mask]

		// the producer increments write before touching a slot, so the copy
		// is only valid if the slot was not reclaimed while it was taken
		if ring.write.Load()-x.read <= size {
			x.read++
			return value, true
		}

		x.dropped++
		x.read++
		written = ring.written.Load()
	}
	var zero T
	return zero, false
}

// Latest returns the most recently committed value, ignoring (and not
// modifying) the cursor. The zero value is returned if nothing has been
// written.
func (x *OverwritingReader[T]) Latest() T {
	ring := x.ring
	return ring.buffer[(ring.written.Load()-1)&ring.mask]
}

// Len returns the number of values that may be read, without loss.
func (x *OverwritingReader[T]) Len() int {
	n := x.ring.written.Load() - x.read
	if n > math.MaxUint64/2 {
		return 0
	}
	if size := uint64(len(x.ring.buffer)); n > size {
		n = size
	}
	return int(n)
}

// Cap returns the capacity of the underlying channel.
func (x *OverwritingReader[T]) Cap() int {
	return len(x.ring.buffer)
}

// Dropped returns the total number of values this reader skipped, due to
// falling behind the producer.
func (x *OverwritingReader[T]) Dropped() uint64 {
	return x.dropped
}

// Clone returns a new reader, for the same channel, that will observe only
// values committed after the call to Clone.
func (x *OverwritingReader[T]) Clone() *OverwritingReader[T] {
	return x.ring.Reader()
}
