package datasource

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seed sets both sequence counters, for exercising wraparound.
func (x *Overwriting[T]) seed(seq uint64) {
	x.write.Store(seq)
	x.written.Store(seq)
}

func drain[T any](r Source[T]) (values []T) {
	for {
		v, ok := r.Read()
		if !ok {
			return values
		}
		values = append(values, v)
	}
}

func sequence(from, to int) (s []int) {
	for i := from; i <= to; i++ {
		s = append(s, i)
	}
	return s
}

func TestNewOverwriting_invalidCapacity(t *testing.T) {
	for _, capacity := range []int{-1, 0, 3, 24, 100} {
		assert.Panics(t, func() { NewOverwriting[int](capacity) }, capacity)
	}
	for _, capacity := range []int{1, 2, 32, 1024} {
		assert.Equal(t, capacity, NewOverwriting[int](capacity).Cap())
	}
}

func TestOverwriting_emptyRead(t *testing.T) {
	t.Parallel()
	ring := NewOverwriting[int](32)
	reader := ring.Reader()
	v, ok := reader.Read()
	assert.False(t, ok)
	assert.Zero(t, v)
	assert.Zero(t, reader.Latest())
	assert.Zero(t, reader.Len())
}

func TestOverwriting_interleaved(t *testing.T) {
	t.Parallel()
	ring := NewOverwriting[int](32)
	reader := ring.Reader()

	ring.Write(10086)
	v, ok := reader.Read()
	require.True(t, ok)
	assert.Equal(t, 10086, v)

	ring.Write(10010)
	v, ok = reader.Read()
	require.True(t, ok)
	assert.Equal(t, 10010, v)

	for i := 1; i < 33; i++ {
		ring.Write(i)
	}
	assert.Equal(t, sequence(1, 32), drain[int](reader))
	assert.Zero(t, reader.Dropped())
}

func TestOverwriting_writesWithinCapacity(t *testing.T) {
	t.Parallel()
	for _, n := range []int{1, 2, 17, 31, 32} {
		ring := NewOverwriting[int](32)
		reader := ring.Reader()
		for i := 1; i <= n; i++ {
			ring.Write(i)
		}
		assert.Equal(t, n, reader.Len())
		assert.Equal(t, sequence(1, n), drain[int](reader), n)
		assert.Zero(t, reader.Dropped(), n)
	}
}

func TestOverwriting_writesBeyondCapacity(t *testing.T) {
	t.Parallel()
	for _, n := range []int{33, 40, 64, 65, 1000} {
		ring := NewOverwriting[int](32)
		reader := ring.Reader()
		for i := 1; i <= n; i++ {
			ring.Write(i)
		}
		assert.Equal(t, 32, reader.Len())
		assert.Equal(t, sequence(n-31, n), drain[int](reader), n)
		assert.Equal(t, uint64(n-32), reader.Dropped(), n)
		_, ok := reader.Read()
		assert.False(t, ok, n)
	}
}

func TestOverwriting_oneToForty(t *testing.T) {
	t.Parallel()
	ring, newReader := NewOverwritingChannel[int](32)
	reader := newReader()
	for i := 1; i <= 40; i++ {
		ring.Write(i)
	}
	v, ok := reader.Read()
	require.True(t, ok)
	assert.Equal(t, 9, v)
	for want := 10; want <= 40; want++ {
		v, ok = reader.Read()
		require.True(t, ok)
		require.Equal(t, want, v)
	}
	_, ok = reader.Read()
	assert.False(t, ok)
}

func TestOverwriting_independentReaders(t *testing.T) {
	t.Parallel()
	ring := NewOverwriting[int](4)
	fast := ring.Reader()
	slow := fast.Clone()

	for i := 1; i <= 3; i++ {
		ring.Write(i)
		v, ok := fast.Read()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	for i := 4; i <= 10; i++ {
		ring.Write(i)
	}

	assert.Equal(t, sequence(7, 10), drain[int](fast))
	assert.Equal(t, sequence(7, 10), drain[int](slow))
	assert.Equal(t, uint64(3), fast.Dropped())
	assert.Equal(t, uint64(6), slow.Dropped())

	late := ring.Reader()
	_, ok := late.Read()
	assert.False(t, ok, `readers only observe values written after creation`)
	ring.Write(11)
	assert.Equal(t, []int{11}, drain[int](late))
}

func TestOverwriting_latest(t *testing.T) {
	t.Parallel()
	ring := NewOverwriting[int](32)
	reader := ring.Reader()
	ring.seed(math.MaxUint64)
	ring.Write(10010)
	ring.Write(10086)
	assert.Equal(t, 10086, reader.Latest())
	assert.Equal(t, uint64(1), ring.Written())
}

func TestOverwriting_wraparound(t *testing.T) {
	t.Parallel()
	ring := NewOverwriting[int](8)
	ring.seed(math.MaxUint64 - 5)
	reader := ring.Reader()

	for i := 1; i <= 6; i++ {
		ring.Write(i)
	}
	assert.Equal(t, sequence(1, 6), drain[int](reader))

	for i := 7; i <= 20; i++ {
		ring.Write(i)
	}
	assert.Equal(t, sequence(13, 20), drain[int](reader))
	assert.Equal(t, uint64(6), reader.Dropped())
	assert.Equal(t, 20, reader.Latest())
}

func TestOverwritingReader_lappedDuringCopy(t *testing.T) {
	t.Parallel()
	// simulates the producer reclaiming the slot after written was loaded,
	// by advancing write without advancing written
	ring := NewOverwriting[int](4)
	reader := ring.Reader()
	for i := 1; i <= 4; i++ {
		ring.Write(i)
	}
	ring.write.Add(1) // a fifth write is in progress, slot 0 is being reused

	v, ok := reader.Read()
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, uint64(1), reader.Dropped())
}

func TestOverwriting_readerDuringWrite(t *testing.T) {
	t.Parallel()
	ring := NewOverwriting[int](4)
	ring.Write(1)
	ring.write.Store(2) // the second write is in progress

	reader := ring.Reader()
	clone := reader.Clone()
	assert.Empty(t, drain[int](reader))
	assert.Empty(t, drain[int](clone))
	assert.Equal(t, 0, reader.Len())
	assert.Equal(t, uint64(0), reader.Dropped())
	assert.Equal(t, uint64(0), clone.Dropped())

	ring.buffer[1] = 2
	ring.written.Store(2)

	assert.Equal(t, []int{2}, drain[int](reader))
	assert.Equal(t, []int{2}, drain[int](clone))
	assert.Equal(t, uint64(0), reader.Dropped())
	assert.Equal(t, uint64(0), clone.Dropped())
}

func TestOverwritingReader_cursorAheadOfWritten(t *testing.T) {
	t.Parallel()
	ring := NewOverwriting[int](4)
	ring.Write(1)
	reader := &OverwritingReader[int]{ring: ring, read: 2}

	assert.Empty(t, drain[int](reader))
	assert.Equal(t, 0, reader.Len())
	assert.Equal(t, uint64(0), reader.Dropped())

	ring.Write(2)
	assert.Empty(t, drain[int](reader))
	ring.Write(3)
	assert.Equal(t, []int{3}, drain[int](reader))
	assert.Equal(t, uint64(0), reader.Dropped())
}

func TestOverwriting_concurrentReaders(t *testing.T) {
	const (
		writes  = 1 << 12
		readers = 4
	)
	// sized to hold every write, so no slot is reused while readers copy it
	ring := NewOverwriting[int](writes)
	var (
		wg      sync.WaitGroup
		results = make([][]int, readers)
		start   = make(chan struct{})
	)
	for i := 0; i < readers; i++ {
		reader := ring.Reader()
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for len(results[i]) < writes {
				if v, ok := reader.Read(); ok {
					results[i] = append(results[i], v)
				}
			}
		}()
	}
	close(start)
	for i := 0; i < writes; i++ {
		ring.Write(i)
	}
	wg.Wait()
	want := sequence(0, writes-1)
	for i := range results {
		assert.Equal(t, want, results[i])
	}
}

func TestEmpty(t *testing.T) {
	var source Source[float64] = Empty[float64]{}
	v, ok := source.Read()
	assert.False(t, ok)
	assert.Zero(t, v)
	assert.Zero(t, Empty[float64]{}.Latest())
}
