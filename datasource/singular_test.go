package datasource

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingular_nothingBeforeFirstWrite(t *testing.T) {
	t.Parallel()
	slot, newReader := NewSingularChannel[string]()
	reader := newReader()
	v, ok := reader.Read()
	assert.False(t, ok)
	assert.Empty(t, v)
	assert.False(t, reader.Changed())

	slot.Write(`a`)
	assert.True(t, reader.Changed())
	v, ok = reader.Read()
	require.True(t, ok)
	assert.Equal(t, `a`, v)
	assert.False(t, reader.Changed())
}

func TestSingular_alwaysLatest(t *testing.T) {
	t.Parallel()
	slot := NewSingular[int]()
	reader := slot.Reader()
	for k := 1; k <= 50; k++ {
		for i := 1; i <= k; i++ {
			slot.Write(i)
		}
		for j := 0; j < k%4; j++ {
			v, ok := reader.Read()
			require.True(t, ok)
			require.Equal(t, k, v)
		}
		require.Equal(t, k, reader.Latest())
	}
}

func TestSingular_readersCreatedLateSeeLatest(t *testing.T) {
	t.Parallel()
	slot := NewSingular[int]()
	slot.Write(1)
	slot.Write(2)
	reader := slot.Reader()
	v, ok := reader.Read()
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, reader.Clone().Latest())
}

func TestSingular_counterSkipsZero(t *testing.T) {
	t.Parallel()
	slot := NewSingular[int]()
	reader := slot.Reader()
	slot.write.Store(math.MaxUint64)
	slot.written.Store(math.MaxUint64)
	slot.Write(7)
	assert.Equal(t, uint64(1), slot.written.Load())
	v, ok := reader.Read()
	require.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestSingular_retriesDuringWrite(t *testing.T) {
	t.Parallel()
	slot := NewSingular[int]()
	reader := slot.Reader()
	slot.Write(1)
	// a write is in progress: write has moved, written has not
	slot.write.Add(1)
	done := make(chan int)
	go func() {
		v, _ := reader.Read()
		done <- v
	}()
	select {
	case v := <-done:
		t.Fatalf(`expected read to wait for the in-progress write, got %d`, v)
	default:
	}
	// complete the write, the way Write would
	slot.written.Store(slot.write.Load())
	assert.Equal(t, 1, <-done)
}
