package event

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joeycumines/go-flightcore/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSoftInterrupt(t testing.TB) *SoftInterrupt {
	t.Helper()
	softirq, err := NewSoftInterrupt()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = softirq.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return softirq
}

func TestSoftInterrupt_Pend(t *testing.T) {
	softirq := newTestSoftInterrupt(t)

	var (
		order []int
		done  = make(chan struct{})
	)
	for i := range 5 {
		require.NoError(t, softirq.Pend(func() {
			order = append(order, i)
			if i == 4 {
				close(done)
			}
		}))
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal(`expected pended handlers to run`)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Equal(t, uint64(5), softirq.Pends())
}

func TestSoftInterrupt_closed(t *testing.T) {
	softirq, err := NewSoftInterrupt()
	require.NoError(t, err)
	require.NoError(t, softirq.Close())
	assert.Error(t, softirq.Pend(func() {}))
	assert.Equal(t, uint64(0), softirq.Pends())
}

func TestTrigger_softInterrupt(t *testing.T) {
	softirq := newTestSoftInterrupt(t)

	var (
		runs atomic.Int64
		ran  = make(chan struct{}, 16)
	)
	trigger, err := NewTrigger(&schedule.Task{Label: `rc`, Hz: 1, Run: func() bool {
		runs.Add(1)
		ran <- struct{}{}
		return true
	}}, 1000, WithPender(softirq))
	require.NoError(t, err)

	trigger.Notify()
	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal(`expected the trigger to run`)
	}

	time.Sleep(2 * time.Millisecond)
	trigger.Notify()
	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal(`expected the trigger to run again`)
	}

	assert.Equal(t, int64(2), runs.Load())
	assert.Equal(t, uint64(2), trigger.Stats().Runs)
	assert.Equal(t, uint64(2), softirq.Pends())
}

func TestSoftInterrupt_closeTwice(t *testing.T) {
	softirq, err := NewSoftInterrupt()
	require.NoError(t, err)
	require.NoError(t, softirq.Close())
	assert.NoError(t, softirq.Close())
}

func TestSoftInterrupt_handlerPanic(t *testing.T) {
	softirq, err := NewSoftInterrupt()
	require.NoError(t, err)
	defer softirq.Close()

	var after atomic.Bool
	require.NoError(t, softirq.Pend(func() { panic(`mixer fault`) }))
	require.NoError(t, softirq.Pend(func() { after.Store(true) }))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.PanicsWithValue(t, `mixer fault`, func() { _ = softirq.Run(ctx) })
	assert.False(t, after.Load(), `handlers pended after a panic must not run`)
	assert.NoError(t, ctx.Err(), `the panic must stop Run`)
}
