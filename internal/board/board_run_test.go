//go:build !race

package board

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/joeycumines/go-flightcore/logging"
	"github.com/joeycumines/go-flightcore/measurement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// channel slot reads are unsynchronized, and Run writes from several
// goroutines

func TestBoard_Run(t *testing.T) {
	var buf bytes.Buffer
	b := newTestBoard(t, nil,
		WithLogger(logging.New(&buf, logging.LevelInfo)),
		WithMotion(Rocking(0.2, time.Second)),
	)
	records := b.Telemetry()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, b.Run(ctx))

	assert.Positive(t, b.Scheduler().Ticks())
	assert.Positive(t, b.IMU().Samples())
	assert.Positive(t, b.Receiver().Frames())
	assert.Positive(t, b.Trigger().Stats().Runs)
	assert.Positive(t, b.Watchdog().Feeds())

	var n int
	for {
		if _, ok := records.Read(); !ok {
			break
		}
		n++
	}
	assert.Positive(t, n)

	// centered throttle, from the simulated pilot
	assert.Equal(t, uint16(measurement.NeutralPulseWidth), b.Output().Latest().Throttle)

	out := buf.String()
	assert.Contains(t, out, `"msg":"board starting"`)
	assert.Contains(t, out, `"msg":"board stopped"`)
}

func TestBoard_Run_panic(t *testing.T) {
	var buf bytes.Buffer
	b := newTestBoard(t, nil,
		WithLogger(logging.New(&buf, logging.LevelInfo)),
		WithPilot(nil),
		WithPressure(func() measurement.Pressure { panic(`baro fault`) }),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.PanicsWithValue(t, `baro fault`, func() { _ = b.Run(ctx) })
	assert.NoError(t, ctx.Err())

	out := buf.String()
	assert.Contains(t, out, `"msg":"board stopped"`)
	assert.Contains(t, out, `"msg":"board panicked"`)
	assert.Contains(t, out, `"panic":"baro fault"`)
}
