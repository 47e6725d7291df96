package board

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/joeycumines/go-flightcore/config"
	"github.com/joeycumines/go-flightcore/logging"
	"github.com/joeycumines/go-flightcore/measurement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSession = uuid.MustParse(`7d444840-9dc0-11d1-b245-5ffdce74fad2`)

func newTestBoard(t *testing.T, cfg *config.Config, opts ...Option) *Board {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	b, err := New(cfg, append([]Option{WithSession(testSession)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, b.Close()) })
	return b
}

func TestNew_errors(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	cfg := config.Default()
	cfg.Channels.Gyro = 3
	_, err = New(cfg)
	assert.ErrorContains(t, err, `channels.gyro`)
}

func TestNew_session(t *testing.T) {
	b := newTestBoard(t, nil)
	assert.Equal(t, testSession, b.Session())

	random, err := New(config.Default())
	require.NoError(t, err)
	defer random.Close()
	assert.NotEqual(t, uuid.Nil, random.Session())
	assert.NotEqual(t, testSession, random.Session())
}

func TestBoard_schedulerLayout(t *testing.T) {
	b := newTestBoard(t, nil)
	root := b.Scheduler()
	require.Equal(t, 5, root.Len())
	for i, interval := range []uint{20, 2, 20, 10, 20} {
		assert.Equal(t, interval, root.Info(i).Interval, i)
	}
	assert.Equal(t, uint(100), uint(b.Trigger().Rate()))
	assert.Equal(t, uint(50), uint(b.Trigger().MaxRate()))
}

func TestBoard_Step_withoutReceiver(t *testing.T) {
	var buf bytes.Buffer
	b := newTestBoard(t, nil, WithLogger(logging.New(&buf, logging.LevelDebug)))
	records := b.Telemetry()

	b.Step(1000)

	assert.Equal(t, uint64(1000), b.Scheduler().Ticks())
	assert.Equal(t, uint64(0), b.Scheduler().Reentries())
	assert.Equal(t, uint64(1000), b.Clock().Ticks())
	assert.Equal(t, `1.000`, b.Clock().Uptime())
	assert.Equal(t, uint64(10), b.Watchdog().Feeds())
	assert.Equal(t, uint64(50), b.Trigger().Stats().Runs)
	assert.Equal(t, measurement.Neutral(), b.Output().Latest())

	var n int
	for {
		v, ok := records.Read()
		if !ok {
			break
		}
		n++
		assert.Equal(t, measurement.Neutral(), v.Output)
		assert.Equal(t, measurement.Voltage(11088), v.Battery)
		assert.Zero(t, v.GyroDropped)
	}
	assert.Equal(t, 10, n)

	assert.Equal(t, uint64(10), b.Battery().Transfers())
	screen, ok := b.Screen().Read()
	require.True(t, ok)
	assert.Equal(t, fmt.Sprintf(`%-24s%s`, `RSSI   0`, `11.09V`), screen.Row(0))
	assert.Equal(t, levelHorizon, screen.Row(horizonCenterRow))
	assert.Equal(t, uint8(3), b.OSD().Battery().Cells)

	nav, ok := b.Navigation().Read()
	require.True(t, ok)
	assert.Zero(t, nav.Altitude)

	out := buf.String()
	assert.Contains(t, out, `"session":"`+testSession.String()+`"`)
	assert.Contains(t, out, `"msg":"telemetry"`)
	assert.Contains(t, out, `"msg":"mixer failsafe"`)
}

func TestBoard_Step_receiverInput(t *testing.T) {
	b := newTestBoard(t, nil)
	output := b.Output()

	frame := centeredFrame()
	frame.Channels[0] = 1536
	b.Receiver().Feed(frame)
	assert.True(t, b.Trigger().Pending())

	b.Step(10)
	assert.False(t, b.Trigger().Pending())
	assert.Equal(t, measurement.Output{Left: 1750, Right: 1250, Throttle: 1500}, output.Latest())

	// no further input, past the failsafe timeout
	b.Step(600)
	assert.Equal(t, measurement.Neutral(), output.Latest())
}

func TestBoard_Step_pressure(t *testing.T) {
	var pressure measurement.Pressure = measurement.StandardPressure
	b := newTestBoard(t, nil, WithPressure(func() measurement.Pressure { return pressure }))
	b.Step(100)
	pressure -= 12
	b.Step(100)
	nav := b.Navigation().Latest()
	assert.InDelta(t, 100, int(nav.Altitude), 2)
}

func TestBoard_Step_lowBattery(t *testing.T) {
	var buf bytes.Buffer
	b := newTestBoard(t, nil,
		WithLogger(logging.New(&buf, logging.LevelInfo)),
		WithADC(ConstantPack(10200)),
	)
	b.Step(1000)
	assert.True(t, b.OSD().Battery().Low)
	screen := b.Screen().Latest()
	assert.Contains(t, screen.Row(OSDRows-5), `LOW BATTERY`)
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(`"msg":"battery low"`)))
}
