package board

import (
	"bytes"
	"math"
	"testing"

	"github.com/joeycumines/go-flightcore/config"
	"github.com/joeycumines/go-flightcore/event"
	"github.com/joeycumines/go-flightcore/logging"
	"github.com/joeycumines/go-flightcore/measurement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaleChannel(t *testing.T) {
	for _, tc := range [...]struct {
		value uint16
		scale int32
		want  int16
	}{
		{0, 100, math.MinInt16},
		{1024, 100, 0},
		{2047, 100, 32736},
		{1536, 100, 16384},
		{1536, 50, 8192},
		{2047, 150, math.MaxInt16},
		{0, 150, math.MinInt16},
		{512, 200, math.MinInt16},
	} {
		assert.Equal(t, tc.want, ScaleChannel(tc.value, tc.scale), tc)
	}
}

func centeredFrame() (f Frame) {
	for i := range f.Channels {
		f.Channels[i] = channelCenter
	}
	return
}

func TestReceiver_Feed(t *testing.T) {
	var notifies int
	receiver := NewReceiver(config.Default().Receiver, event.NotifyFunc(func() { notifies++ }), nil)
	input := receiver.Input()

	_, ok := input.Read()
	assert.False(t, ok)

	frame := centeredFrame()
	frame.Channels[0] = 1536 // roll
	frame.Channels[1] = 512  // pitch
	frame.Channels[2] = 0    // throttle
	receiver.Feed(frame)

	v, ok := input.Read()
	require.True(t, ok)
	assert.Equal(t, measurement.ControlInput{Throttle: math.MinInt16, Roll: 16384, Pitch: -16384}, v)
	assert.Equal(t, 1, notifies)
	assert.Equal(t, uint64(1), receiver.Frames())
}

func TestReceiver_rssi(t *testing.T) {
	var buf bytes.Buffer
	receiver := NewReceiver(config.Default().Receiver, nil, logging.New(&buf, logging.LevelWarning))
	rssi := receiver.RSSI()

	for i := range lossWindow - 1 {
		frame := centeredFrame()
		frame.FrameLost = i%5 == 0
		receiver.Feed(frame)
		assert.Equal(t, measurement.RSSI(100), rssi.Latest())
	}
	receiver.Feed(centeredFrame())
	assert.Equal(t, measurement.RSSI(80), rssi.Latest())
	assert.Contains(t, buf.String(), `receiver frame loss`)

	// the next window is clean
	for range lossWindow {
		receiver.Feed(centeredFrame())
	}
	assert.Equal(t, measurement.RSSI(100), rssi.Latest())
}

func TestReceiver_failsafeFrame(t *testing.T) {
	var notifies int
	receiver := NewReceiver(config.Default().Receiver, event.NotifyFunc(func() { notifies++ }), nil)
	input := receiver.Input()

	frame := centeredFrame()
	frame.Failsafe = true
	receiver.Feed(frame)

	assert.False(t, input.Changed())
	assert.Equal(t, 0, notifies)
	assert.Equal(t, uint64(1), receiver.Failsafes())
	assert.Equal(t, uint64(1), receiver.Frames())
}

func TestReceiver_Handle(t *testing.T) {
	receiver := NewReceiver(config.Default().Receiver, nil, nil)
	input := receiver.Input()

	frame := centeredFrame()
	frame.Channels[3] = 2047
	receiver.Handle(AppendFrame(nil, frame))
	v, ok := input.Read()
	require.True(t, ok)
	assert.Equal(t, int16(32736), v.Yaw)

	receiver.Handle([]byte{0x0F, 0x00})
	assert.Equal(t, uint64(1), receiver.Invalid())
	assert.Equal(t, uint64(1), receiver.Frames())
}
