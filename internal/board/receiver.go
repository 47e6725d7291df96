package board

import (
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-flightcore/config"
	"github.com/joeycumines/go-flightcore/datasource"
	"github.com/joeycumines/go-flightcore/event"
	"github.com/joeycumines/go-flightcore/logging"
	"github.com/joeycumines/go-flightcore/measurement"
)

const (
	channelCenter = 0x400
	lossWindow    = 100
)

// Receiver is the radio receiver driver. Frames are handled in interrupt
// context, publishing the control input and link quality, then notifying
// the consumer (e.g. the mixer trigger).
//
// Handle and Feed must only be called from a single context.
type Receiver struct {
	input    *datasource.Singular[measurement.ControlInput]
	rssi     *datasource.Singular[measurement.RSSI]
	notify   event.Notify
	logger   *logging.Logger
	throttle *logging.Throttle
	channels config.InputChannels
	scale    int32

	// interrupt context only
	counter  int
	loss     int
	lossRate int

	frames   atomic.Uint64
	invalid  atomic.Uint64
	failsafe atomic.Uint64
}

// NewReceiver initializes a new Receiver. The notify parameter may be nil.
func NewReceiver(cfg config.ReceiverConfig, notify event.Notify, logger *logging.Logger) *Receiver {
	x := Receiver{
		input:    datasource.NewSingular[measurement.ControlInput](),
		rssi:     datasource.NewSingular[measurement.RSSI](),
		notify:   notify,
		logger:   logger,
		channels: cfg.Channels,
		scale:    int32(cfg.Scale),
	}
	if logger != nil {
		x.throttle = logging.NewThrottle(10*time.Second, 1)
	}
	return &x
}

// Input returns a new reader, for the control input.
func (x *Receiver) Input() *datasource.SingularReader[measurement.ControlInput] {
	return x.input.Reader()
}

// RSSI returns a new reader, for the link quality.
func (x *Receiver) RSSI() *datasource.SingularReader[measurement.RSSI] {
	return x.rssi.Reader()
}

// Handle decodes and handles a raw frame, dropping (and counting) invalid
// frames.
func (x *Receiver) Handle(b []byte) {
	frame, err := DecodeFrame(b)
	if err != nil {
		n := x.invalid.Add(1)
		if x.logger != nil && x.throttle.Allow(`invalid`) {
			x.logger.Warning().
				Err(err).
				Uint64(`invalid`, n).
				Log(`dropped invalid receiver frame`)
		}
		return
	}
	x.Feed(frame)
}

// Feed handles a decoded frame.
func (x *Receiver) Feed(frame Frame) {
	x.frames.Add(1)

	if frame.FrameLost {
		x.loss++
	}
	x.counter++
	if x.counter == lossWindow {
		x.lossRate = x.loss
		x.counter = 0
		x.loss = 0
		if x.lossRate > lossWindow/10 && x.logger != nil && x.throttle.Allow(`loss`) {
			x.logger.Warning().
				Int(`loss_rate`, x.lossRate).
				Log(`receiver frame loss`)
		}
	}
	x.rssi.Write(measurement.RSSI(lossWindow - x.lossRate))

	if frame.Failsafe {
		// the consumer times out, without fresh input
		x.failsafe.Add(1)
		return
	}

	x.input.Write(measurement.ControlInput{
		Throttle: x.axis(frame, x.channels.Throttle),
		Roll:     x.axis(frame, x.channels.Roll),
		Pitch:    x.axis(frame, x.channels.Pitch),
		Yaw:      x.axis(frame, x.channels.Yaw),
	})
	if x.notify != nil {
		x.notify.Notify()
	}
}

func (x *Receiver) axis(frame Frame, channel int) int16 {
	if channel < 0 || channel >= len(frame.Channels) {
		return 0
	}
	return ScaleChannel(frame.Channels[channel], x.scale)
}

// Frames returns the number of valid frames handled.
func (x *Receiver) Frames() uint64 {
	return x.frames.Load()
}

// Invalid returns the number of frames that failed to decode.
func (x *Receiver) Invalid() uint64 {
	return x.invalid.Load()
}

// Failsafes returns the number of frames received with the failsafe flag.
func (x *Receiver) Failsafes() uint64 {
	return x.failsafe.Load()
}

// ScaleChannel converts a raw channel value, within [0, 2047], to an axis,
// centered on zero, scaled by a percentage, saturating to int16.
func ScaleChannel(value uint16, scale int32) int16 {
	axis := (int32(value) - channelCenter) << 5
	return measurement.Saturate16(axis * scale / 100)
}
