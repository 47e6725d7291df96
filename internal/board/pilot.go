package board

import (
	"context"
	"math"
	"time"

	"github.com/joeycumines/go-flightcore/config"
)

// Pilot generates the n'th receiver frame.
type Pilot func(n uint64) Frame

// Cruise returns a Pilot holding half throttle, while gently rolling left
// and right, at the given frame rate. Every 50th frame is flagged as lost.
func Cruise(channels config.InputChannels, frameRate uint) Pilot {
	return func(n uint64) (f Frame) {
		for i := range f.Channels {
			f.Channels[i] = channelCenter
		}
		t := float64(n) / float64(frameRate)
		setChannel(&f, channels.Throttle, channelCenter)
		setChannel(&f, channels.Roll, uint16(channelCenter+math.Round(300*math.Sin(2*math.Pi*t/4))))
		f.FrameLost = n%50 == 49
		return
	}
}

func setChannel(f *Frame, channel int, value uint16) {
	if channel >= 0 && channel < len(f.Channels) {
		f.Channels[channel] = value
	}
}

// runPilot feeds encoded frames from pilot to receiver, at rate, until ctx
// is done.
func runPilot(ctx context.Context, pilot Pilot, receiver *Receiver, rate uint) error {
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()
	buf := make([]byte, 0, FrameSize)
	for n := uint64(0); ; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			buf = AppendFrame(buf[:0], pilot(n))
			receiver.Handle(buf)
		}
	}
}
