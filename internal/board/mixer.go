package board

import (
	"math"
	"time"

	"github.com/joeycumines/go-flightcore/datasource"
	"github.com/joeycumines/go-flightcore/event"
	"github.com/joeycumines/go-flightcore/logging"
	"github.com/joeycumines/go-flightcore/measurement"
	"github.com/joeycumines/go-flightcore/schedule"
)

const (
	// attitude stabilization gain, per radian
	mixerGain = 0.5
	// stick deadband, in axis units
	mixerDeadband = 1 << 9
)

// Mixer converts control input, stabilized using the attitude estimate, into
// elevon and throttle commands. It is driven by an event.Trigger, notified
// by the receiver, and falls back to a neutral output if no input has been
// received within the failsafe timeout.
type Mixer struct {
	input    *datasource.SingularReader[measurement.ControlInput]
	attitude *datasource.OverwritingReader[measurement.Attitude]
	out      *datasource.Singular[measurement.Output]
	clock    event.Clock
	logger   *logging.Logger
	control  measurement.ControlInput
	last     time.Duration
	timeout  time.Duration
	rate     schedule.Rate
	received bool
	failsafe bool
}

var (
	_ schedule.Schedulable = (*Mixer)(nil)
	_ schedule.Namer       = (*Mixer)(nil)
)

// NewMixer initializes a new Mixer.
func NewMixer(rate schedule.Rate, timeout time.Duration, clock event.Clock, receiver *Receiver, estimator *Estimator, logger *logging.Logger) *Mixer {
	return &Mixer{
		input:    receiver.Input(),
		attitude: estimator.Attitude(),
		out:      datasource.NewSingular[measurement.Output](),
		clock:    clock,
		logger:   logger,
		timeout:  timeout,
		rate:     rate,
	}
}

// Output returns a new reader, for the actuator commands.
func (x *Mixer) Output() *datasource.SingularReader[measurement.Output] {
	return x.out.Reader()
}

// Failsafe reports whether the mixer is in failsafe. It must only be called
// from the context running the mixer.
func (x *Mixer) Failsafe() bool {
	return x.failsafe
}

func (x *Mixer) Rate() schedule.Rate { return x.rate }

func (x *Mixer) Name() string { return `mixer` }

func (x *Mixer) Schedule() bool {
	now := x.clock.Now()

	if x.input.Changed() {
		x.control, _ = x.input.Read()
		x.last = now
		x.received = true
	}

	if !x.received || now-x.last > x.timeout {
		if !x.failsafe {
			x.failsafe = true
			x.logger.Warning().
				Dur(`since`, now-x.last).
				Bool(`received`, x.received).
				Log(`mixer failsafe`)
		}
		x.out.Write(measurement.Neutral())
		return true
	}
	if x.failsafe {
		x.failsafe = false
		x.logger.Notice().Log(`mixer failsafe cleared`)
	}

	x.out.Write(Mix(x.control, x.attitude.Latest()))
	return true
}

// Mix computes the elevon and throttle commands, for a flying wing.
func Mix(control measurement.ControlInput, attitude measurement.Attitude) measurement.Output {
	pitch := stick(control.Pitch) - attitude.Pitch*mixerGain
	roll := stick(control.Roll) - attitude.Roll*mixerGain
	left := measurement.Clamp(pitch+roll, -1, 1)
	right := measurement.Clamp(pitch-roll, -1, 1)
	return measurement.Output{
		Left:     pulse(left),
		Right:    pulse(right),
		Throttle: pulse(float64(control.Throttle) / -math.MinInt16),
	}
}

// stick normalizes an axis to [-1, 1], applying the deadband.
func stick(axis int16) float64 {
	v := measurement.Deadband(int32(axis), 0, mixerDeadband)
	return measurement.Clamp(float64(v)/-math.MinInt16, -1, 1)
}

func pulse(v float64) uint16 {
	return uint16(math.Round(measurement.MapRange(
		measurement.Clamp(v, -1, 1),
		-1, 1,
		measurement.MinPulseWidth, measurement.MaxPulseWidth,
	)))
}
