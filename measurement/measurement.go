package measurement

import (
	"math"
	"time"
)

type (
	// Axes is a raw, three axis sensor reading.
	Axes struct {
		X, Y, Z int32
	}

	// Measurement is a raw reading, along with the sensitivity of the
	// sensor, in LSB per unit.
	Measurement struct {
		Axes      Axes
		Sensitive int32
	}

	// Acceleration is in units of standard gravity.
	Acceleration struct {
		Measurement
	}

	// Gyro is an angular rate, in units of degrees per second.
	Gyro struct {
		Measurement
	}

	// Attitude is an orientation, in radians.
	Attitude struct {
		Roll, Pitch, Yaw float64
	}

	// Pressure is a static air pressure, in pascals.
	Pressure float64

	// Altitude is in centimeters.
	Altitude int32

	// Navigation is the output of the navigation task.
	Navigation struct {
		Altitude Altitude
		// VerticalSpeed is in centimeters per second.
		VerticalSpeed int32
		// Heading is in degrees, within [0, 360).
		Heading uint16
	}

	// ControlInput is the pilot's commanded input, with each axis in the full
	// int16 range, centered on zero.
	ControlInput struct {
		Throttle, Roll, Pitch, Yaw int16
	}

	// Output is the actuator command, as pulse widths, in microseconds.
	Output struct {
		Left, Right, Throttle uint16
	}

	// RSSI is the received signal quality, as a percentage.
	RSSI uint16

	// Voltage is in millivolts.
	Voltage uint16

	// Telemetry is a periodic snapshot of the state of the aircraft.
	Telemetry struct {
		Uptime      time.Duration
		Attitude    Attitude
		Navigation  Navigation
		Input       ControlInput
		Output      Output
		RSSI        RSSI
		Battery     Voltage
		GyroDropped uint64
		Watchdog    uint64
	}
)

// Pulse widths, in microseconds.
const (
	MinPulseWidth     = 1000
	NeutralPulseWidth = 1500
	MaxPulseWidth     = 2000
)

// StandardPressure is the sea level pressure of the standard atmosphere.
const StandardPressure Pressure = 101325

// Neutral returns the failsafe Output: centered surfaces, throttle cut.
func Neutral() Output {
	return Output{Left: NeutralPulseWidth, Right: NeutralPulseWidth, Throttle: MinPulseWidth}
}

func (x Axes) Add(o Axes) Axes { return Axes{X: x.X + o.X, Y: x.Y + o.Y, Z: x.Z + o.Z} }

func (x Axes) Sub(o Axes) Axes { return Axes{X: x.X - o.X, Y: x.Y - o.Y, Z: x.Z - o.Z} }

func (x Axes) Div(n int32) Axes { return Axes{X: x.X / n, Y: x.Y / n, Z: x.Z / n} }

// Scaled returns each axis in units, or zero if the sensitivity is unset.
func (x Measurement) Scaled() (v [3]float64) {
	if x.Sensitive == 0 {
		return
	}
	s := float64(x.Sensitive)
	v[0] = float64(x.Axes.X) / s
	v[1] = float64(x.Axes.Y) / s
	v[2] = float64(x.Axes.Z) / s
	return
}

// Altitude converts the pressure to an altitude, using the international
// barometric formula.
func (x Pressure) Altitude() Altitude {
	if x <= 0 {
		return 0
	}
	meters := 44330 * (1 - math.Pow(float64(x/StandardPressure), 1/5.255))
	return Altitude(math.Round(meters * 100))
}

// Meters returns the altitude in meters.
func (x Altitude) Meters() float64 {
	return float64(x) / 100
}

// FromVolts converts volts to a Voltage, saturating.
func FromVolts(v float64) Voltage {
	return Voltage(Clamp(math.Round(v*1000), 0, math.MaxUint16))
}

// Volts returns the voltage in volts.
func (x Voltage) Volts() float64 {
	return float64(x) / 1000
}

// Heading returns the yaw, as a compass heading, in whole degrees.
func (x Attitude) Heading() uint16 {
	deg := math.Round(math.Mod(x.Yaw*180/math.Pi, 360))
	if deg < 0 {
		deg += 360
	}
	return uint16(deg) % 360
}

// Degrees converts the attitude to degrees.
func (x Attitude) Degrees() (roll, pitch, yaw float64) {
	const k = 180 / math.Pi
	return x.Roll * k, x.Pitch * k, x.Yaw * k
}
