package board

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-flightcore/datasource"
	"github.com/joeycumines/go-flightcore/measurement"
)

// Sensor sensitivities, in LSB per unit.
const (
	AccelSensitivity = 4096 // per g
	GyroSensitivity  = 16   // per degree per second
)

// Motion models the rigid body motion sensed by the IMU, at time t.
type Motion func(t time.Duration) (measurement.Acceleration, measurement.Gyro)

// IMU is the gyro/accelerometer driver. Sample runs in interrupt context,
// publishing into history channels, drained by the estimator.
type IMU struct {
	gyro    *datasource.Overwriting[measurement.Gyro]
	accel   *datasource.Overwriting[measurement.Acceleration]
	motion  Motion
	rate    uint
	samples atomic.Uint64
}

// NewIMU initializes a new IMU, sampling at rate. If motion is nil, the IMU
// senses a level, stationary body.
func NewIMU(rate uint, gyroCapacity, accelCapacity int, motion Motion) *IMU {
	if motion == nil {
		motion = Stationary
	}
	return &IMU{
		gyro:   datasource.NewOverwriting[measurement.Gyro](gyroCapacity),
		accel:  datasource.NewOverwriting[measurement.Acceleration](accelCapacity),
		motion: motion,
		rate:   rate,
	}
}

// Gyro returns a new reader, for gyro samples.
func (x *IMU) Gyro() *datasource.OverwritingReader[measurement.Gyro] {
	return x.gyro.Reader()
}

// Accel returns a new reader, for accelerometer samples.
func (x *IMU) Accel() *datasource.OverwritingReader[measurement.Acceleration] {
	return x.accel.Reader()
}

// Rate returns the sample rate.
func (x *IMU) Rate() uint {
	return x.rate
}

// Samples returns the number of samples taken.
func (x *IMU) Samples() uint64 {
	return x.samples.Load()
}

// Sample performs a single sample interrupt. It must only be called from a
// single context.
func (x *IMU) Sample() {
	n := x.samples.Load()
	t := time.Duration(n) * time.Second / time.Duration(x.rate)
	accel, gyro := x.motion(t)
	x.accel.Write(accel)
	x.gyro.Write(gyro)
	x.samples.Store(n + 1)
}

// Run samples at the configured rate, until ctx is done.
func (x *IMU) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(x.rate))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			x.Sample()
		}
	}
}

// Stationary is the Motion of a level, stationary body.
func Stationary(time.Duration) (measurement.Acceleration, measurement.Gyro) {
	return level(0, 0), measurement.Gyro{Measurement: measurement.Measurement{Sensitive: GyroSensitivity}}
}

// Rocking returns a Motion rolling sinusoidally, with the given amplitude
// (radians) and period.
func Rocking(amplitude float64, period time.Duration) Motion {
	omega := 2 * math.Pi / period.Seconds()
	return func(t time.Duration) (measurement.Acceleration, measurement.Gyro) {
		s := t.Seconds()
		roll := amplitude * math.Sin(omega*s)
		rate := amplitude * omega * math.Cos(omega*s) * 180 / math.Pi
		return level(roll, 0), measurement.Gyro{Measurement: measurement.Measurement{
			Axes:      measurement.Axes{X: int32(math.Round(rate * GyroSensitivity))},
			Sensitive: GyroSensitivity,
		}}
	}
}

// level returns the acceleration sensed by a stationary body, at the given
// roll and pitch.
func level(roll, pitch float64) measurement.Acceleration {
	return measurement.Acceleration{Measurement: measurement.Measurement{
		Axes: measurement.Axes{
			X: int32(math.Round(-math.Sin(pitch) * AccelSensitivity)),
			Y: int32(math.Round(math.Sin(roll) * math.Cos(pitch) * AccelSensitivity)),
			Z: int32(math.Round(math.Cos(roll) * math.Cos(pitch) * AccelSensitivity)),
		},
		Sensitive: AccelSensitivity,
	}}
}
