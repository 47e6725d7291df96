package board

import (
	"math"

	"github.com/joeycumines/go-flightcore/datasource"
	"github.com/joeycumines/go-flightcore/measurement"
	"github.com/joeycumines/go-flightcore/schedule"
)

// complementary filter weight, of the integrated gyro
const estimatorAlpha = 0.98

// Estimator drains the IMU history, estimating attitude using a
// complementary filter.
type Estimator struct {
	gyro     *datasource.OverwritingReader[measurement.Gyro]
	accel    *datasource.OverwritingReader[measurement.Acceleration]
	out      *datasource.Overwriting[measurement.Attitude]
	attitude measurement.Attitude
	dt       float64
	rate     schedule.Rate
}

var (
	_ schedule.Schedulable = (*Estimator)(nil)
	_ schedule.Namer       = (*Estimator)(nil)
)

// NewEstimator initializes a new Estimator, consuming samples taken at
// sampleRate.
func NewEstimator(rate schedule.Rate, sampleRate uint, imu *IMU, capacity int) *Estimator {
	return &Estimator{
		gyro:  imu.Gyro(),
		accel: imu.Accel(),
		out:   datasource.NewOverwriting[measurement.Attitude](capacity),
		dt:    1 / float64(sampleRate),
		rate:  rate,
	}
}

// Attitude returns a new reader, for attitude estimates.
func (x *Estimator) Attitude() *datasource.OverwritingReader[measurement.Attitude] {
	return x.out.Reader()
}

// GyroDropped returns the number of gyro samples lost, due to the estimator
// falling behind. It must only be called from task context.
func (x *Estimator) GyroDropped() uint64 {
	return x.gyro.Dropped()
}

func (x *Estimator) Rate() schedule.Rate { return x.rate }

func (x *Estimator) Name() string { return `estimator` }

func (x *Estimator) Schedule() bool {
	const deg = math.Pi / 180

	var updated bool
	for {
		gyro, ok := x.gyro.Read()
		if !ok {
			break
		}
		v := gyro.Scaled()
		x.attitude.Roll += v[0] * deg * x.dt
		x.attitude.Pitch += v[1] * deg * x.dt
		x.attitude.Yaw += v[2] * deg * x.dt
		updated = true
	}

	var (
		accel measurement.Acceleration
		level bool
	)
	for {
		v, ok := x.accel.Read()
		if !ok {
			break
		}
		accel, level = v, true
	}
	if level {
		v := accel.Scaled()
		roll := math.Atan2(v[1], v[2])
		pitch := math.Atan2(-v[0], math.Hypot(v[1], v[2]))
		x.attitude.Roll = estimatorAlpha*x.attitude.Roll + (1-estimatorAlpha)*roll
		x.attitude.Pitch = estimatorAlpha*x.attitude.Pitch + (1-estimatorAlpha)*pitch
		updated = true
	}

	if updated {
		x.out.Write(x.attitude)
	}
	return true
}
