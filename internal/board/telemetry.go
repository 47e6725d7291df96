package board

import (
	"github.com/joeycumines/go-flightcore/datasource"
	"github.com/joeycumines/go-flightcore/jiffies"
	"github.com/joeycumines/go-flightcore/logging"
	"github.com/joeycumines/go-flightcore/measurement"
	"github.com/joeycumines/go-flightcore/schedule"
)

// Telemetry periodically assembles a record of the aircraft state. Inputs
// are snapshot in PreSchedule, so every record is consistent with the tick
// on which it was taken, and published (and logged) in PostSchedule.
type Telemetry struct {
	clock      *jiffies.Clock
	attitude   *datasource.OverwritingReader[measurement.Attitude]
	navigation *datasource.SingularReader[measurement.Navigation]
	input      *datasource.SingularReader[measurement.ControlInput]
	output     *datasource.SingularReader[measurement.Output]
	rssi       *datasource.SingularReader[measurement.RSSI]
	voltage    datasource.Latest[measurement.Voltage]
	estimator  *Estimator
	watchdog   *Watchdog
	out        *datasource.Overwriting[measurement.Telemetry]
	logger     *logging.Logger
	snapshot   measurement.Telemetry
	record     measurement.Telemetry
	rate       schedule.Rate
	assembled  bool
}

var (
	_ schedule.Schedulable   = (*Telemetry)(nil)
	_ schedule.PreScheduler  = (*Telemetry)(nil)
	_ schedule.PostScheduler = (*Telemetry)(nil)
	_ schedule.Namer         = (*Telemetry)(nil)
)

// TelemetrySources are the inputs of the Telemetry task.
type TelemetrySources struct {
	Clock      *jiffies.Clock
	Estimator  *Estimator
	Navigation *Navigation
	Receiver   *Receiver
	Mixer      *Mixer
	Watchdog   *Watchdog
	Battery    *Battery // optional
}

// NewTelemetry initializes a new Telemetry task, publishing to a channel of
// the given capacity.
func NewTelemetry(rate schedule.Rate, capacity int, src TelemetrySources, logger *logging.Logger) *Telemetry {
	var voltage datasource.Latest[measurement.Voltage] = datasource.Empty[measurement.Voltage]{}
	if src.Battery != nil {
		voltage = src.Battery.Voltage()
	}
	return &Telemetry{
		clock:      src.Clock,
		attitude:   src.Estimator.Attitude(),
		navigation: src.Navigation.Navigation(),
		input:      src.Receiver.Input(),
		output:     src.Mixer.Output(),
		rssi:       src.Receiver.RSSI(),
		voltage:    voltage,
		estimator:  src.Estimator,
		watchdog:   src.Watchdog,
		out:        datasource.NewOverwriting[measurement.Telemetry](capacity),
		logger:     logger,
		rate:       rate,
	}
}

// Records returns a new reader, for telemetry records.
func (x *Telemetry) Records() *datasource.OverwritingReader[measurement.Telemetry] {
	return x.out.Reader()
}

func (x *Telemetry) Rate() schedule.Rate { return x.rate }

func (x *Telemetry) Name() string { return `telemetry` }

func (x *Telemetry) PreSchedule() {
	x.snapshot = measurement.Telemetry{
		Uptime:     x.clock.Now(),
		Attitude:   x.attitude.Latest(),
		Navigation: x.navigation.Latest(),
		Input:      x.input.Latest(),
		Output:     x.output.Latest(),
		RSSI:       x.rssi.Latest(),
		Battery:    x.voltage.Latest(),
	}
}

func (x *Telemetry) Schedule() bool {
	x.record = x.snapshot
	x.record.GyroDropped = x.estimator.GyroDropped()
	x.record.Watchdog = x.watchdog.Feeds()
	x.assembled = true
	return true
}

func (x *Telemetry) PostSchedule() {
	if !x.assembled {
		return
	}
	x.assembled = false
	x.out.Write(x.record)

	roll, pitch, _ := x.record.Attitude.Degrees()
	x.logger.Debug().
		Str(`uptime`, x.clock.Uptime()).
		Float64(`roll`, roll).
		Float64(`pitch`, pitch).
		Int64(`altitude_cm`, int64(x.record.Navigation.Altitude)).
		Int64(`vspeed_cms`, int64(x.record.Navigation.VerticalSpeed)).
		Int(`heading`, int(x.record.Navigation.Heading)).
		Int(`rssi`, int(x.record.RSSI)).
		Int(`battery_mv`, int(x.record.Battery)).
		Int(`left`, int(x.record.Output.Left)).
		Int(`right`, int(x.record.Output.Right)).
		Int(`throttle`, int(x.record.Output.Throttle)).
		Uint64(`gyro_dropped`, x.record.GyroDropped).
		Log(`telemetry`)
}
