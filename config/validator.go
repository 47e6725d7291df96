package config

import (
	"errors"
	"fmt"

	"github.com/joeycumines/go-flightcore/jiffies"
)

const (
	maxReceiverChannels = 16
	maxBatteryCells     = 12
	maxCellVoltage      = 5
)

// Validate checks the profile, returning every problem found, joined.
func (x *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	base := x.Board.BaseRate
	if base < jiffies.MinRate || base > jiffies.MaxRate {
		add("board.base_rate must be within [%d, %d], got %d", jiffies.MinRate, jiffies.MaxRate, base)
	}
	if x.Board.GyroRate == 0 {
		add("board.gyro_rate must be > 0")
	}
	if x.Board.SlowRate == 0 || x.Board.SlowRate > base {
		add("board.slow_rate must be within [1, board.base_rate], got %d", x.Board.SlowRate)
	}
	if x.Board.BaroWarmup < 0 {
		add("board.baro_warmup must be >= 0, got %d", x.Board.BaroWarmup)
	}

	for _, c := range [...]struct {
		name     string
		capacity int
	}{
		{`gyro`, x.Channels.Gyro},
		{`accel`, x.Channels.Accel},
		{`attitude`, x.Channels.Attitude},
		{`telemetry`, x.Channels.Telemetry},
	} {
		if c.capacity <= 0 || c.capacity&(c.capacity-1) != 0 {
			add("channels.%s must be a positive power of two, got %d", c.name, c.capacity)
		}
	}

	for _, r := range [...]struct {
		name  string
		rate  uint
		limit uint
	}{
		{`tasks.baro`, x.Tasks.Baro, base},
		{`tasks.estimator`, x.Tasks.Estimator, base},
		{`tasks.navigation`, x.Tasks.Navigation, base},
		{`tasks.telemetry`, x.Tasks.Telemetry, x.Board.SlowRate},
		{`tasks.watchdog`, x.Tasks.Watchdog, x.Board.SlowRate},
		{`tasks.osd`, x.Tasks.OSD, x.Board.SlowRate},
		{`receiver.max_rate`, x.Receiver.MaxRate, base},
		{`receiver.poll_rate`, x.Receiver.PollRate, base},
	} {
		if r.rate == 0 || r.rate > r.limit {
			add("%s must be within [1, %d], got %d", r.name, r.limit, r.rate)
		}
	}

	if x.Receiver.FrameRate == 0 {
		add("receiver.frame_rate must be > 0")
	}
	if x.Receiver.FailsafeTimeout <= 0 {
		add("receiver.failsafe_timeout must be > 0, got %s", x.Receiver.FailsafeTimeout)
	}
	if x.Receiver.Scale == 0 || x.Receiver.Scale > 200 {
		add("receiver.scale must be within [1, 200], got %d", x.Receiver.Scale)
	}
	seen := make(map[int]string, 4)
	for _, c := range [...]struct {
		name    string
		channel int
	}{
		{`throttle`, x.Receiver.Channels.Throttle},
		{`roll`, x.Receiver.Channels.Roll},
		{`pitch`, x.Receiver.Channels.Pitch},
		{`yaw`, x.Receiver.Channels.Yaw},
	} {
		if c.channel < 0 || c.channel >= maxReceiverChannels {
			add("receiver.channels.%s must be within [0, %d), got %d", c.name, maxReceiverChannels, c.channel)
			continue
		}
		if other, ok := seen[c.channel]; ok {
			add("receiver.channels.%s duplicates receiver.channels.%s", c.name, other)
		}
		seen[c.channel] = c.name
	}

	if x.Battery.Cells > maxBatteryCells {
		add("battery.cells must be within [0, %d], got %d", maxBatteryCells, x.Battery.Cells)
	}
	if b := x.Battery; !(b.MinCellVoltage > 0 &&
		b.MinCellVoltage < b.WarningCellVoltage &&
		b.WarningCellVoltage < b.MaxCellVoltage &&
		b.MaxCellVoltage <= maxCellVoltage) {
		add("battery cell voltages must satisfy 0 < min_cell_voltage < warning_cell_voltage < max_cell_voltage <= %d, got %g, %g, %g",
			maxCellVoltage, b.MinCellVoltage, b.WarningCellVoltage, b.MaxCellVoltage)
	}
	if x.Battery.SampleRate == 0 || x.Battery.SampleRate > jiffies.MaxRate {
		add("battery.sample_rate must be within [1, %d], got %d", jiffies.MaxRate, x.Battery.SampleRate)
	}

	if _, err := x.Level(); err != nil {
		add("log_level: %w", err)
	}

	return errors.Join(errs...)
}
