// Package config loads the board profile, a YAML document describing the
// rates, channel capacities, and receiver settings of the simulated board.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joeycumines/go-flightcore/logging"
)

// Config is the complete board profile.
type Config struct {
	Board    BoardConfig    `yaml:"board"`
	Channels ChannelsConfig `yaml:"channels"`
	Tasks    TasksConfig    `yaml:"tasks"`
	Receiver ReceiverConfig `yaml:"receiver"`
	Battery  BatteryConfig  `yaml:"battery"`
	LogLevel string         `yaml:"log_level"`
}

// BoardConfig contains the tick rates of the board.
type BoardConfig struct {
	BaseRate   uint `yaml:"base_rate"`   // root scheduler / systick rate, Hz
	GyroRate   uint `yaml:"gyro_rate"`   // IMU sample interrupt rate, Hz
	SlowRate   uint `yaml:"slow_rate"`   // nested scheduler rate, Hz
	BaroWarmup int  `yaml:"baro_warmup"` // conversions before the first sample
}

// ChannelsConfig contains data channel capacities, each a power of two.
type ChannelsConfig struct {
	Gyro      int `yaml:"gyro"`
	Accel     int `yaml:"accel"`
	Attitude  int `yaml:"attitude"`
	Telemetry int `yaml:"telemetry"`
}

// TasksConfig contains task rates, in Hz. Telemetry and Watchdog run within
// the nested scheduler, so are bounded by the slow rate.
type TasksConfig struct {
	Baro       uint `yaml:"baro"`
	Estimator  uint `yaml:"estimator"`
	Navigation uint `yaml:"navigation"`
	Telemetry  uint `yaml:"telemetry"`
	Watchdog   uint `yaml:"watchdog"`
	OSD        uint `yaml:"osd"`
}

// ReceiverConfig contains radio receiver, and event driven mixer, settings.
type ReceiverConfig struct {
	FrameRate       uint          `yaml:"frame_rate"` // simulated frames per second
	MaxRate         uint          `yaml:"max_rate"`   // mixer runs per second, at most
	PollRate        uint          `yaml:"poll_rate"`  // mixer trigger polls per second
	FailsafeTimeout time.Duration `yaml:"failsafe_timeout"`
	Scale           uint8         `yaml:"scale"` // percent
	Channels        InputChannels `yaml:"channels"`
}

// BatteryConfig describes the flight battery, and the voltage ADC. Cell
// voltages are in volts. A cell count of 0 detects the count from the first
// sample.
type BatteryConfig struct {
	Cells              uint8   `yaml:"cells"`
	MinCellVoltage     float64 `yaml:"min_cell_voltage"`
	MaxCellVoltage     float64 `yaml:"max_cell_voltage"`
	WarningCellVoltage float64 `yaml:"warning_cell_voltage"`
	SampleRate         uint    `yaml:"sample_rate"` // ADC DMA transfers per second
}

// InputChannels maps each control input to a receiver channel index.
type InputChannels struct {
	Throttle int `yaml:"throttle"`
	Roll     int `yaml:"roll"`
	Pitch    int `yaml:"pitch"`
	Yaw      int `yaml:"yaw"`
}

// Default returns the default profile.
func Default() *Config {
	return &Config{
		Board: BoardConfig{
			BaseRate:   1000,
			GyroRate:   1000,
			SlowRate:   50,
			BaroWarmup: 2,
		},
		Channels: ChannelsConfig{
			Gyro:      32,
			Accel:     32,
			Attitude:  8,
			Telemetry: 64,
		},
		Tasks: TasksConfig{
			Baro:       50,
			Estimator:  500,
			Navigation: 50,
			Telemetry:  10,
			Watchdog:   10,
			OSD:        10,
		},
		Receiver: ReceiverConfig{
			FrameRate:       100,
			MaxRate:         50,
			PollRate:        100,
			FailsafeTimeout: 500 * time.Millisecond,
			Scale:           100,
			Channels: InputChannels{
				Roll:     0,
				Pitch:    1,
				Throttle: 2,
				Yaw:      3,
			},
		},
		Battery: BatteryConfig{
			MinCellVoltage:     3.3,
			MaxCellVoltage:     4.2,
			WarningCellVoltage: 3.5,
			SampleRate:         10,
		},
		LogLevel: `info`,
	}
}

// Load reads, parses, and validates a profile from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read file: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates a profile. Fields omitted from data retain
// their default values. Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: failed to parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	return cfg, nil
}

// Marshal encodes the profile as YAML.
func (x *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(x); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Level parses LogLevel.
func (x *Config) Level() (logging.Level, error) {
	return logging.ParseLevel(x.LogLevel)
}
