package board

import (
	"github.com/google/uuid"

	"github.com/joeycumines/go-flightcore/logging"
	"github.com/joeycumines/go-flightcore/measurement"
)

// boardOptions holds configuration options for Board creation.
type boardOptions struct {
	logger   *logging.Logger
	motion   Motion
	pilot    Pilot
	pressure func() measurement.Pressure
	adc      ADC
	session  uuid.UUID
	pilotSet bool
}

// Option configures a Board instance.
type Option interface {
	applyBoard(*boardOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyBoardFunc func(*boardOptions) error
}

func (o *optionImpl) applyBoard(opts *boardOptions) error {
	return o.applyBoardFunc(opts)
}

// WithLogger configures the logger. Every entry is tagged with the session.
func WithLogger(logger *logging.Logger) Option {
	return &optionImpl{func(opts *boardOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithSession overrides the session id, which is otherwise random.
func WithSession(session uuid.UUID) Option {
	return &optionImpl{func(opts *boardOptions) error {
		opts.session = session
		return nil
	}}
}

// WithMotion configures the motion sensed by the IMU. Defaults to
// Stationary.
func WithMotion(motion Motion) Option {
	return &optionImpl{func(opts *boardOptions) error {
		opts.motion = motion
		return nil
	}}
}

// WithPilot configures the source of receiver frames, used by Board.Run.
// Defaults to Cruise. A nil pilot disables the simulated receiver, leaving
// the mixer in failsafe, unless frames are fed directly.
func WithPilot(pilot Pilot) Option {
	return &optionImpl{func(opts *boardOptions) error {
		opts.pilot = pilot
		opts.pilotSet = true
		return nil
	}}
}

// WithPressure configures the pressure sensed by the barometer.
func WithPressure(pressure func() measurement.Pressure) Option {
	return &optionImpl{func(opts *boardOptions) error {
		opts.pressure = pressure
		return nil
	}}
}

// WithADC configures the battery voltage ADC. Defaults to a 3 cell pack at
// 11.1V, see ConstantPack.
func WithADC(adc ADC) Option {
	return &optionImpl{func(opts *boardOptions) error {
		opts.adc = adc
		return nil
	}}
}

// resolveOptions applies Option instances to boardOptions.
func resolveOptions(opts []Option) (*boardOptions, error) {
	cfg := &boardOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyBoard(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
