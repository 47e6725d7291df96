package event

import (
	"github.com/joeycumines/go-flightcore/logging"
	"github.com/joeycumines/go-flightcore/schedule"
)

// triggerOptions holds configuration options for Trigger creation.
type triggerOptions struct {
	clock    Clock
	pender   Pender
	logger   *logging.Logger
	name     string
	pollRate schedule.Rate
	periodic bool
}

// Option configures a Trigger instance.
type Option interface {
	applyTrigger(*triggerOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyTriggerFunc func(*triggerOptions) error
}

func (o *optionImpl) applyTrigger(opts *triggerOptions) error {
	return o.applyTriggerFunc(opts)
}

// WithPollRate sets the rate returned by Trigger.Rate, i.e. how often the
// Trigger is polled when registered with a schedule.Scheduler, which bounds
// the latency of deferred requests. Defaults to the maximum rate of the
// Trigger.
func WithPollRate(rate schedule.Rate) Option {
	return &optionImpl{func(opts *triggerOptions) error {
		if rate == 0 {
			return ErrZeroRate
		}
		opts.pollRate = rate
		return nil
	}}
}

// WithPeriodic sets whether polls run the target, without any notification,
// subject to the maximum rate. Defaults to false.
func WithPeriodic(enabled bool) Option {
	return &optionImpl{func(opts *triggerOptions) error {
		opts.periodic = enabled
		return nil
	}}
}

// WithClock configures the time base used to enforce the maximum rate.
// Defaults to a monotonic wall clock.
func WithClock(clock Clock) Option {
	return &optionImpl{func(opts *triggerOptions) error {
		opts.clock = clock
		return nil
	}}
}

// WithPender configures the soft interrupt used to serve notifications, e.g.
// a SoftInterrupt. If unset, notifications are only served by polling.
func WithPender(pender Pender) Option {
	return &optionImpl{func(opts *triggerOptions) error {
		opts.pender = pender
		return nil
	}}
}

// WithLogger configures the logger, used for abnormal conditions only.
func WithLogger(logger *logging.Logger) Option {
	return &optionImpl{func(opts *triggerOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithName overrides the name returned by Trigger.Name, which otherwise
// derives from the target.
func WithName(name string) Option {
	return &optionImpl{func(opts *triggerOptions) error {
		opts.name = name
		return nil
	}}
}

// resolveOptions applies Option instances to triggerOptions.
func resolveOptions(opts []Option) (*triggerOptions, error) {
	cfg := &triggerOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyTrigger(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
