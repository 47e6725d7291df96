package schedule

import (
	"github.com/joeycumines/go-flightcore/logging"
)

// schedulerOptions holds configuration options for Scheduler creation.
type schedulerOptions struct {
	logger     *logging.Logger
	name       string
	clampRates bool
}

// --- Scheduler Options ---

// Option configures a Scheduler instance.
type Option interface {
	applyScheduler(*schedulerOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applySchedulerFunc func(*schedulerOptions) error
}

func (o *optionImpl) applyScheduler(opts *schedulerOptions) error {
	return o.applySchedulerFunc(opts)
}

// WithLogger configures the logger, used at construction, and for abnormal
// conditions (e.g. re-entry). Nothing is logged on the normal per-tick path.
func WithLogger(logger *logging.Logger) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithName sets the name returned by Scheduler.Name, which is useful when
// schedulers are nested.
func WithName(name string) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.name = name
		return nil
	}}
}

// WithClampRates sets whether task rates exceeding the base rate are clamped
// (to run every tick), rather than rejected with ErrRateExceedsBase.
// Defaults to false.
func WithClampRates(enabled bool) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.clampRates = enabled
		return nil
	}}
}

// resolveOptions applies Option instances to schedulerOptions.
func resolveOptions(opts []Option) (*schedulerOptions, error) {
	cfg := &schedulerOptions{
		name: `scheduler`,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyScheduler(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
