package jiffies

import (
	"errors"

	"github.com/joeycumines/go-flightcore/logging"
)

// sysTickOptions holds configuration options for SysTick creation.
type sysTickOptions struct {
	logger    *logging.Logger
	callbacks []func()
}

// Option configures a SysTick instance.
type Option interface {
	applySysTick(*sysTickOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applySysTickFunc func(*sysTickOptions) error
}

func (o *optionImpl) applySysTick(opts *sysTickOptions) error {
	return o.applySysTickFunc(opts)
}

// WithCallbacks appends callbacks, to be run in order, on every tick.
func WithCallbacks(callbacks ...func()) Option {
	return &optionImpl{func(opts *sysTickOptions) error {
		for _, fn := range callbacks {
			if fn == nil {
				return errors.New(`jiffies: nil callback`)
			}
		}
		opts.callbacks = append(opts.callbacks, callbacks...)
		return nil
	}}
}

// WithLogger configures the logger, used for lifecycle events and (rate
// limited) overrun warnings.
func WithLogger(logger *logging.Logger) Option {
	return &optionImpl{func(opts *sysTickOptions) error {
		opts.logger = logger
		return nil
	}}
}

// resolveOptions applies Option instances to sysTickOptions.
func resolveOptions(opts []Option) (*sysTickOptions, error) {
	cfg := &sysTickOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applySysTick(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
