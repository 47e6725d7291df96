package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/joeycumines/go-flightcore/config"
	"github.com/joeycumines/go-flightcore/internal/board"
	"github.com/joeycumines/go-flightcore/logging"
	"github.com/joeycumines/go-flightcore/measurement"
)

type runOptions struct {
	config   string
	logLevel string
	duration time.Duration
	rocking  float64
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   `run`,
		Short: `Run the simulation, until interrupted, or for a duration`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.config, `config`, `c`, ``, `path to a YAML profile, defaults are used if unset`)
	cmd.Flags().StringVar(&opts.logLevel, `log-level`, ``, `overrides the log level of the profile`)
	cmd.Flags().DurationVarP(&opts.duration, `duration`, `d`, 0, `stop after this duration, 0 runs until interrupted`)
	cmd.Flags().Float64Var(&opts.rocking, `rocking`, 0, `amplitude of a simulated rocking motion, in radians`)
	return cmd
}

// runSimulation runs a board, printing the last telemetry record to stdout.
// A panic is logged, and returned as an error.
func runSimulation(ctx context.Context, stdout, stderr io.Writer, opts runOptions, extra ...board.Option) (err error) {
	cfg := config.Default()
	if opts.config != `` {
		if cfg, err = config.Load(opts.config); err != nil {
			return err
		}
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	if opts.logLevel != `` {
		if level, err = logging.ParseLevel(opts.logLevel); err != nil {
			return err
		}
	}
	logger := logging.New(stderr, level)

	defer func() {
		if r := recover(); r != nil {
			logger.Crit().
				Str(`panic`, fmt.Sprint(r)).
				Log(`simulation panicked`)
			err = fmt.Errorf(`flightsim: panic: %v`, r)
		}
	}()

	boardOpts := []board.Option{board.WithLogger(logger)}
	if opts.rocking != 0 {
		boardOpts = append(boardOpts, board.WithMotion(board.Rocking(opts.rocking, 4*time.Second)))
	}
	b, err := board.New(cfg, append(boardOpts, extra...)...)
	if err != nil {
		return err
	}
	defer b.Close()
	records := b.Telemetry()

	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}
	if err := b.Run(ctx); err != nil {
		return err
	}

	var (
		last measurement.Telemetry
		ok   bool
	)
	for {
		v, more := records.Read()
		if !more {
			break
		}
		last, ok = v, true
	}
	if !ok {
		_, err = fmt.Fprintln(stdout, `session=`+b.Session().String()+` no telemetry`)
		return err
	}
	_, err = fmt.Fprintln(stdout, `session=`+b.Session().String()+` `+formatTelemetry(last))
	return err
}

func formatTelemetry(v measurement.Telemetry) string {
	roll, pitch, _ := v.Attitude.Degrees()
	return fmt.Sprintf(
		`uptime=%s roll=%.1f pitch=%.1f heading=%d altitude=%.2fm rssi=%d battery=%.2fV output=%d/%d/%d watchdog=%d gyro_dropped=%d`,
		v.Uptime,
		roll,
		pitch,
		v.Navigation.Heading,
		v.Navigation.Altitude.Meters(),
		v.RSSI,
		v.Battery.Volts(),
		v.Output.Left,
		v.Output.Right,
		v.Output.Throttle,
		v.Watchdog,
		v.GyroDropped,
	)
}

func defaultProfile() ([]byte, error) {
	return config.Default().Marshal()
}
