package board

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joeycumines/go-flightcore/config"
	"github.com/joeycumines/go-flightcore/datasource"
	"github.com/joeycumines/go-flightcore/event"
	"github.com/joeycumines/go-flightcore/jiffies"
	"github.com/joeycumines/go-flightcore/logging"
	"github.com/joeycumines/go-flightcore/measurement"
	"github.com/joeycumines/go-flightcore/schedule"
)

// Board owns every channel, driver, and task of the simulated aircraft,
// allocated once, at construction.
//
// The root scheduler runs, in order: baro, estimator, navigation, the mixer
// trigger, then a nested slow scheduler, running telemetry, the watchdog,
// and the OSD. The mixer is also run by the soft interrupt, when notified by
// the receiver.
type Board struct {
	cfg       *config.Config
	logger    *logging.Logger
	session   uuid.UUID
	pilot     Pilot
	clock     *jiffies.Clock
	systick   *jiffies.SysTick
	softirq   *event.SoftInterrupt
	imu       *IMU
	baro      *Barometer
	battery   *Battery
	receiver  *Receiver
	estimator *Estimator
	nav       *Navigation
	mixer     *Mixer
	trigger   *event.Trigger
	telemetry *Telemetry
	watchdog  *Watchdog
	osd       *OSD
	root      *schedule.Scheduler
	slow      *schedule.Scheduler
	// base ticks per battery transfer, in Step
	batteryInterval uint64
}

// New initializes a new Board, from a validated profile.
func New(cfg *config.Config, opts ...Option) (*Board, error) {
	if cfg == nil {
		return nil, errors.New(`board: nil config`)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf(`board: %w`, err)
	}
	o, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	x := Board{
		cfg:     cfg,
		session: o.session,
		pilot:   o.pilot,
	}
	if x.session == uuid.Nil {
		x.session = uuid.New()
	}
	if !o.pilotSet {
		x.pilot = Cruise(cfg.Receiver.Channels, cfg.Receiver.FrameRate)
	}
	x.logger = o.logger.Clone().Str(`session`, x.session.String()).Logger()

	if x.clock, err = jiffies.New(cfg.Board.BaseRate); err != nil {
		return nil, err
	}
	if x.softirq, err = event.NewSoftInterrupt(); err != nil {
		return nil, err
	}

	x.imu = NewIMU(cfg.Board.GyroRate, cfg.Channels.Gyro, cfg.Channels.Accel, o.motion)
	x.baro = NewBarometer(schedule.Rate(cfg.Tasks.Baro), cfg.Board.BaroWarmup, o.pressure)
	x.battery = NewBattery(cfg.Battery.SampleRate, o.adc)
	x.batteryInterval = uint64(max(cfg.Board.BaseRate/cfg.Battery.SampleRate, 1))
	x.estimator = NewEstimator(schedule.Rate(cfg.Tasks.Estimator), cfg.Board.GyroRate, x.imu, cfg.Channels.Attitude)
	x.nav = NewNavigation(schedule.Rate(cfg.Tasks.Navigation), x.baro, x.estimator)
	x.watchdog = NewWatchdog(schedule.Rate(cfg.Tasks.Watchdog))

	// the receiver notifies the trigger, which wraps the mixer, which reads
	// the receiver
	var notify event.NotifyFunc = func() { x.trigger.Notify() }
	x.receiver = NewReceiver(cfg.Receiver, notify, x.logger)
	x.mixer = NewMixer(schedule.Rate(cfg.Receiver.MaxRate), cfg.Receiver.FailsafeTimeout, x.clock, x.receiver, x.estimator, x.logger)
	if x.trigger, err = event.NewTrigger(
		x.mixer,
		schedule.Rate(cfg.Receiver.MaxRate),
		event.WithPollRate(schedule.Rate(cfg.Receiver.PollRate)),
		event.WithPeriodic(true),
		event.WithClock(x.clock),
		event.WithPender(x.softirq),
		event.WithLogger(x.logger),
	); err != nil {
		return nil, err
	}

	x.telemetry = NewTelemetry(schedule.Rate(cfg.Tasks.Telemetry), cfg.Channels.Telemetry, TelemetrySources{
		Clock:      x.clock,
		Estimator:  x.estimator,
		Navigation: x.nav,
		Receiver:   x.receiver,
		Mixer:      x.mixer,
		Watchdog:   x.watchdog,
		Battery:    x.battery,
	}, x.logger)
	x.osd = NewOSD(schedule.Rate(cfg.Tasks.OSD), OSDSources{
		Estimator:  x.estimator,
		Navigation: x.nav,
		Receiver:   x.receiver,
		Battery:    x.battery,
	}, cfg.Battery, x.logger)

	if x.slow, err = schedule.New(
		[]schedule.Schedulable{x.telemetry, x.watchdog, x.osd},
		schedule.Rate(cfg.Board.SlowRate),
		schedule.WithName(`slow`),
		schedule.WithLogger(x.logger),
	); err != nil {
		return nil, err
	}
	if x.root, err = schedule.New(
		[]schedule.Schedulable{x.baro, x.estimator, x.nav, x.trigger, x.slow},
		schedule.Rate(cfg.Board.BaseRate),
		schedule.WithName(`root`),
		schedule.WithLogger(x.logger),
	); err != nil {
		return nil, err
	}

	if x.systick, err = jiffies.NewSysTick(
		cfg.Board.BaseRate,
		jiffies.WithCallbacks(func() { x.clock.Tick() }, func() { x.root.Schedule() }),
		jiffies.WithLogger(x.logger),
	); err != nil {
		return nil, err
	}

	return &x, nil
}

// Run runs the board until ctx is done, returning nil, or until any context
// fails, e.g. with ErrWatchdogTimeout. A panic in any context (a task, a
// soft interrupt handler, or a driver) stops every context, then is
// re-raised by Run, on the caller's goroutine. Run may only be called once.
func (x *Board) Run(ctx context.Context) error {
	x.logger.Info().
		Uint64(`base_rate`, uint64(x.cfg.Board.BaseRate)).
		Uint64(`gyro_rate`, uint64(x.cfg.Board.GyroRate)).
		Log(`board starting`)

	var fault panicGuard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(fault.wrap(func() error {
		err := x.softirq.Run(gctx)
		if gctx.Err() != nil {
			return nil
		}
		return err
	}))
	g.Go(fault.wrap(func() error { return x.imu.Run(gctx) }))
	g.Go(fault.wrap(func() error { return x.battery.Run(gctx) }))
	if x.pilot != nil {
		g.Go(fault.wrap(func() error { return runPilot(gctx, x.pilot, x.receiver, x.cfg.Receiver.FrameRate) }))
	}
	g.Go(fault.wrap(func() error {
		return x.watchdog.Run(gctx, x.watchdogTimeout())
	}))
	g.Go(fault.wrap(func() error { return x.systick.Run(gctx) }))

	err := g.Wait()
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		err = nil
	}

	level := x.logger.Info()
	if err != nil {
		level = x.logger.Err().Err(err)
	}
	level.
		Str(`uptime`, x.clock.Uptime()).
		Uint64(`ticks`, x.systick.Ticks()).
		Uint64(`overruns`, x.systick.Overruns()).
		Uint64(`reentries`, x.root.Reentries()).
		Uint64(`imu_samples`, x.imu.Samples()).
		Uint64(`receiver_frames`, x.receiver.Frames()).
		Uint64(`mixer_runs`, x.trigger.Stats().Runs).
		Log(`board stopped`)

	if fault.panicked {
		x.logger.Crit().
			Str(`panic`, fmt.Sprint(fault.value)).
			Str(`stack`, string(fault.stack)).
			Log(`board panicked`)
		panic(fault.value)
	}

	return err
}

var errPanicked = errors.New(`board: panicked`)

// panicGuard captures the first panic of the contexts run by Board.Run.
// Fields may only be read after every wrapped function has returned.
type panicGuard struct {
	once     sync.Once
	value    any
	stack    []byte
	panicked bool
}

func (x *panicGuard) wrap(fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				x.once.Do(func() {
					x.value = r
					x.stack = debug.Stack()
					x.panicked = true
				})
				err = errPanicked
			}
		}()
		return fn()
	}
}

// watchdogTimeout allows several watchdog periods, with a floor.
func (x *Board) watchdogTimeout() time.Duration {
	timeout := 4 * time.Second / time.Duration(x.cfg.Tasks.Watchdog)
	return max(timeout, 250*time.Millisecond)
}

// Step synchronously runs n base ticks, sampling the IMU (at the base rate)
// before each, and transferring the battery voltage at its configured rate,
// without starting any other context. It must not be called concurrently
// with Run.
func (x *Board) Step(n int) {
	for range n {
		if x.systick.Ticks()%x.batteryInterval == 0 {
			x.battery.Transfer()
		}
		x.imu.Sample()
		x.systick.Step(1)
	}
}

// Close releases the soft interrupt.
func (x *Board) Close() error {
	return x.softirq.Close()
}

// Session returns the session id.
func (x *Board) Session() uuid.UUID { return x.session }

// Clock returns the tick clock.
func (x *Board) Clock() *jiffies.Clock { return x.clock }

// Receiver returns the receiver driver, e.g. to feed frames directly.
func (x *Board) Receiver() *Receiver { return x.receiver }

// IMU returns the IMU driver.
func (x *Board) IMU() *IMU { return x.imu }

// Scheduler returns the root scheduler.
func (x *Board) Scheduler() *schedule.Scheduler { return x.root }

// Battery returns the battery voltage driver.
func (x *Board) Battery() *Battery { return x.battery }

// OSD returns the OSD task, e.g. for the battery state.
func (x *Board) OSD() *OSD { return x.osd }

// Screen returns a new reader, for OSD frames.
func (x *Board) Screen() *datasource.SingularReader[Screen] {
	return x.osd.Screen()
}

// Trigger returns the mixer trigger.
func (x *Board) Trigger() *event.Trigger { return x.trigger }

// Watchdog returns the watchdog.
func (x *Board) Watchdog() *Watchdog { return x.watchdog }

// Telemetry returns a new reader, for telemetry records.
func (x *Board) Telemetry() *datasource.OverwritingReader[measurement.Telemetry] {
	return x.telemetry.Records()
}

// Output returns a new reader, for the actuator commands.
func (x *Board) Output() *datasource.SingularReader[measurement.Output] {
	return x.mixer.Output()
}

// Navigation returns a new reader, for the navigation state.
func (x *Board) Navigation() *datasource.SingularReader[measurement.Navigation] {
	return x.nav.Navigation()
}
