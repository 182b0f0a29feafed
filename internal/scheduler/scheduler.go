package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"meditrack/internal/logger"
	"meditrack/internal/reminders"
)

var log = logger.New("scheduler")

type Runner interface {
	Run(ctx context.Context) (reminders.Result, error)
}

// Driver runs the reminder pipeline on a fixed interval. A tick never overlaps
// the previous one, and Shutdown waits for the tick in flight.
type Driver struct {
	scheduler gocron.Scheduler
	runner    Runner
	interval  time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
}

func New(runner Runner, interval time.Duration, clock clockwork.Clock) (*Driver, error) {
	if interval <= 0 {
		interval = time.Minute
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	s, err := gocron.NewScheduler(
		gocron.WithClock(clock),
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(gocronLogger{log}),
		gocron.WithStopTimeout(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("new scheduler: %w", err)
	}

	return &Driver{scheduler: s, runner: runner, interval: interval}, nil
}

// Start registers the job, runs the first tick immediately and returns. Ticks
// get ctx's values but not its cancellation: a running tick is only cancelled
// once Shutdown has waited for it.
func (d *Driver) Start(ctx context.Context) error {
	d.ctx, d.cancel = context.WithCancel(context.WithoutCancel(ctx))

	_, err := d.scheduler.NewJob(
		gocron.DurationJob(d.interval),
		gocron.NewTask(func() { d.Tick(d.ctx) }),
		gocron.WithName("reminders"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		d.cancel()
		return fmt.Errorf("register reminder job: %w", err)
	}

	d.scheduler.Start()
	log.Info().Dur("interval", d.interval).Msg("scheduler started")
	return nil
}

// Shutdown stops scheduling and blocks until the running tick returns.
func (d *Driver) Shutdown() error {
	err := d.scheduler.Shutdown()
	if d.cancel != nil {
		d.cancel()
	}
	log.Info().Msg("scheduler stopped")
	return err
}

// Tick runs the pipeline once.
func (d *Driver) Tick(ctx context.Context) {
	l := log.With().Str("tick", xid.New().String()).Logger()
	started := time.Now()

	res, err := d.runner.Run(ctx)
	ev := l.Debug()
	if err != nil {
		ev = l.Error().Err(err)
	} else if res.Sent > 0 || res.Failed > 0 {
		ev = l.Info()
	}
	ev.Int("queued", res.Queued).
		Int("sent", res.Sent).
		Int("failed", res.Failed).
		Dur("took", time.Since(started)).
		Msg("tick")
}

type gocronLogger struct {
	l zerolog.Logger
}

func (g gocronLogger) Debug(msg string, args ...any) { g.l.Debug().Fields(args).Msg(msg) }
func (g gocronLogger) Info(msg string, args ...any)  { g.l.Info().Fields(args).Msg(msg) }
func (g gocronLogger) Warn(msg string, args ...any)  { g.l.Warn().Fields(args).Msg(msg) }
func (g gocronLogger) Error(msg string, args ...any) { g.l.Error().Fields(args).Msg(msg) }
