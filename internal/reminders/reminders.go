// Package reminders keeps the reminder queue filled for the lookahead window
// and drains the entries that are due.
package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"meditrack/internal/logger"
	"meditrack/internal/messages"
	"meditrack/internal/models"
	"meditrack/internal/schedule"
)

var log = logger.New("reminders")

const (
	DefaultLookahead   = 24 * time.Hour
	DefaultMaxAttempts = 3
)

type MedicineSource interface {
	ListAll(ctx context.Context) ([]models.Medicine, error)
	Get(ctx context.Context, id int64) (models.Medicine, error)
}

type UserSource interface {
	Get(ctx context.Context, id int64) (models.User, error)
}

type Queue interface {
	InsertIfAbsent(ctx context.Context, medicineID int64, sendAt time.Time) (bool, error)
	ListDue(ctx context.Context, now time.Time, maxAttempts int) ([]models.ReminderQueueEntry, error)
	Claim(ctx context.Context, id int64, now time.Time, maxAttempts int) (bool, error)
	MarkSent(ctx context.Context, id int64) error
}

type Notifier interface {
	Notify(ctx context.Context, user models.User, subject, body string) bool
}

type Config struct {
	Lookahead   time.Duration
	MaxAttempts int
}

type Service struct {
	medicines   MedicineSource
	users       UserSource
	queue       Queue
	notifier    Notifier
	clock       clockwork.Clock
	lookahead   time.Duration
	maxAttempts int
}

// Result summarises one Run.
type Result struct {
	Queued int
	Sent   int
	Failed int
}

func New(medicines MedicineSource, users UserSource, queue Queue, notifier Notifier, clock clockwork.Clock, cfg Config) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.Lookahead <= 0 || cfg.Lookahead > DefaultLookahead {
		cfg.Lookahead = DefaultLookahead
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	return &Service{
		medicines:   medicines,
		users:       users,
		queue:       queue,
		notifier:    notifier,
		clock:       clock,
		lookahead:   cfg.Lookahead,
		maxAttempts: cfg.MaxAttempts,
	}
}

// Run materializes and then dispatches at the clock's current time. A failure
// in one stage does not skip the other; both errors are returned.
func (s *Service) Run(ctx context.Context) (Result, error) {
	now := s.clock.Now()
	var res Result

	queued, mErr := s.Materialize(ctx, now)
	res.Queued = queued
	if mErr != nil {
		log.Error().Err(mErr).Msg("materialize")
	}

	sent, failed, dErr := s.Dispatch(ctx, now)
	res.Sent, res.Failed = sent, failed
	if dErr != nil {
		log.Error().Err(dErr).Msg("dispatch")
	}

	return res, errors.Join(mErr, dErr)
}

// Materialize queues every occurrence of today and tomorrow that falls in
// [now, now+lookahead] and inside the medicine's start and end days. Existing
// entries are left alone, so repeated calls never duplicate.
func (s *Service) Materialize(ctx context.Context, now time.Time) (int, error) {
	meds, err := s.medicines.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list medicines: %w", err)
	}

	now = now.UTC()
	today := schedule.Midnight(now)
	until := now.Add(s.lookahead)
	if endOfTomorrow := today.AddDate(0, 0, 2).Add(-time.Second); until.After(endOfTomorrow) {
		until = endOfTomorrow
	}

	inserted := 0
	for _, m := range meds {
		times := schedule.ValidTimes(schedule.DecodeTimes(m.Times))
		if len(times) == 0 {
			continue
		}
		for _, occ := range schedule.Expand(times, today, until) {
			if occ.Before(now) || !activeOn(m, occ) {
				continue
			}
			ok, err := s.queue.InsertIfAbsent(ctx, m.ID, occ)
			if err != nil {
				return inserted, err
			}
			if ok {
				inserted++
			}
		}
	}

	if inserted > 0 {
		log.Info().Int("queued", inserted).Msg("reminders queued")
	}
	return inserted, nil
}

// activeOn reports whether occ falls on or after the start day and on or
// before the end day. Unset bounds are open.
func activeOn(m models.Medicine, occ time.Time) bool {
	if m.StartDate != nil && occ.Before(schedule.Midnight(m.StartDate.UTC())) {
		return false
	}
	if m.EndDate != nil && !occ.Before(schedule.Midnight(m.EndDate.UTC()).AddDate(0, 0, 1)) {
		return false
	}
	return true
}

// Dispatch sends every entry due at now that is unsent and under the attempt
// ceiling. Each entry spends its attempt before delivery and records success
// afterwards, both as separate commits.
func (s *Service) Dispatch(ctx context.Context, now time.Time) (sent, failed int, err error) {
	entries, err := s.queue.ListDue(ctx, now, s.maxAttempts)
	if err != nil {
		return 0, 0, fmt.Errorf("list due reminders: %w", err)
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return sent, failed, err
		}

		claimed, err := s.queue.Claim(ctx, e.ID, now, s.maxAttempts)
		if err != nil {
			return sent, failed, err
		}
		if !claimed {
			continue
		}

		ok, err := s.deliver(ctx, e)
		if err != nil {
			return sent, failed, err
		}
		if !ok {
			failed++
			continue
		}
		// the message is out; record it even if ctx was cancelled meanwhile
		if err := s.queue.MarkSent(context.WithoutCancel(ctx), e.ID); err != nil {
			return sent, failed, err
		}
		sent++
	}

	return sent, failed, nil
}

func (s *Service) deliver(ctx context.Context, e models.ReminderQueueEntry) (bool, error) {
	l := log.With().Int64("reminder_id", e.ID).Int64("medicine_id", e.MedicineID).Logger()

	med, err := s.medicines.Get(ctx, e.MedicineID)
	if errors.Is(err, models.ErrNotFound) {
		l.Warn().Msg("medicine is gone, attempt counted as failed")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load medicine %d: %w", e.MedicineID, err)
	}

	user, err := s.users.Get(ctx, med.UserID)
	if errors.Is(err, models.ErrNotFound) {
		l.Warn().Int64("user_id", med.UserID).Msg("owner is gone, attempt counted as failed")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load user %d: %w", med.UserID, err)
	}

	subject, body, err := messages.Render(messages.Reminder{User: user, Medicine: med, At: e.SendAt})
	if err != nil {
		l.Error().Err(err).Msg("render reminder")
		return false, nil
	}

	if !s.notifier.Notify(ctx, user, subject, body) {
		l.Error().Int("attempt", e.Attempts+1).Msgf("failed to send reminder for %s", med.Name)
		return false, nil
	}

	l.Info().Str("to", user.Email).Msgf("sent reminder for %s", med.Name)
	return true, nil
}
