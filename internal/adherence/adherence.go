// Package adherence compares a medicine's expanded schedule with its dose log.
package adherence

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jonboulle/clockwork"

	"meditrack/internal/logger"
	"meditrack/internal/models"
	"meditrack/internal/schedule"
)

var log = logger.New("adherence")

type MedicineReader interface {
	Get(ctx context.Context, id int64) (models.Medicine, error)
}

type TakenCounter interface {
	CountTaken(ctx context.Context, medicineID int64) (int, error)
}

type Calculator struct {
	medicines MedicineReader
	doseLogs  TakenCounter
	clock     clockwork.Clock
}

func New(medicines MedicineReader, doseLogs TakenCounter, clock clockwork.Clock) *Calculator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Calculator{medicines: medicines, doseLogs: doseLogs, clock: clock}
}

// Compute loads the medicine and returns its adherence. An unknown medicine is
// 0 with no error.
func (c *Calculator) Compute(ctx context.Context, medicineID int64) (float64, error) {
	m, err := c.medicines.Get(ctx, medicineID)
	if errors.Is(err, models.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load medicine %d: %w", medicineID, err)
	}
	return c.ForMedicine(ctx, m)
}

// ForMedicine computes adherence for an already loaded medicine.
//
// Every taken log counts regardless of its scheduled datetime, so a medicine
// whose end date has passed is measured against all of its history.
func (c *Calculator) ForMedicine(ctx context.Context, m models.Medicine) (float64, error) {
	scheduled, open, ok := Scheduled(m, c.clock.Now())
	if !ok {
		return 0, nil
	}
	if scheduled == 0 {
		if open {
			return 100, nil
		}
		return 0, nil
	}

	taken, err := c.doseLogs.CountTaken(ctx, m.ID)
	if err != nil {
		return 0, fmt.Errorf("count taken doses for medicine %d: %w", m.ID, err)
	}

	pct := Percentage(taken, scheduled)
	log.Debug().
		Int64("medicine_id", m.ID).
		Int("scheduled", scheduled).
		Int("taken", taken).
		Float64("adherence", pct).
		Msg("computed")
	return pct, nil
}

// Scheduled counts the occurrences from the start date through the effective
// end: now, or the end date when that has already passed. open reports whether
// the start date lies on or before the effective end. ok is false when the
// medicine has no start date or no valid times.
func Scheduled(m models.Medicine, now time.Time) (count int, open bool, ok bool) {
	if m.StartDate == nil {
		return 0, false, false
	}
	times := schedule.ValidTimes(schedule.DecodeTimes(m.Times))
	if len(times) == 0 {
		return 0, false, false
	}

	start := m.StartDate.UTC()
	end := EffectiveEnd(m, now)
	return len(schedule.Expand(times, start, end)), !start.After(end), true
}

// EffectiveEnd is now, or the last second of the end date when the end date
// is already over. Doses on the end date itself count, unlike a cutoff at the
// end date's midnight.
func EffectiveEnd(m models.Medicine, now time.Time) time.Time {
	now = now.UTC()
	if m.EndDate == nil {
		return now
	}
	last := schedule.Midnight(m.EndDate.UTC()).AddDate(0, 0, 1).Add(-time.Second)
	if last.Before(now) {
		return last
	}
	return now
}

// Percentage is taken/scheduled as a percentage rounded to one decimal and
// capped at 100.
func Percentage(taken, scheduled int) float64 {
	if scheduled <= 0 || taken <= 0 {
		return 0
	}
	if taken >= scheduled {
		return 100
	}
	// halves go to the even digit: 6.25 -> 6.2
	pct := math.RoundToEven(float64(taken)/float64(scheduled)*100*10) / 10
	return math.Min(100, pct)
}
