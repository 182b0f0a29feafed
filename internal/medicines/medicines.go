// Package medicines manages a user's prescriptions and dose log.
package medicines

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"meditrack/internal/logger"
	"meditrack/internal/models"
	"meditrack/internal/schedule"
)

var log = logger.New("medicines")

const (
	DateLayout     = "2006-01-02"
	DatetimeLayout = "2006-01-02T15:04:05"
)

var ErrInvalidInput = errors.New("name, dose and start_date (YYYY-MM-DD) are required")

type Store interface {
	Create(ctx context.Context, m *models.Medicine) error
	Get(ctx context.Context, id int64) (models.Medicine, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Medicine, error)
	Delete(ctx context.Context, userID, id int64) error
}

type DoseLogStore interface {
	Create(ctx context.Context, l *models.DoseLog) error
}

type AdherenceCalculator interface {
	ForMedicine(ctx context.Context, m models.Medicine) (float64, error)
}

type Service struct {
	medicines Store
	doseLogs  DoseLogStore
	adherence AdherenceCalculator
	clock     clockwork.Clock
}

func New(medicines Store, doseLogs DoseLogStore, adherence AdherenceCalculator, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{medicines: medicines, doseLogs: doseLogs, adherence: adherence, clock: clock}
}

type CreateInput struct {
	Name      string   `json:"name"`
	Dose      string   `json:"dose"`
	Times     []string `json:"times"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
}

// Summary is a medicine as shown to its owner.
type Summary struct {
	models.Medicine
	Times     []string `json:"times"`
	Adherence float64  `json:"adherence"`
}

// Create stores a medicine. Time entries are kept as given; ones that do not
// parse are ignored when the schedule is expanded.
func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (models.Medicine, error) {
	name, dose := strings.TrimSpace(in.Name), strings.TrimSpace(in.Dose)
	start, err := time.Parse(DateLayout, strings.TrimSpace(in.StartDate))
	if name == "" || dose == "" || err != nil {
		return models.Medicine{}, ErrInvalidInput
	}

	var end *time.Time
	if v := strings.TrimSpace(in.EndDate); v != "" {
		e, err := time.Parse(DateLayout, v)
		if err != nil || e.Before(start) {
			return models.Medicine{}, fmt.Errorf("%w: end_date must be YYYY-MM-DD on or after start_date", ErrInvalidInput)
		}
		end = &e
	}

	times := make([]string, 0, len(in.Times))
	for _, t := range in.Times {
		times = append(times, strings.TrimSpace(t))
	}

	m := models.Medicine{
		UserID:    userID,
		Name:      name,
		Dose:      dose,
		Times:     schedule.EncodeTimes(times),
		StartDate: &start,
		EndDate:   end,
		CreatedAt: s.clock.Now(),
	}
	if err := s.medicines.Create(ctx, &m); err != nil {
		return models.Medicine{}, err
	}

	log.Info().Int64("user_id", userID).Int64("medicine_id", m.ID).Msg("medicine added")
	return m, nil
}

// List returns the user's medicines with their adherence. A failed adherence
// lookup shows as 0.
func (s *Service) List(ctx context.Context, userID int64) ([]Summary, error) {
	meds, err := s.medicines.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(meds))
	for _, m := range meds {
		out = append(out, Summary{
			Medicine:  m,
			Times:     schedule.DecodeTimes(m.Times),
			Adherence: s.adherenceOf(ctx, m),
		})
	}
	return out, nil
}

// Owned loads a medicine and checks that userID owns it.
func (s *Service) Owned(ctx context.Context, userID, id int64) (models.Medicine, error) {
	m, err := s.medicines.Get(ctx, id)
	if err != nil {
		return models.Medicine{}, err
	}
	if m.UserID != userID {
		return models.Medicine{}, models.ErrForbidden
	}
	return m, nil
}

func (s *Service) Adherence(ctx context.Context, userID, id int64) (float64, error) {
	m, err := s.Owned(ctx, userID, id)
	if err != nil {
		return 0, err
	}
	return s.adherenceOf(ctx, m), nil
}

// LogDose records a dose and returns the updated adherence. scheduled uses
// DatetimeLayout; an empty or malformed value means now. taken defaults to
// true.
func (s *Service) LogDose(ctx context.Context, userID, id int64, scheduled string, taken *bool) (float64, error) {
	m, err := s.Owned(ctx, userID, id)
	if err != nil {
		return 0, err
	}

	now := s.clock.Now()
	at, err := time.Parse(DatetimeLayout, strings.TrimSpace(scheduled))
	if err != nil {
		at = now
	}
	l := models.DoseLog{MedicineID: m.ID, ScheduledDatetime: at, Taken: true, LoggedAt: now}
	if taken != nil {
		l.Taken = *taken
	}
	if err := s.doseLogs.Create(ctx, &l); err != nil {
		return 0, err
	}

	return s.adherenceOf(ctx, m), nil
}

func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	if err := s.medicines.Delete(ctx, userID, id); err != nil {
		return err
	}
	log.Info().Int64("user_id", userID).Int64("medicine_id", id).Msg("medicine deleted")
	return nil
}

func (s *Service) adherenceOf(ctx context.Context, m models.Medicine) float64 {
	pct, err := s.adherence.ForMedicine(ctx, m)
	if err != nil {
		log.Error().Err(err).Int64("medicine_id", m.ID).Msg("adherence")
		return 0
	}
	return pct
}
