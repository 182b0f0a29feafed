// Package appointments books visits and keeps a user's calendar free of
// overlaps.
package appointments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"meditrack/internal/logger"
	"meditrack/internal/models"
)

var log = logger.New("appointments")

// ConflictWindow is how close two active appointments of one user may be.
// Bookings exactly this far apart still clash.
const ConflictWindow = 29 * time.Minute

// DatetimeLayout is the accepted booking format.
const DatetimeLayout = "2006-01-02T15:04"

var ErrInvalidInput = errors.New("title and datetime (YYYY-MM-DDTHH:MM) are required")

type Store interface {
	CreateIfFree(ctx context.Context, a *models.Appointment, window time.Duration) error
	ListByUser(ctx context.Context, userID int64) ([]models.Appointment, error)
	Delete(ctx context.Context, userID, id int64) error
}

type Service struct {
	store Store
	clock clockwork.Clock
}

func New(store Store, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{store: store, clock: clock}
}

// Book parses datetime and stores the appointment unless it clashes with
// another active one.
func (s *Service) Book(ctx context.Context, userID int64, title, description, datetime string) (models.Appointment, error) {
	title = strings.TrimSpace(title)
	at, err := time.Parse(DatetimeLayout, strings.TrimSpace(datetime))
	if title == "" || err != nil {
		return models.Appointment{}, ErrInvalidInput
	}

	a := models.Appointment{
		UserID:      userID,
		Title:       title,
		Description: description,
		Datetime:    at,
		Status:      models.StatusScheduled,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.store.CreateIfFree(ctx, &a, ConflictWindow); err != nil {
		return models.Appointment{}, err
	}

	log.Info().Int64("user_id", userID).Int64("appointment_id", a.ID).Msg("appointment booked")
	return a, nil
}

func (s *Service) List(ctx context.Context, userID int64) ([]models.Appointment, error) {
	return s.store.ListByUser(ctx, userID)
}

// Split returns upcoming appointments soonest first and past ones most recent
// first.
func (s *Service) Split(ctx context.Context, userID int64) (upcoming, past []models.Appointment, err error) {
	all, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	now := s.clock.Now()
	upcoming = []models.Appointment{}
	past = []models.Appointment{}
	for _, a := range all {
		if a.Datetime.Before(now) {
			past = append([]models.Appointment{a}, past...)
		} else {
			upcoming = append(upcoming, a)
		}
	}
	return upcoming, past, nil
}

func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	return s.store.Delete(ctx, userID, id)
}
