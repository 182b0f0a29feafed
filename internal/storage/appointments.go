package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"meditrack/internal/models"
)

type Appointments struct {
	*sqlx.DB
}

const appointmentColumns = `id, user_id, title, description, appointment_datetime, status, created_at`

// CreateIfFree inserts a unless the same user already has a non-cancelled
// appointment within window of it (inclusive). The check and the insert share
// one transaction.
func (db *Appointments) CreateIfFree(ctx context.Context, a *models.Appointment, window time.Duration) error {
	a.Datetime = dbTime(a.Datetime)
	a.CreatedAt = dbTime(a.CreatedAt)
	if a.Status == "" {
		a.Status = models.StatusScheduled
	}

	return WithTx(ctx, db.DB, func(tx *sqlx.Tx) error {
		var clashes int
		const check = `SELECT COUNT(*) FROM appointments
        WHERE user_id = ? AND status <> ? AND appointment_datetime >= ? AND appointment_datetime <= ?`
		err := tx.GetContext(ctx, &clashes, tx.Rebind(check),
			a.UserID, string(models.StatusCancelled), a.Datetime.Add(-window), a.Datetime.Add(window))
		if err != nil {
			return fmt.Errorf("check appointment conflicts: %w", err)
		}
		if clashes > 0 {
			return models.ErrAppointmentConflict
		}

		const insert = `INSERT INTO appointments (user_id, title, description, appointment_datetime, status, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
        RETURNING id`
		err = tx.QueryRowxContext(ctx, tx.Rebind(insert),
			a.UserID, a.Title, a.Description, a.Datetime, string(a.Status), a.CreatedAt,
		).Scan(&a.ID)
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		return nil
	})
}

func (db *Appointments) Get(ctx context.Context, id int64) (models.Appointment, error) {
	var a models.Appointment
	err := db.GetContext(ctx, &a, db.Rebind(`SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`), id)
	return a, notFound(err)
}

func (db *Appointments) ListByUser(ctx context.Context, userID int64) ([]models.Appointment, error) {
	appts := []models.Appointment{}
	err := db.SelectContext(ctx, &appts, db.Rebind(`SELECT `+appointmentColumns+` FROM appointments
    WHERE user_id = ? ORDER BY appointment_datetime, id`), userID)
	return appts, err
}

// Delete hard-deletes an appointment owned by userID.
func (db *Appointments) Delete(ctx context.Context, userID, id int64) error {
	return WithTx(ctx, db.DB, func(tx *sqlx.Tx) error {
		var owner int64
		if err := tx.GetContext(ctx, &owner, tx.Rebind(`SELECT user_id FROM appointments WHERE id = ?`), id); err != nil {
			return notFound(err)
		}
		if owner != userID {
			return models.ErrForbidden
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM appointments WHERE id = ?`), id); err != nil {
			return fmt.Errorf("delete appointment %d: %w", id, err)
		}
		return nil
	})
}
