package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"meditrack/internal/models"
)

type DoseLogs struct {
	*sqlx.DB
}

func (db *DoseLogs) Create(ctx context.Context, l *models.DoseLog) error {
	l.ScheduledDatetime = dbTime(l.ScheduledDatetime)
	l.LoggedAt = dbTime(l.LoggedAt)

	const query = `INSERT INTO dose_logs (medicine_id, scheduled_datetime, taken, logged_at)
    VALUES (?, ?, ?, ?)
    RETURNING id`
	err := db.QueryRowxContext(ctx, db.Rebind(query),
		l.MedicineID, l.ScheduledDatetime, l.Taken, l.LoggedAt,
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("create dose log: %w", err)
	}
	return nil
}

// CountTaken counts every taken log of the medicine, whatever its date.
func (db *DoseLogs) CountTaken(ctx context.Context, medicineID int64) (int, error) {
	var n int
	err := db.GetContext(ctx, &n,
		db.Rebind(`SELECT COUNT(*) FROM dose_logs WHERE medicine_id = ? AND taken = ?`), medicineID, true)
	return n, err
}

func (db *DoseLogs) ListByMedicine(ctx context.Context, medicineID int64) ([]models.DoseLog, error) {
	logs := []models.DoseLog{}
	err := db.SelectContext(ctx, &logs, db.Rebind(`SELECT id, medicine_id, scheduled_datetime, taken, logged_at
    FROM dose_logs WHERE medicine_id = ? ORDER BY scheduled_datetime, id`), medicineID)
	return logs, err
}
