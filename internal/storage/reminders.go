package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"meditrack/internal/models"
)

type Reminders struct {
	*sqlx.DB
}

const reminderColumns = `id, medicine_id, send_at, sent, attempts`

// InsertIfAbsent queues a reminder unless one already exists for the same
// medicine and instant. It reports whether a row was inserted.
func (db *Reminders) InsertIfAbsent(ctx context.Context, medicineID int64, sendAt time.Time) (bool, error) {
	const query = `INSERT INTO reminder_queue (medicine_id, send_at, sent, attempts)
    VALUES (?, ?, ?, 0)
    ON CONFLICT (medicine_id, send_at) DO NOTHING`
	res, err := db.ExecContext(ctx, db.Rebind(query), medicineID, dbTime(sendAt), false)
	if err != nil {
		return false, fmt.Errorf("queue reminder for medicine %d: %w", medicineID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListDue returns unsent entries due at now that are still under the attempt
// ceiling, oldest first.
func (db *Reminders) ListDue(ctx context.Context, now time.Time, maxAttempts int) ([]models.ReminderQueueEntry, error) {
	entries := []models.ReminderQueueEntry{}
	const query = `SELECT ` + reminderColumns + ` FROM reminder_queue
    WHERE send_at <= ? AND sent = ? AND attempts < ?
    ORDER BY send_at, id`
	err := db.SelectContext(ctx, &entries, db.Rebind(query), dbTime(now), false, maxAttempts)
	return entries, err
}

// Claim spends one attempt on an entry. The update only matches while the
// entry is still due, unsent and under the ceiling, so two dispatchers can
// never both claim the last attempt. It reports whether the claim succeeded.
func (db *Reminders) Claim(ctx context.Context, id int64, now time.Time, maxAttempts int) (bool, error) {
	const query = `UPDATE reminder_queue SET attempts = attempts + 1
    WHERE id = ? AND sent = ? AND attempts < ? AND send_at <= ?`
	res, err := db.ExecContext(ctx, db.Rebind(query), id, false, maxAttempts, dbTime(now))
	if err != nil {
		return false, fmt.Errorf("claim reminder %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (db *Reminders) MarkSent(ctx context.Context, id int64) error {
	_, err := db.ExecContext(ctx, db.Rebind(`UPDATE reminder_queue SET sent = ? WHERE id = ?`), true, id)
	if err != nil {
		return fmt.Errorf("mark reminder %d sent: %w", id, err)
	}
	return nil
}

func (db *Reminders) Get(ctx context.Context, id int64) (models.ReminderQueueEntry, error) {
	var e models.ReminderQueueEntry
	err := db.GetContext(ctx, &e, db.Rebind(`SELECT `+reminderColumns+` FROM reminder_queue WHERE id = ?`), id)
	return e, notFound(err)
}

func (db *Reminders) ListByMedicine(ctx context.Context, medicineID int64) ([]models.ReminderQueueEntry, error) {
	entries := []models.ReminderQueueEntry{}
	err := db.SelectContext(ctx, &entries,
		db.Rebind(`SELECT `+reminderColumns+` FROM reminder_queue WHERE medicine_id = ? ORDER BY send_at, id`), medicineID)
	return entries, err
}
