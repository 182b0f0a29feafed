package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"meditrack/internal/models"
)

type Medicines struct {
	*sqlx.DB
}

const medicineColumns = `id, user_id, name, dose, times, start_date, end_date, created_at`

func (db *Medicines) Create(ctx context.Context, m *models.Medicine) error {
	m.StartDate = dbTimePtr(m.StartDate)
	m.EndDate = dbTimePtr(m.EndDate)
	m.CreatedAt = dbTime(m.CreatedAt)
	if m.Times == "" {
		m.Times = "[]"
	}

	const query = `INSERT INTO medicines (user_id, name, dose, times, start_date, end_date, created_at)
    VALUES (?, ?, ?, ?, ?, ?, ?)
    RETURNING id`
	err := db.QueryRowxContext(ctx, db.Rebind(query),
		m.UserID, m.Name, m.Dose, m.Times, m.StartDate, m.EndDate, m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("create medicine: %w", err)
	}
	return nil
}

func (db *Medicines) Get(ctx context.Context, id int64) (models.Medicine, error) {
	var m models.Medicine
	err := db.GetContext(ctx, &m, db.Rebind(`SELECT `+medicineColumns+` FROM medicines WHERE id = ?`), id)
	return m, notFound(err)
}

func (db *Medicines) ListByUser(ctx context.Context, userID int64) ([]models.Medicine, error) {
	meds := []models.Medicine{}
	err := db.SelectContext(ctx, &meds,
		db.Rebind(`SELECT `+medicineColumns+` FROM medicines WHERE user_id = ? ORDER BY id`), userID)
	return meds, err
}

func (db *Medicines) ListAll(ctx context.Context) ([]models.Medicine, error) {
	meds := []models.Medicine{}
	err := db.SelectContext(ctx, &meds, `SELECT `+medicineColumns+` FROM medicines ORDER BY id`)
	return meds, err
}

// Delete removes a medicine owned by userID together with its dose logs and
// queued reminders.
func (db *Medicines) Delete(ctx context.Context, userID, id int64) error {
	return WithTx(ctx, db.DB, func(tx *sqlx.Tx) error {
		var owner int64
		if err := tx.GetContext(ctx, &owner, tx.Rebind(`SELECT user_id FROM medicines WHERE id = ?`), id); err != nil {
			return notFound(err)
		}
		if owner != userID {
			return models.ErrForbidden
		}

		for _, query := range []string{
			`DELETE FROM dose_logs WHERE medicine_id = ?`,
			`DELETE FROM reminder_queue WHERE medicine_id = ?`,
			`DELETE FROM medicines WHERE id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, tx.Rebind(query), id); err != nil {
				return fmt.Errorf("delete medicine %d: %w", id, err)
			}
		}
		return nil
	})
}
