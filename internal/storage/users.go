package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"meditrack/internal/models"
)

type Users struct {
	*sqlx.DB
}

const userColumns = `id, email, password_hash, name, telegram_chat_id, created_at`

// Create inserts u and fills its ID. A taken email yields ErrAlreadyExists.
func (db *Users) Create(ctx context.Context, u *models.User) error {
	u.CreatedAt = dbTime(u.CreatedAt)
	const query = `INSERT INTO users (email, password_hash, name, created_at)
    VALUES (?, ?, ?, ?)
    ON CONFLICT (email) DO NOTHING
    RETURNING id`
	err := db.QueryRowxContext(ctx, db.Rebind(query), u.Email, u.PasswordHash, u.Name, u.CreatedAt).Scan(&u.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (db *Users) Get(ctx context.Context, id int64) (models.User, error) {
	var u models.User
	err := db.GetContext(ctx, &u, db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	return u, notFound(err)
}

func (db *Users) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := db.GetContext(ctx, &u, db.Rebind(`SELECT `+userColumns+` FROM users WHERE email = ?`), email)
	return u, notFound(err)
}

func (db *Users) GetByTelegramChat(ctx context.Context, chatID int64) (models.User, error) {
	var u models.User
	err := db.GetContext(ctx, &u, db.Rebind(`SELECT `+userColumns+` FROM users WHERE telegram_chat_id = ?`), chatID)
	return u, notFound(err)
}

// SetTelegramChat links (or with nil, unlinks) a Telegram chat. A chat linked
// to another account yields ErrAlreadyExists.
func (db *Users) SetTelegramChat(ctx context.Context, userID int64, chatID *int64) error {
	return WithTx(ctx, db.DB, func(tx *sqlx.Tx) error {
		if chatID != nil {
			var owner int64
			err := tx.GetContext(ctx, &owner, tx.Rebind(`SELECT id FROM users WHERE telegram_chat_id = ?`), *chatID)
			if err == nil && owner != userID {
				return models.ErrAlreadyExists
			}
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return err
			}
		}

		res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE users SET telegram_chat_id = ? WHERE id = ?`), chatID, userID)
		if err != nil {
			return fmt.Errorf("set telegram chat: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return models.ErrNotFound
		}
		return nil
	})
}
