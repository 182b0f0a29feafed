package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
	_ "modernc.org/sqlite"

	"meditrack/internal/logger"
	"meditrack/internal/models"
)

//go:embed migrations
var embeddedMigrations embed.FS

var log = logger.New("storage")

const (
	dialectSQLite   = "sqlite3"
	dialectPostgres = "postgres"
)

type DB struct {
	*sqlx.DB
	dialect      string
	Users        *Users
	Medicines    *Medicines
	DoseLogs     *DoseLogs
	Reminders    *Reminders
	Appointments *Appointments
}

// New opens the database named by dsn. postgres:// and postgresql:// URLs use
// pgx, anything else is treated as a SQLite path or file: URI.
func New(dsn string) (*DB, error) {
	driver, dialect := "sqlite", dialectSQLite
	if isPostgres(dsn) {
		driver, dialect = "pgx", dialectPostgres
	} else {
		dsn = sqliteDSN(dsn)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if dialect == dialectPostgres {
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(5)
		db.SetConnMaxIdleTime(10 * time.Minute)
	}

	log.Info().Str("driver", driver).Msg("database opened")
	return wrap(db, dialect), nil
}

func wrap(db *sqlx.DB, dialect string) *DB {
	return &DB{
		DB:           db,
		dialect:      dialect,
		Users:        &Users{db},
		Medicines:    &Medicines{db},
		DoseLogs:     &DoseLogs{db},
		Reminders:    &Reminders{db},
		Appointments: &Appointments{db},
	}
}

// Migrate applies the embedded migrations for the current dialect and returns
// how many ran.
func (db *DB) Migrate() (int, error) {
	root := "migrations/sqlite"
	if db.dialect == dialectPostgres {
		root = "migrations/postgres"
	}
	migrations := &migrate.EmbedFileSystemMigrationSource{FileSystem: embeddedMigrations, Root: root}
	n, err := migrate.Exec(db.DB.DB, db.dialect, migrations, migrate.Up)
	if err != nil {
		return n, fmt.Errorf("migrate: %w", err)
	}
	return n, nil
}

// WithTx runs fn inside a transaction. It commits when fn returns nil and
// rolls back on error or panic; panics are rethrown.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	return fn(tx)
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// sqliteDSN enables foreign keys and a busy timeout on every connection and
// stores times in a sortable text layout.
func sqliteDSN(dsn string) string {
	dsn = strings.TrimPrefix(dsn, "sqlite://")
	var params []string
	if !strings.Contains(dsn, "foreign_keys") {
		params = append(params, "_pragma=foreign_keys(1)")
	}
	if !strings.Contains(dsn, "busy_timeout") {
		params = append(params, "_pragma=busy_timeout(5000)")
	}
	if !strings.Contains(dsn, "_time_format") {
		params = append(params, "_time_format=sqlite")
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// dbTime normalises a time for storage: UTC with second precision, so equal
// instants compare equal in every backend.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func dbTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := dbTime(*t)
	return &v
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	return err
}
