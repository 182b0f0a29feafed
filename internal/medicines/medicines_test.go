package medicines

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meditrack/internal/adherence"
	"meditrack/internal/models"
	"meditrack/internal/storage"
)

type fixture struct {
	svc   *Service
	db    *storage.DB
	clock *clockwork.FakeClock
	ann   int64
	bob   int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "medicines.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Migrate()
	require.NoError(t, err)

	clock := clockwork.NewFakeClockAt(time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()
	ann := models.User{Email: "ann@example.com", PasswordHash: "x", CreatedAt: clock.Now()}
	bob := models.User{Email: "bob@example.com", PasswordHash: "x", CreatedAt: clock.Now()}
	require.NoError(t, db.Users.Create(ctx, &ann))
	require.NoError(t, db.Users.Create(ctx, &bob))

	calc := adherence.New(db.Medicines, db.DoseLogs, clock)
	return &fixture{
		svc:   New(db.Medicines, db.DoseLogs, calc, clock),
		db:    db,
		clock: clock,
		ann:   ann.ID,
		bob:   bob.ID,
	}
}

func TestCreateListAndLog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.svc.Create(ctx, f.ann, CreateInput{
		Name: "Metformin", Dose: "500mg", Times: []string{"09:00", " 21:00"}, StartDate: "2025-03-01",
	})
	require.NoError(t, err)
	assert.Equal(t, `["09:00","21:00"]`, m.Times)
	assert.Nil(t, m.EndDate)

	for _, at := range []string{"2025-03-01T09:00:00", "2025-03-01T21:00:00"} {
		_, err := f.svc.LogDose(ctx, f.ann, m.ID, at, nil)
		require.NoError(t, err)
	}
	pct, err := f.svc.LogDose(ctx, f.ann, m.ID, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 60.0, pct)

	notTaken := false
	pct, err = f.svc.LogDose(ctx, f.ann, m.ID, "2025-03-02T09:00:00", &notTaken)
	require.NoError(t, err)
	assert.Equal(t, 60.0, pct)

	list, err := f.svc.List(ctx, f.ann)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"09:00", "21:00"}, list[0].Times)
	assert.Equal(t, 60.0, list[0].Adherence)

	logs, err := f.db.DoseLogs.ListByMedicine(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, logs, 4)
	var fallback models.DoseLog
	for _, l := range logs {
		if l.ScheduledDatetime.Equal(f.clock.Now()) {
			fallback = l
		}
	}
	assert.True(t, fallback.Taken, "empty scheduled_datetime falls back to now")
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, in := range []CreateInput{
		{Dose: "1", StartDate: "2025-03-01"},
		{Name: "A", StartDate: "2025-03-01"},
		{Name: "A", Dose: "1"},
		{Name: "A", Dose: "1", StartDate: "03/01/2025"},
		{Name: "A", Dose: "1", StartDate: "2025-03-01", EndDate: "2025-02-01"},
		{Name: "A", Dose: "1", StartDate: "2025-03-01", EndDate: "soon"},
	} {
		_, err := f.svc.Create(ctx, f.ann, in)
		assert.ErrorIs(t, err, ErrInvalidInput, in)
	}
}

func TestOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.svc.Create(ctx, f.ann, CreateInput{Name: "A", Dose: "1", Times: []string{"08:00"}, StartDate: "2025-03-01", EndDate: "2025-03-10"})
	require.NoError(t, err)

	_, err = f.svc.LogDose(ctx, f.bob, m.ID, "", nil)
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = f.svc.Adherence(ctx, f.bob, m.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.ErrorIs(t, f.svc.Delete(ctx, f.bob, m.ID), models.ErrForbidden)

	_, err = f.svc.Adherence(ctx, f.ann, 999)
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, f.svc.Delete(ctx, f.ann, m.ID))
	list, err := f.svc.List(ctx, f.ann)
	require.NoError(t, err)
	assert.Empty(t, list)
}
