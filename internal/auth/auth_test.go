package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meditrack/internal/models"
)

type memUsers struct {
	byEmail map[string]models.User
	nextID  int64
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return models.ErrAlreadyExists
	}
	m.nextID++
	u.ID = m.nextID
	m.byEmail[u.Email] = *u
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (models.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	return u, nil
}

func newService(clock clockwork.Clock) *Service {
	return NewService(&memUsers{byEmail: map[string]models.User{}}, "test-secret", time.Hour, clock)
}

func TestRegisterAndLogin(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC))
	svc := newService(clock)
	ctx := context.Background()

	u, err := svc.Register(ctx, "  Ann@Example.com ", "hunter22", "Ann")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.NotEqual(t, "hunter22", u.PasswordHash)

	_, err = svc.Register(ctx, "ann@example.com", "another1", "Ann again")
	assert.ErrorIs(t, err, models.ErrAlreadyExists)

	token, got, err := svc.Login(ctx, "ANN@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	id, err := svc.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	clock.Advance(2 * time.Hour)
	_, err = svc.Authenticate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogin_WrongCredentials(t *testing.T) {
	svc := newService(nil)
	ctx := context.Background()
	_, err := svc.Register(ctx, "ann@example.com", "hunter22", "Ann")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "ann@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegister_Validation(t *testing.T) {
	svc := newService(nil)
	for _, tc := range []struct{ email, password string }{
		{"", "hunter22"},
		{"not-an-email", "hunter22"},
		{"ann@example.com", "short"},
	} {
		_, err := svc.Register(context.Background(), tc.email, tc.password, "x")
		assert.ErrorIs(t, err, ErrInvalidInput, tc)
	}
}

func TestParseToken_Rejects(t *testing.T) {
	now := time.Now()
	secret := []byte("s3cret")

	good, err := GenerateToken(7, secret, time.Minute, now)
	require.NoError(t, err)
	id, err := ParseToken(good, secret, now)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	_, err = ParseToken(good, []byte("other"), now)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken("garbage", secret, now)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 7}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseToken(none, secret, now)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noUser, err := GenerateToken(0, secret, time.Minute, now)
	require.NoError(t, err)
	_, err = ParseToken(noUser, secret, now)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
	assert.False(t, CheckPassword("not-a-hash", "hunter22"))
}
