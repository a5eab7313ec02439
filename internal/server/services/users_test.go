package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/common"
	"github.com/dmitrijs2005/leasekeeper/internal/logging"
	"github.com/dmitrijs2005/leasekeeper/internal/server/config"
	"github.com/dmitrijs2005/leasekeeper/internal/server/models"
	"github.com/dmitrijs2005/leasekeeper/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testEmail    = "owner@example.com"
	testPassword = "correct-horse"
)

type mailerSpy struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *mailerSpy) SendOTP(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codes == nil {
		m.codes = map[string]string{}
	}
	m.codes[email] = code
	return nil
}

func (m *mailerSpy) code(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

func newTestService(t *testing.T, mutate func(*config.Config)) (*UserService, *mailerSpy) {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	if mutate != nil {
		mutate(cfg)
	}

	mailer := &mailerSpy{}
	s := NewUserService(repomanager.NewInMemoryRepositoryManager(), cfg, mailer, logging.Discard())
	s.hashCost = bcrypt.MinCost

	_, err := s.Seed(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	return s, mailer
}

func TestLogin(t *testing.T) {
	s, _ := newTestService(t, nil)
	ctx := context.Background()

	res, err := s.Login(ctx, "Owner@Example.com", testPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Tokens.AccessToken)
	assert.Len(t, res.Tokens.RefreshToken, 64)
	assert.True(t, res.User.Subscription.IsActive)

	uid, err := s.VerifyAccessToken(res.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, uid)

	_, err = s.Login(ctx, testEmail, "wrong-password")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = s.Login(ctx, "nobody@example.com", testPassword)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestRegister_Validation(t *testing.T) {
	s, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := s.Register(ctx, "", "x", testPassword, models.Subscription{})
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = s.Register(ctx, "new@example.com", "x", "short", models.Subscription{})
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = s.Register(ctx, testEmail, "x", testPassword, models.Subscription{})
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestRefreshToken_Rotates(t *testing.T) {
	s, _ := newTestService(t, nil)
	ctx := context.Background()

	res, err := s.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	pair, err := s.RefreshToken(ctx, res.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEqual(t, res.Tokens.RefreshToken, pair.RefreshToken)

	_, err = s.RefreshToken(ctx, res.Tokens.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken, "used refresh token must be revoked")

	_, err = s.RefreshToken(ctx, pair.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshToken_WithoutRotation(t *testing.T) {
	s, _ := newTestService(t, func(c *config.Config) { c.RotateRefreshTokens = false })
	ctx := context.Background()

	res, err := s.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		pair, err := s.RefreshToken(ctx, res.Tokens.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.Empty(t, pair.RefreshToken)
	}
}

func TestRefreshToken_Expired(t *testing.T) {
	s, _ := newTestService(t, nil)
	ctx := context.Background()

	res, err := s.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, err = s.RefreshToken(ctx, res.Tokens.RefreshToken)
	assert.ErrorIs(t, err, common.ErrRefreshTokenExpired)

	_, err = s.RefreshToken(ctx, res.Tokens.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestPasswordReset_Flow(t *testing.T) {
	s, mailer := newTestService(t, nil)
	ctx := context.Background()

	login, err := s.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	require.NoError(t, s.RequestOTP(ctx, testEmail))
	code := mailer.code(testEmail)
	require.Len(t, code, 6)

	assert.ErrorIs(t, s.ResetPassword(ctx, testEmail, code, "new-password-1"), common.ErrInvalidOTP, "code must be verified first")
	assert.ErrorIs(t, s.VerifyOTP(ctx, testEmail, "not-it"), common.ErrInvalidOTP)
	require.NoError(t, s.VerifyOTP(ctx, testEmail, code))

	assert.ErrorIs(t, s.ResetPassword(ctx, testEmail, code, "short"), common.ErrValidation)
	require.NoError(t, s.ResetPassword(ctx, testEmail, code, "new-password-1"))

	_, err = s.Login(ctx, testEmail, testPassword)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = s.Login(ctx, testEmail, "new-password-1")
	assert.NoError(t, err)

	_, err = s.RefreshToken(ctx, login.Tokens.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken, "reset revokes existing sessions")

	assert.ErrorIs(t, s.ResetPassword(ctx, testEmail, code, "new-password-2"), common.ErrInvalidOTP, "code is single use")
}

func TestRequestOTP_UnknownEmailIsSilent(t *testing.T) {
	s, mailer := newTestService(t, nil)

	require.NoError(t, s.RequestOTP(context.Background(), "nobody@example.com"))
	assert.Empty(t, mailer.code("nobody@example.com"))
}

func TestVerifyOTP_Expired(t *testing.T) {
	s, mailer := newTestService(t, nil)
	ctx := context.Background()

	require.NoError(t, s.RequestOTP(ctx, testEmail))
	s.now = func() time.Time { return time.Now().Add(time.Hour) }

	assert.ErrorIs(t, s.VerifyOTP(ctx, testEmail, mailer.code(testEmail)), common.ErrInvalidOTP)
}

func TestMeAndProperties(t *testing.T) {
	s, _ := newTestService(t, nil)
	ctx := context.Background()

	res, err := s.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	me, err := s.Me(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, testEmail, me.Email)

	props, err := s.Properties(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Len(t, props, 3)

	_, err = s.Me(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
