package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dhia7/weary-sub000/internal/models"
	"github.com/Dhia7/weary-sub000/pkg/tokens"
)

func newTestAuthService(t *testing.T) (*AuthService, *fakePublisher) {
	t.Helper()
	pub := &fakePublisher{}
	return &AuthService{
		Repo:             newRepo(t),
		Events:           pub,
		JWTSecret:        []byte("test-jwt-secret"),
		RefreshSecret:    []byte("test-refresh-secret"),
		AccessTTL:        15 * time.Minute,
		RefreshTTL:       24 * time.Hour,
		MaxLoginAttempts: 3,
		LockDuration:     15 * time.Minute,
	}, pub
}

func register(t *testing.T, svc *AuthService, email string) *AuthResult {
	t.Helper()
	res, err := svc.Register(context.Background(), RegisterInput{
		Email: email, Password: "secret123", FirstName: "Ada", LastName: "Lovelace",
	})
	require.NoError(t, err)
	return res
}

func TestAuthService_Register(t *testing.T) {
	svc, pub := newTestAuthService(t)

	res := register(t, svc, "  Ada@Example.com ")
	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.Equal(t, models.RoleUser, res.User.Role)
	assert.True(t, res.User.IsActive)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)

	claims, err := tokens.AccessClaimsFromToken(res.AccessToken, svc.JWTSecret)
	require.NoError(t, err)
	uid, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, uid)
	assert.Equal(t, models.RoleUser, claims.Role)

	assert.Equal(t, []string{"user_registered"}, pub.types())
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)
	register(t, svc, "dup@example.com")

	_, err := svc.Register(context.Background(), RegisterInput{
		Email: "DUP@example.com", Password: "secret123", FirstName: "A", LastName: "B",
	})
	require.ErrorIs(t, err, ErrConflict)
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"missing email", RegisterInput{Password: "secret123", FirstName: "A", LastName: "B"}},
		{"bad email", RegisterInput{Email: "nope", Password: "secret123", FirstName: "A", LastName: "B"}},
		{"short password", RegisterInput{Email: "a@b.c", Password: "123", FirstName: "A", LastName: "B"}},
		{"missing names", RegisterInput{Email: "a@b.c", Password: "secret123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.in)
			require.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	svc, pub := newTestAuthService(t)
	register(t, svc, "login@example.com")

	res, err := svc.Login(context.Background(), "LOGIN@example.com", "secret123")
	require.NoError(t, err)
	assert.NotNil(t, res.User.LastLoginAt)
	assert.Contains(t, pub.types(), "user_logged_in")

	_, err = svc.Login(context.Background(), "login@example.com", "wrong-pass")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Login(context.Background(), "ghost@example.com", "secret123")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_Login_LocksAfterRepeatedFailures(t *testing.T) {
	svc, _ := newTestAuthService(t)
	c := &clock{t: time.Now()}
	svc.Now = c.now
	register(t, svc, "lock@example.com")
	ctx := context.Background()

	_, err := svc.Login(ctx, "lock@example.com", "bad")
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Login(ctx, "lock@example.com", "bad")
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Login(ctx, "lock@example.com", "bad")
	require.ErrorIs(t, err, ErrLocked)

	// correct password is still refused while locked
	_, err = svc.Login(ctx, "lock@example.com", "secret123")
	require.ErrorIs(t, err, ErrLocked)

	c.t = c.t.Add(16 * time.Minute)
	_, err = svc.Login(ctx, "lock@example.com", "secret123")
	require.NoError(t, err)

	u, err := svc.Repo.GetUserByEmail(ctx, "lock@example.com")
	require.NoError(t, err)
	assert.Zero(t, u.FailedLoginAttempts)
	assert.Nil(t, u.LockedUntil)
}

func TestAuthService_Login_InactiveForbidden(t *testing.T) {
	svc, _ := newTestAuthService(t)
	res := register(t, svc, "off@example.com")
	require.NoError(t, svc.Repo.UpdateUser(context.Background(), res.User.ID, map[string]any{"is_active": false}))

	_, err := svc.Login(context.Background(), "off@example.com", "secret123")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestAuthService_Refresh_RotatesToken(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	first := register(t, svc, "rot@example.com")

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// the old token was revoked by the rotation
	_, err = svc.Refresh(ctx, first.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = svc.Refresh(ctx, second.RefreshToken)
	require.NoError(t, err)
}

func TestAuthService_Refresh_RejectsGarbageAndAccessTokens(t *testing.T) {
	svc, _ := newTestAuthService(t)
	res := register(t, svc, "garbage@example.com")

	_, err := svc.Refresh(context.Background(), "not-a-token")
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = svc.Refresh(context.Background(), res.AccessToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = svc.Refresh(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuthService_Logout_RevokesRefresh(t *testing.T) {
	svc, _ := newTestAuthService(t)
	res := register(t, svc, "out@example.com")

	require.NoError(t, svc.Logout(context.Background(), res.RefreshToken))
	_, err := svc.Refresh(context.Background(), res.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuthService_ChangePassword(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	res := register(t, svc, "pw@example.com")

	err := svc.ChangePassword(ctx, res.User.ID, "wrong", "newsecret")
	require.ErrorIs(t, err, ErrValidation)

	require.NoError(t, svc.ChangePassword(ctx, res.User.ID, "secret123", "newsecret"))

	_, err = svc.Refresh(ctx, res.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = svc.Login(ctx, "pw@example.com", "newsecret")
	require.NoError(t, err)
}
