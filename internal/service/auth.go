package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Dhia7/weary-sub000/internal/events"
	"github.com/Dhia7/weary-sub000/internal/models"
	"github.com/Dhia7/weary-sub000/internal/repo"
	pkg_hash "github.com/Dhia7/weary-sub000/pkg/hash"
	jwthelp "github.com/Dhia7/weary-sub000/pkg/jwt"
	"github.com/Dhia7/weary-sub000/pkg/logging"
	"github.com/Dhia7/weary-sub000/pkg/tokens"
)

type AuthService struct {
	Repo             *repo.GormRepo
	Events           events.Publisher
	JWTSecret        []byte
	RefreshSecret    []byte
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	MaxLoginAttempts int
	LockDuration     time.Duration
	Now              func() time.Time
}

type AuthResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
		return fail(ErrValidation, "a valid email is required")
	}
	return nil
}

func validatePassword(pw string) error {
	if len(pw) < pkg_hash.MinPasswordLength {
		return fail(ErrValidation, "password must be at least %d characters", pkg_hash.MinPasswordLength)
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	email := NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if email == "" || in.Password == "" || in.FirstName == "" || in.LastName == "" {
		return nil, fail(ErrValidation, "email, password, firstName and lastName are required")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	taken, err := s.Repo.EmailTaken(ctx, email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		l.Warn("register_error", "status", 400, "reason", "email already registered")
		return nil, fail(ErrConflict, "user with this email already exists")
	}

	pwHash, err := pkg_hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: pwHash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        strings.TrimSpace(in.Phone),
		Role:         models.RoleUser,
		IsActive:     true,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, fail(ErrConflict, "user with this email already exists")
		}
		return nil, err
	}

	res, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.TopicUser, user.ID, "user_registered", map[string]any{"email": user.Email})
	l.Info("register_successful", "user_id", user.ID)
	return res, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	l := logging.FromContext(ctx).With("svc", "auth.login", "email", email)

	if email == "" || password == "" {
		return nil, fail(ErrValidation, "email and password are required")
	}

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown email")
			return nil, fail(ErrUnauthorized, "invalid email or password")
		}
		return nil, err
	}

	now := s.now()
	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		l.Warn("login_failed", "status", 423, "reason", "account locked", "until", user.LockedUntil)
		return nil, fail(ErrLocked, "account is temporarily locked due to too many failed login attempts")
	}

	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		return nil, s.loginFailure(ctx, user, now)
	}

	if !user.IsActive {
		l.Warn("login_failed", "status", 403, "reason", "account deactivated")
		return nil, fail(ErrForbidden, "account is deactivated")
	}

	if err := s.Repo.RecordLoginSuccess(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now

	res, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.TopicUser, user.ID, "user_logged_in", nil)
	l.Info("login_successful", "user_id", user.ID)
	return res, nil
}

// loginFailure counts a bad password and locks the account at the limit.
func (s *AuthService) loginFailure(ctx context.Context, user *models.User, now time.Time) error {
	l := logging.FromContext(ctx).With("svc", "auth.login", "user_id", user.ID)

	attempts := user.FailedLoginAttempts + 1
	if user.LockedUntil != nil {
		// the previous lock has expired; start a fresh count
		attempts = 1
	}

	var lockedUntil *time.Time
	if s.MaxLoginAttempts > 0 && attempts >= s.MaxLoginAttempts {
		until := now.Add(s.LockDuration)
		lockedUntil = &until
	}
	if err := s.Repo.RecordLoginFailure(ctx, user.ID, attempts, lockedUntil); err != nil {
		return err
	}

	if lockedUntil != nil {
		l.Warn("login_failed", "status", 423, "reason", "account locked", "attempts", attempts)
		return fail(ErrLocked, "account is temporarily locked due to too many failed login attempts")
	}
	l.Warn("login_failed", "status", 401, "reason", "wrong password", "attempts", attempts)
	return fail(ErrUnauthorized, "invalid email or password")
}

func (s *AuthService) signPair(user *models.User) (*AuthResult, string, error) {
	now := s.now()
	accessExp := now.Add(s.AccessTTL)
	access, err := tokens.SignAccess(user.ID, user.Role, accessExp, s.JWTSecret)
	if err != nil {
		return nil, "", err
	}

	jti := jwthelp.NewJTI()
	refreshExp := now.Add(s.RefreshTTL)
	refresh, err := tokens.SignRefresh(user.ID, jti, refreshExp, s.RefreshSecret)
	if err != nil {
		return nil, "", err
	}

	return &AuthResult{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, jti, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*AuthResult, error) {
	res, jti, err := s.signPair(user)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.AddRefreshToken(ctx, user.ID, jti, res.RefreshToken, res.RefreshExp); err != nil {
		return nil, err
	}
	return res, nil
}

// Refresh trades a valid refresh token for a new pair and revokes the old one.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if refreshToken == "" {
		return nil, fail(ErrInvalidRefreshToken, "refresh token is required")
	}
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", "bad token", "error", err)
		return nil, fail(ErrInvalidRefreshToken, "invalid or expired refresh token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, fail(ErrInvalidRefreshToken, "invalid or expired refresh token")
	}

	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ErrInvalidRefreshToken, "invalid or expired refresh token")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, fail(ErrForbidden, "account is deactivated")
	}

	res, jti, err := s.signPair(user)
	if err != nil {
		return nil, err
	}

	next := models.RefreshToken{
		Token:     jwthelp.Sha256Hex(res.RefreshToken),
		JTI:       jti,
		UserID:    user.ID,
		ExpiresAt: res.RefreshExp.Unix(),
	}
	if err := s.Repo.RotateRefreshToken(ctx, refreshToken, next); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, repo.ErrTokenExpiredOrRevoked) {
			l.Warn("refresh_failed", "status", 401, "reason", "token unknown, expired or revoked", "user_id", user.ID)
			return nil, fail(ErrInvalidRefreshToken, "invalid or expired refresh token")
		}
		return nil, err
	}

	l.Info("refresh_successful", "user_id", user.ID)
	return res, nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.RevokeRefreshToken(ctx, refreshToken)
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	l := logging.FromContext(ctx).With("svc", "auth.change_password", "user_id", userID)

	if current == "" || next == "" {
		return fail(ErrValidation, "currentPassword and newPassword are required")
	}
	if err := validatePassword(next); err != nil {
		return err
	}

	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return notFound(err, "user")
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, current) {
		l.Warn("change_password_failed", "status", 400, "reason", "wrong current password")
		return fail(ErrValidation, "current password is incorrect")
	}

	pwHash, err := pkg_hash.HashPassword(next)
	if err != nil {
		return err
	}

	return s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		if err := tx.UpdateUser(ctx, userID, map[string]any{"password_hash": pwHash}); err != nil {
			return err
		}
		return tx.RevokeAllRefreshTokens(ctx, userID)
	})
}
