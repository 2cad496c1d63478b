package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/cellar-market/wine-marketplace/internal/auth"
	"github.com/cellar-market/wine-marketplace/internal/config"
	"github.com/cellar-market/wine-marketplace/internal/domain"
	"github.com/cellar-market/wine-marketplace/internal/events"
	"github.com/cellar-market/wine-marketplace/internal/repository"
	apperrors "github.com/cellar-market/wine-marketplace/pkg/util"
)

const minPasswordLength = 8

var errInvalidCredentials = apperrors.NewUnauthorized("Invalid email or password")

// LoginThrottle limits repeated login attempts.
type LoginThrottle interface {
	Allow(ctx context.Context, ip, email string) (bool, int64, error)
	Reset(ctx context.Context, ip, email string) error
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	User        *domain.User
	AccessToken string
	Token       domain.Token
}

// AuthService coordinates login, logout and password flows.
type AuthService struct {
	users      repository.UserRepository
	resets     repository.PasswordResetRepository
	revoked    auth.RevocationList
	throttle   LoginThrottle
	dispatcher events.Dispatcher
	logger     *zap.Logger
	tokenMgr   *auth.TokenManager
	bcryptCost int
	resetTTL   time.Duration
	now        func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service. Revocations,
// Throttle and Dispatcher are optional.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	PasswordResetRepo repository.PasswordResetRepository
	Revocations       auth.RevocationList
	Throttle          LoginThrottle
	Dispatcher        events.Dispatcher
	Logger            *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		resets:     deps.PasswordResetRepo,
		revoked:    deps.Revocations,
		throttle:   deps.Throttle,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
		now:        time.Now,
	}
}

// Login authenticates any marketplace account. Role checks belong to the caller:
// the storefront and the admin dashboard share this endpoint.
func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if s.throttle != nil {
		ok, _, err := s.throttle.Allow(ctx, ip, email)
		if err != nil {
			s.logger.Warn("login throttle unavailable", zap.Error(err))
		} else if !ok {
			s.publishLoginFailed(ctx, email, ip, "throttled")
			return nil, apperrors.NewTooManyRequests("Too many login attempts, try again later", nil)
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.publishLoginFailed(ctx, email, ip, "unknown_email")
			return nil, errInvalidCredentials
		}
		return nil, apperrors.NewInternalError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.publishLoginFailed(ctx, email, ip, "bad_password")
		return nil, errInvalidCredentials
	}
	if !user.IsActive {
		s.publishLoginFailed(ctx, email, ip, "inactive")
		return nil, apperrors.NewForbidden("Account is disabled")
	}

	signed, meta, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("failed to record last login", zap.String("user_id", user.ID), zap.Error(err))
	}
	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, ip, email); err != nil {
			s.logger.Warn("failed to reset login throttle", zap.Error(err))
		}
	}

	s.publish(ctx, events.Event{
		Type:  events.EventLoginSucceeded,
		Actor: actorFor(user, ip),
	})
	return &LoginResult{User: user, AccessToken: signed, Token: meta}, nil
}

// Logout revokes the presented token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, principal *auth.Principal, ip string) error {
	if principal == nil || principal.Claims == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if s.revoked != nil && principal.Claims.ExpiresAt != nil {
		if err := s.revoked.Revoke(ctx, principal.Claims.ID, principal.Claims.ExpiresAt.Time); err != nil {
			return apperrors.NewInternalError(err)
		}
	}
	s.publish(ctx, events.Event{
		Type:    events.EventLoggedOut,
		Actor:   actorFor(principal.User, ip),
		Payload: events.LoggedOutPayload{TokenID: principal.Claims.ID},
	})
	return nil
}

// RequestPasswordReset persists a reset token for the account behind email.
// Unknown emails yield a nil token and no error.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*domain.PasswordResetToken, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewInternalError(err)
	}

	token := &domain.PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.publish(ctx, events.Event{Type: events.EventPasswordResetReq, Actor: actorFor(user, "")})
	return token, nil
}

// ConfirmPasswordReset validates the reset token and updates the password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("reset token invalid", nil)
		}
		return apperrors.NewInternalError(err)
	}
	if !token.Usable(s.now()) {
		return apperrors.NewValidationError("reset token expired or used", nil)
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := s.setPassword(ctx, user, newPassword); err != nil {
		return err
	}
	if err := s.resets.MarkUsed(ctx, token.ID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("current password is incorrect")
	}
	if err := s.setPassword(ctx, user, newPassword); err != nil {
		return err
	}
	s.publish(ctx, events.Event{Type: events.EventPasswordChanged, Actor: actorFor(user, "")})
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) setPassword(ctx context.Context, user *domain.User, password string) error {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *AuthService) publishLoginFailed(ctx context.Context, email, ip, reason string) {
	s.publish(ctx, events.Event{
		Type:    events.EventLoginFailed,
		Actor:   events.Actor{Email: email, IP: ip},
		Payload: events.LoginFailedPayload{Reason: reason},
	})
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.NewValidationError("password too short", map[string]any{"min_length": minPasswordLength})
	}
	return nil
}

func actorFor(user *domain.User, ip string) events.Actor {
	if user == nil {
		return events.Actor{IP: ip}
	}
	id := user.ID
	return events.Actor{UserID: &id, Email: user.Email, Role: user.Role, IP: ip}
}
