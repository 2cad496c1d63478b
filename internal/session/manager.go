package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/cellar-market/wine-marketplace/internal/domain"
	"github.com/cellar-market/wine-marketplace/internal/events"
)

// Manager is the auth context of one admin client: a browser session on the
// dashboard or the operator's CLI.
type Manager struct {
	store      Store
	auth       Authenticator
	logger     *zap.Logger
	dispatcher events.Dispatcher
	onLogout   func()
	now        func() time.Time

	// mu guards the fields below and serializes store mutations, so a write
	// and the generation check deciding it happen together.
	mu     sync.Mutex
	state  State
	record *Record
	gen    uint64

	loginMu sync.Mutex
	checks  singleflight.Group
}

// Option customizes a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithDispatcher publishes session events.
func WithDispatcher(d events.Dispatcher) Option {
	return func(m *Manager) { m.dispatcher = d }
}

// WithLogoutHook runs fn after every Logout, typically to navigate to the login page.
func WithLogoutHook(fn func()) Option {
	return func(m *Manager) { m.onLogout = fn }
}

// NewManager returns an UNVERIFIED manager.
func NewManager(store Store, authenticator Authenticator, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		auth:   authenticator,
		logger: zap.NewNop(),
		now:    time.Now,
		state:  StateUnverified,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.Named("session")
	return m
}

// Snapshot returns the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return newSnapshot(m.state, m.record)
}

// CheckAuthStatus verifies the stored record against the API. Concurrent calls
// share one verification. Failures end UNAUTHENTICATED with the store cleared.
func (m *Manager) CheckAuthStatus(ctx context.Context) Snapshot {
	_, _, _ = m.checks.Do("check", func() (any, error) {
		m.verify(ctx)
		return nil, nil
	})
	return m.Snapshot()
}

func (m *Manager) verify(ctx context.Context) {
	m.mu.Lock()
	gen := m.gen
	m.state = StateVerifying
	m.mu.Unlock()

	rec, err := m.store.Load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			m.abandon(gen)
			return
		}
		m.logger.Warn("failed to load stored session", zap.Error(err))
		m.reject(ctx, gen, "unreadable")
		return
	}
	if rec == nil {
		m.commit(gen, StateUnauthenticated, nil)
		return
	}

	profile, err := m.auth.Profile(ctx, rec.Token)
	if err != nil {
		if ctx.Err() != nil {
			m.abandon(gen)
			return
		}
		m.logger.Info("stored session failed verification", zap.Error(err))
		m.reject(ctx, gen, "verification_failed")
		return
	}
	if !profile.Role.IsAdmin() {
		m.logger.Warn("stored session belongs to a non-admin", zap.String("user_id", profile.ID), zap.String("role", string(profile.Role)))
		m.reject(ctx, gen, "not_admin")
		return
	}

	refreshed := &Record{Token: rec.Token, User: *profile}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return
	}
	if err := m.store.Save(ctx, *refreshed); err != nil {
		m.logger.Warn("failed to refresh stored profile", zap.Error(err))
	}
	m.state = StateAuthenticated
	m.record = refreshed
}

// reject clears the store unless a login or logout has superseded the verification.
func (m *Manager) reject(ctx context.Context, gen uint64, reason string) {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Warn("failed to clear rejected session", zap.Error(err))
	}
	prev := m.record
	m.state = StateUnauthenticated
	m.record = nil
	m.mu.Unlock()

	actor := events.Actor{}
	if prev != nil {
		id := prev.User.ID
		actor = events.Actor{UserID: &id, Email: prev.User.Email, Role: prev.User.Role}
	}
	m.publish(ctx, events.Event{
		Type:    events.EventSessionRejected,
		Actor:   actor,
		Payload: events.SessionRejectedPayload{Reason: reason},
	})
}

func (m *Manager) commit(gen uint64, state State, rec *Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return
	}
	m.state = state
	m.record = rec
}

// abandon rolls back to UNVERIFIED when the caller went away mid-check.
func (m *Manager) abandon(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen || m.state != StateVerifying {
		return
	}
	m.state = StateUnverified
}

// Login authenticates against the API and persists the session for admins.
// Non-admin accounts get ErrAccessDenied and nothing is stored.
func (m *Manager) Login(ctx context.Context, email, password string) (*domain.AdminUser, error) {
	m.loginMu.Lock()
	defer m.loginMu.Unlock()

	res, err := m.auth.Login(ctx, email, password)
	if err != nil {
		m.logger.Info("login failed", zap.String("email", email), zap.Error(err))
		var loginErr *LoginError
		if !errors.As(err, &loginErr) {
			err = newLoginError(0, "", err)
		}
		return nil, err
	}
	if !res.User.Role.IsAdmin() {
		m.logger.Warn("login rejected for non-admin role", zap.String("email", email), zap.String("role", string(res.User.Role)))
		id := res.User.ID
		m.publish(ctx, events.Event{
			Type:  events.EventAccessDenied,
			Actor: events.Actor{UserID: &id, Email: res.User.Email, Role: res.User.Role},
		})
		return nil, ErrAccessDenied
	}

	rec := &Record{Token: res.Token, User: res.User}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Save(ctx, *rec); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	m.gen++
	m.state = StateAuthenticated
	m.record = rec

	user := rec.User
	return &user, nil
}

// Logout clears the stored session, revokes the token when the authenticator
// supports it and runs the logout hook. The manager ends UNAUTHENTICATED even
// when clearing the store fails.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.gen++
	prev := m.record
	if prev == nil {
		// Not loaded yet; revoke whatever is stored.
		prev, _ = m.store.Load(ctx)
	}
	clearErr := m.store.Clear(ctx)
	m.state = StateUnauthenticated
	m.record = nil
	m.mu.Unlock()

	if prev != nil {
		if revoker, ok := m.auth.(Revoker); ok {
			if err := revoker.Revoke(ctx, prev.Token); err != nil {
				m.logger.Info("token revocation failed", zap.Error(err))
			}
		}
	}
	if m.onLogout != nil {
		m.onLogout()
	}

	if clearErr != nil {
		m.logger.Warn("failed to clear stored session", zap.Error(clearErr))
		return fmt.Errorf("clear session: %w", clearErr)
	}
	return nil
}

func (m *Manager) publish(ctx context.Context, event events.Event) {
	if m.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = m.now().UTC()
	if err := m.dispatcher.Publish(ctx, event); err != nil {
		m.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
