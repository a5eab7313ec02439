// Package session owns the console's credential lifecycle: reading and
// persisting tokens, the subscription snapshot, and the single-fire logout
// that ends a session.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/leasekeeper/internal/client/credentials"
	"github.com/dmitrijs2005/leasekeeper/internal/client/models"
	"github.com/dmitrijs2005/leasekeeper/internal/logging"
)

// Navigator performs the hard navigation to the login entry point,
// abandoning whatever the process was doing.
type Navigator interface {
	ToLogin(ctx context.Context)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context)

func (f NavigatorFunc) ToLogin(ctx context.Context) { f(ctx) }

// Snapshot is a copy of the session keys present in the store.
// Absent keys are absent from the map.
type Snapshot map[string]string

// Manager is shared by the HTTP pipeline and the auth controller.
// It is safe for concurrent use.
type Manager struct {
	store  credentials.Store
	nav    Navigator
	logger logging.Logger

	loggingOut atomic.Bool

	mu    sync.Mutex
	hooks []func(ctx context.Context)
}

// NewManager wires a manager. nav may be nil, in which case Logout only
// clears credentials.
func NewManager(store credentials.Store, nav Navigator, logger logging.Logger) *Manager {
	return &Manager{store: store, nav: nav, logger: logger}
}

func (m *Manager) get(ctx context.Context, key string) (string, error) {
	v, _, err := m.store.Get(ctx, key)
	return v, err
}

// AccessToken returns the stored access token, or "" when there is none.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	return m.get(ctx, credentials.KeyAccessToken)
}

// RefreshToken returns the stored refresh token, or "" when there is none.
func (m *Manager) RefreshToken(ctx context.Context) (string, error) {
	return m.get(ctx, credentials.KeyRefreshToken)
}

// StoreTokens persists a token pair in one batch. An empty Refresh keeps
// the current refresh token.
func (m *Manager) StoreTokens(ctx context.Context, pair models.TokenPair) error {
	return credentials.Update(ctx, m.store, func(ctx context.Context, s credentials.Store) error {
		if err := s.Set(ctx, credentials.KeyAccessToken, pair.Access); err != nil {
			return err
		}
		if pair.Refresh != "" {
			return s.Set(ctx, credentials.KeyRefreshToken, pair.Refresh)
		}
		return nil
	})
}

// StartSession replaces the stored credentials with those of a new sign-in
// in one batch. Keys the sign-in does not provide are removed, so nothing of
// the previous session survives.
func (m *Manager) StartSession(ctx context.Context, pair models.TokenPair, sub *models.Subscription) error {
	var encoded string
	if sub != nil {
		b, err := json.Marshal(sub)
		if err != nil {
			return fmt.Errorf("encode subscription: %w", err)
		}
		encoded = string(b)
	}

	return credentials.Update(ctx, m.store, func(ctx context.Context, s credentials.Store) error {
		values := map[string]string{
			credentials.KeyAccessToken:  pair.Access,
			credentials.KeyRefreshToken: pair.Refresh,
			credentials.KeySubscription: encoded,
		}
		for _, k := range credentials.SessionKeys {
			var err error
			if v := values[k]; v != "" {
				err = s.Set(ctx, k, v)
			} else {
				err = s.Remove(ctx, k)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Subscription decodes the stored snapshot. A missing or malformed
// snapshot yields nil; malformed values are removed from the store.
func (m *Manager) Subscription(ctx context.Context) *models.Subscription {
	raw, ok, err := m.store.Get(ctx, credentials.KeySubscription)
	if err != nil {
		m.logger.Warn(ctx, "read subscription snapshot", "error", err)
		return nil
	}
	if !ok || raw == "" {
		return nil
	}

	var sub models.Subscription
	if err := json.Unmarshal([]byte(raw), &sub); err != nil {
		m.logger.Warn(ctx, "discarding malformed subscription snapshot", "error", err)
		if err := m.store.Remove(ctx, credentials.KeySubscription); err != nil {
			m.logger.Warn(ctx, "remove malformed subscription snapshot", "error", err)
		}
		return nil
	}
	return &sub
}

// ClearCredentials removes every session key. Each removal is attempted;
// failures are joined.
func (m *Manager) ClearCredentials(ctx context.Context) error {
	var errs []error
	for _, k := range credentials.SessionKeys {
		if err := m.store.Remove(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Snapshot captures the session keys currently stored.
func (m *Manager) Snapshot(ctx context.Context) (Snapshot, error) {
	snap := make(Snapshot, len(credentials.SessionKeys))
	for _, k := range credentials.SessionKeys {
		v, ok, err := m.store.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		if ok {
			snap[k] = v
		}
	}
	return snap, nil
}

// Restore puts the store back to exactly snap: keys in snap are written,
// the other session keys are removed.
func (m *Manager) Restore(ctx context.Context, snap Snapshot) error {
	return credentials.Update(ctx, m.store, func(ctx context.Context, s credentials.Store) error {
		for _, k := range credentials.SessionKeys {
			v, ok := snap[k]
			var err error
			if ok {
				err = s.Set(ctx, k, v)
			} else {
				err = s.Remove(ctx, k)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// OnLogout registers fn to run after credentials are cleared and before
// navigation.
func (m *Manager) OnLogout(fn func(ctx context.Context)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// Begin re-arms the logout guard for a new session.
func (m *Manager) Begin() {
	m.loggingOut.Store(false)
}

// isLoggingOut reports whether the current session has been ended.
func (m *Manager) isLoggingOut() bool {
	return m.loggingOut.Load()
}

// Logout ends the session once. The first caller clears credentials, runs
// the logout hooks and navigates to login, returning true. Every other
// caller returns false without side effects until Begin is called.
func (m *Manager) Logout(ctx context.Context) bool {
	if !m.loggingOut.CompareAndSwap(false, true) {
		m.logger.Debug(ctx, "logout already in progress")
		return false
	}

	// the caller's context may be the one being abandoned
	ctx = context.WithoutCancel(ctx)

	m.logger.Info(ctx, "session ended, clearing credentials")
	if err := m.ClearCredentials(ctx); err != nil {
		m.logger.Error(ctx, "clear credentials", "error", err)
	}

	m.mu.Lock()
	hooks := append([]func(context.Context){}, m.hooks...)
	m.mu.Unlock()
	for _, fn := range hooks {
		fn(ctx)
	}

	if m.nav != nil {
		m.nav.ToLogin(ctx)
	}
	return true
}
