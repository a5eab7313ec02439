package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/leasekeeper/internal/client/models"
	"github.com/dmitrijs2005/leasekeeper/internal/client/session"
	"github.com/dmitrijs2005/leasekeeper/internal/logging"
)

// State is the console's view of the session.
type State int

const (
	StateLoading State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Verifier checks an access token with the backend.
type Verifier interface {
	Verify(ctx context.Context, accessToken string) bool
}

// AuthController owns the authenticated/unauthenticated state.
//
// Contract:
//   - Init: boot. Resolves Loading into Authenticated (stored token verified)
//     or Unauthenticated (no token, or verification failed, in which case
//     the stored credentials are cleared).
//   - Login: persists the new credentials, verifies the token, and on failure
//     restores the store exactly as it was and returns ErrLoginVerification.
//   - Logout: ends the session through the single-fire logout.
//   - CheckTokenValidity: re-verifies; an invalid token is a Logout.
//
// The controller follows logouts triggered elsewhere (the HTTP pipeline), so
// state and store never disagree.
type AuthController interface {
	Init(ctx context.Context) State
	Login(ctx context.Context, accessToken string, payload models.LoginPayload) error
	Logout(ctx context.Context)
	CheckTokenValidity(ctx context.Context) bool

	State() State
	Subscription() *models.Subscription
	HasActiveSubscription() bool
}

type authController struct {
	session  *session.Manager
	verifier Verifier
	logger   logging.Logger

	mu    sync.RWMutex
	state State
	sub   *models.Subscription
}

func NewAuthController(sess *session.Manager, verifier Verifier, logger logging.Logger) AuthController {
	a := &authController{session: sess, verifier: verifier, logger: logger, state: StateLoading}
	sess.OnLogout(func(context.Context) { a.set(StateUnauthenticated, nil) })
	return a
}

func (a *authController) set(state State, sub *models.Subscription) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = state
	a.sub = sub
}

func (a *authController) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

func (a *authController) Subscription() *models.Subscription {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.sub == nil {
		return nil
	}
	sub := *a.sub
	return &sub
}

func (a *authController) HasActiveSubscription() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sub.HasActiveSubscription()
}

func (a *authController) Init(ctx context.Context) State {
	token, err := a.session.AccessToken(ctx)
	if err != nil {
		a.logger.Warn(ctx, "read stored token", "error", err)
		a.set(StateUnauthenticated, nil)
		return StateUnauthenticated
	}
	if token == "" {
		a.set(StateUnauthenticated, nil)
		return StateUnauthenticated
	}

	if !a.verifier.Verify(ctx, token) {
		a.logger.Info(ctx, "stored token rejected, clearing credentials")
		if err := a.session.ClearCredentials(ctx); err != nil {
			a.logger.Error(ctx, "clear credentials", "error", err)
		}
		a.set(StateUnauthenticated, nil)
		return StateUnauthenticated
	}

	a.set(StateAuthenticated, a.session.Subscription(ctx))
	return StateAuthenticated
}

func (a *authController) Login(ctx context.Context, accessToken string, payload models.LoginPayload) error {
	snap, err := a.session.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot credentials: %w", err)
	}

	a.session.Begin()

	restore := func() {
		if err := a.session.Restore(ctx, snap); err != nil {
			a.logger.Error(ctx, "restore credentials after failed login", "error", err)
		}
	}

	if err := a.persist(ctx, accessToken, payload); err != nil {
		restore()
		return fmt.Errorf("persist credentials: %w", err)
	}

	if !a.verifier.Verify(ctx, accessToken) {
		restore()
		return ErrLoginVerification
	}

	a.set(StateAuthenticated, payload.Subscription)
	a.logger.Info(ctx, "signed in", "token", logging.Redact(accessToken))
	return nil
}

// persist writes the login credentials. A payload without a refresh token
// or subscription drops whatever an earlier session left for that key.
func (a *authController) persist(ctx context.Context, accessToken string, payload models.LoginPayload) error {
	pair := models.TokenPair{Access: accessToken, Refresh: payload.RefreshToken}
	return a.session.StartSession(ctx, pair, payload.Subscription)
}

func (a *authController) Logout(ctx context.Context) {
	a.session.Logout(ctx)
	a.set(StateUnauthenticated, nil)
}

func (a *authController) CheckTokenValidity(ctx context.Context) bool {
	token, err := a.session.AccessToken(ctx)
	if err != nil {
		a.logger.Warn(ctx, "read stored token", "error", err)
	}
	if err == nil && a.verifier.Verify(ctx, token) {
		return true
	}
	a.Logout(ctx)
	return false
}
