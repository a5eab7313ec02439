package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/dmitrijs2005/leasekeeper/internal/client/client"
	"github.com/dmitrijs2005/leasekeeper/internal/client/config"
	"github.com/dmitrijs2005/leasekeeper/internal/client/credentials"
	"github.com/dmitrijs2005/leasekeeper/internal/client/services"
	"github.com/dmitrijs2005/leasekeeper/internal/client/session"
	"github.com/dmitrijs2005/leasekeeper/internal/filex"
	"github.com/dmitrijs2005/leasekeeper/internal/logging"
)

// ErrSessionEnded is the cancellation cause of a command whose session was
// ended by the API.
var ErrSessionEnded = errors.New("session ended")

// errLoggedOut is the cancellation cause after an explicit logout.
var errLoggedOut = errors.New("logged out")

// App holds the wired console for the lifetime of one command.
type App struct {
	config *config.Config
	logger logging.Logger

	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	db      *sql.DB
	session *session.Manager

	auth      services.AuthController
	login     services.LoginService
	reset     services.PasswordResetService
	resources services.ResourceService

	cancel         context.CancelCauseFunc
	explicitLogout atomic.Bool
}

// NewApp opens the credential store and wires the session core.
// The returned App must be closed.
func NewApp(ctx context.Context, cfg *config.Config, in io.Reader, out, errOut io.Writer) (*App, error) {
	logger := logging.New(cfg.LogLevel, errOut)

	a := &App{
		config: cfg,
		logger: logger,
		in:     bufio.NewReader(in),
		out:    out,
		errOut: errOut,
		cancel: func(error) {},
	}

	var store credentials.Store
	if cfg.Ephemeral {
		store = credentials.NewMemoryStore()
	} else {
		path, err := filex.ExpandHome(cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("resolve store path: %w", err)
		}
		db, err := credentials.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		a.db = db
		store = credentials.NewSQLiteStore(db)
	}

	hc := &http.Client{}
	a.session = session.NewManager(store, session.NavigatorFunc(a.toLogin), logger)

	verifier := client.NewTokenVerifier(cfg.APIBaseURL, hc, cfg.RequestTimeout, logger)
	refresher := client.NewTokenRefresher(cfg.APIBaseURL, hc, cfg.RequestTimeout, logger)
	api := client.NewHTTPClient(cfg.APIBaseURL, hc, a.session, refresher, logger)

	a.auth = services.NewAuthController(a.session, verifier, logger)
	a.login = services.NewLoginService(api, a.auth, logger)
	a.reset = services.NewPasswordResetService(api, logger)
	a.resources = services.NewResourceService(api, logger)
	return a, nil
}

// Boot derives a cancellable context for the command and resolves the
// session state.
func (a *App) Boot(ctx context.Context) context.Context {
	ctx, a.cancel = context.WithCancelCause(ctx)
	state := a.auth.Init(ctx)
	a.logger.Debug(ctx, "session booted", "state", state.String())
	return ctx
}

func (a *App) Close() error {
	a.cancel(nil)
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// toLogin is the console's hard navigation to the login entry point.
func (a *App) toLogin(context.Context) {
	if a.explicitLogout.Load() {
		a.cancel(errLoggedOut)
		return
	}

	msg := "session expired, log in again"
	if a.config.LoginURL != "" {
		msg += ": " + a.config.LoginURL
	} else {
		msg += " with `leasekeeper login`"
	}
	fmt.Fprintln(a.errOut, msg)
	a.cancel(ErrSessionEnded)
}

func (a *App) isLoggedIn() bool {
	return a.auth.State() == services.StateAuthenticated
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
