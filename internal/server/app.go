// Package server assembles and runs the development API: it opens the
// repositories, seeds the demo account, and serves HTTP until a shutdown
// signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/logging"
	"github.com/dmitrijs2005/leasekeeper/internal/server/config"
	"github.com/dmitrijs2005/leasekeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/leasekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/leasekeeper/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config      *config.Config
	logger      logging.Logger
	repos       repomanager.RepositoryManager
	userService *services.UserService
}

// NewApp builds the application from c. Refresh tokens go to PostgreSQL
// when c.DatabaseDSN is set.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(c.LogLevel, os.Stdout)

	var repos repomanager.RepositoryManager
	if c.DatabaseDSN != "" {
		pm, err := repomanager.NewPostgresRepositoryManager(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		repos = pm
	} else {
		repos = repomanager.NewInMemoryRepositoryManager()
	}

	us := services.NewUserService(repos, c, services.LogMailer{Logger: logger}, logger)

	if c.SeedEmail != "" {
		if _, err := us.Seed(ctx, c.SeedEmail, c.SeedPassword); err != nil {
			_ = repos.Close()
			return nil, fmt.Errorf("seed error: %w", err)
		}
		logger.Info(ctx, "demo account ready", "email", c.SeedEmail)
	}

	return &App{config: c, logger: logger, repos: repos, userService: us}, nil
}

// Handler returns the fully wired HTTP handler.
func (app *App) Handler() http.Handler {
	h := httpapi.NewHandler(app.userService, app.logger)
	return httpapi.NewRouter(h, app.config.AllowedOrigins, app.logger)
}

// initSignalHandler cancels on SIGINT, SIGTERM or SIGQUIT. The returned
// channel is closed once the handler has stopped listening, which also
// happens when ctx ends first.
func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) <-chan struct{} {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer signal.Stop(sigs)

		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
	return done
}

// serve runs srv on l until ctx is cancelled, then shuts it down gracefully.
func (app *App) serve(ctx context.Context, srv *http.Server, l net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// Run serves until ctx is done or a termination signal is received.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	signalsDone := app.initSignalHandler(ctx, cancelFunc)
	defer func() {
		cancelFunc()
		<-signalsDone
	}()

	l, err := net.Listen("tcp", app.config.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", app.config.Addr, err)
	}
	app.logger.Info(ctx, "starting devapi", "addr", l.Addr().String())

	srv := &http.Server{
		Handler:           app.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var (
		wg     sync.WaitGroup
		runErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		runErr = app.serve(ctx, srv, l)
	}()
	wg.Wait()

	if err := app.repos.Close(); err != nil {
		app.logger.Warn(ctx, "closing repositories", "error", err)
	}
	return runErr
}
