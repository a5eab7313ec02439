package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/client/models"
	"github.com/dmitrijs2005/leasekeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

var errPasswordMismatch = errors.New("passwords do not match")

// resultError turns a failed Result into an error for the caller.
func resultError(res models.Result) error {
	if res.Success {
		return nil
	}
	return errors.New(res.Error)
}

// Login signs in with email (prompted when empty) and a password read from
// the terminal.
func (a *App) Login(ctx context.Context, email string) error {
	if email == "" {
		var err error
		if email, err = getSimpleText(a.in, "Enter email", a.out); err != nil {
			return err
		}
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res := a.login.Login(ctx, email, string(password))
	if err := resultError(res); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	a.printf("Signed in as %s.\n", email)
	if sub := a.auth.Subscription(); sub != nil {
		a.printf("Subscription: %s\n", describeSubscription(sub))
	}
	return nil
}

// Logout ends the session. Doing so while signed out is not an error.
func (a *App) Logout(ctx context.Context) error {
	a.explicitLogout.Store(true)
	a.auth.Logout(ctx)
	a.printf("Logged out.\n")
	return nil
}

// Status prints the session state, the subscription snapshot and the access
// token's expiry as claimed by the token itself.
func (a *App) Status(ctx context.Context) error {
	a.printf("State:        %s\n", a.auth.State())
	if !a.isLoggedIn() {
		return nil
	}

	a.printf("Subscription: %s\n", describeSubscription(a.auth.Subscription()))

	token, err := a.session.AccessToken(ctx)
	if err != nil {
		return err
	}
	if exp, ok := tokenExpiry(token); ok {
		a.printf("Token expiry: %s (%s)\n", exp.Local().Format(time.RFC3339), expiresIn(exp, time.Now()))
	}
	return nil
}

// Check re-verifies the stored token; an invalid token ends the session.
func (a *App) Check(ctx context.Context) error {
	if a.auth.CheckTokenValidity(ctx) {
		a.printf("Token is valid.\n")
		return nil
	}
	return ErrSessionEnded
}

// Get fetches an API resource and prints it as indented JSON.
func (a *App) Get(ctx context.Context, path string) error {
	ctx, cancel := a.requestContext(ctx)
	defer cancel()
	return a.printResult(a.resources.Fetch(ctx, apiPath(path)))
}

// Send issues an authenticated write (POST, PUT, PATCH or DELETE) with an
// optional JSON body and prints the response.
func (a *App) Send(ctx context.Context, method, path, body string) error {
	method = strings.ToUpper(method)
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return fmt.Errorf("unsupported method %q", method)
	}

	var in any
	if body != "" {
		if err := json.Unmarshal([]byte(body), &in); err != nil {
			return fmt.Errorf("invalid JSON body: %w", err)
		}
	}

	ctx, cancel := a.requestContext(ctx)
	defer cancel()
	return a.printResult(a.resources.Send(ctx, method, apiPath(path), in))
}

// requestContext bounds a resource call, which may include one refresh and
// one retry. A zero RequestTimeout leaves the deadline to the caller.
func (a *App) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.RequestTimeout > 0 {
		return context.WithTimeout(ctx, 3*a.config.RequestTimeout)
	}
	return ctx, func() {}
}

func apiPath(path string) string {
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

func (a *App) printResult(res models.Result) error {
	if err := resultError(res); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res.Data); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err := a.out.Write(buf.Bytes())
	return err
}

func (a *App) RequestOTP(ctx context.Context, email string) error {
	if err := resultError(a.reset.RequestOTP(ctx, email)); err != nil {
		return err
	}
	a.printf("A one-time code was sent to %s.\n", email)
	return nil
}

func (a *App) VerifyOTP(ctx context.Context, email, code string) error {
	if err := resultError(a.reset.VerifyOTP(ctx, email, code)); err != nil {
		return err
	}
	a.printf("Code accepted.\n")
	return nil
}

// ResetPassword prompts twice for the new password and submits it with the
// one-time code.
func (a *App) ResetPassword(ctx context.Context, email, code string) error {
	first, err := getPassword("New password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(first)

	second, err := getPassword("Repeat new password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(second)

	if !bytes.Equal(first, second) {
		return errPasswordMismatch
	}

	if err := resultError(a.reset.ResetPassword(ctx, email, code, string(first))); err != nil {
		return err
	}
	a.printf("Password changed. Log in with the new password.\n")
	return nil
}

func describeSubscription(sub *models.Subscription) string {
	if sub == nil {
		return "none"
	}
	if sub.HasActiveSubscription() {
		return "active"
	}
	return fmt.Sprintf("%s (inactive)", sub.Status)
}

// tokenExpiry reads the exp claim without verifying the signature; the API
// remains the judge of validity.
func tokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

func expiresIn(exp, now time.Time) string {
	d := exp.Sub(now).Round(time.Second)
	if d <= 0 {
		return "expired"
	}
	return "in " + d.String()
}
