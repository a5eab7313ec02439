package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/leasekeeper/internal/client/client"
)

var (
	ErrLoginVerification = errors.New("login verification failed")
	ErrMissingToken      = errors.New("login response carried no access token")
)

// API is the subset of the HTTP pipeline the services call.
type API interface {
	DoJSON(ctx context.Context, method, path string, in, out any) error
	GetJSON(ctx context.Context, path string, out any) error
	PostJSON(ctx context.Context, path string, in, out any) error
}

// errorMessage turns a pipeline error into the text shown to the user.
func errorMessage(err error) string {
	var se *client.StatusError
	switch {
	case errors.Is(err, client.ErrSessionExpired):
		return "session expired"
	case errors.As(err, &se):
		if se.StatusCode == http.StatusTooManyRequests {
			return "too many attempts, try again later"
		}
		return se.Detail()
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable"
	default:
		return err.Error()
	}
}
