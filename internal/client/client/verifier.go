package client

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/common"
	"github.com/dmitrijs2005/leasekeeper/internal/logging"
)

// TokenVerifier asks the backend whether an access token is still accepted.
type TokenVerifier struct {
	baseURL string
	hc      *http.Client
	timeout time.Duration
	logger  logging.Logger
}

// NewTokenVerifier builds a verifier. A zero timeout leaves the deadline to
// the caller's context.
func NewTokenVerifier(baseURL string, hc *http.Client, timeout time.Duration, logger logging.Logger) *TokenVerifier {
	return &TokenVerifier{baseURL: baseURL, hc: hc, timeout: timeout, logger: logger}
}

// Verify reports true only when the backend answers 2xx. An empty token,
// a transport failure, a timeout or any other status all read as false.
func (v *TokenVerifier) Verify(ctx context.Context, accessToken string) bool {
	if accessToken == "" {
		return false
	}

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	resp, err := postJSON(ctx, v.hc, endpoint(v.baseURL, common.RouteTokenVerify), map[string]string{"token": accessToken})
	if err != nil {
		v.logger.Warn(ctx, "token verification failed", "error", err)
		return false
	}
	defer drainClose(resp.Body)

	ok := is2xx(resp.StatusCode)
	v.logger.Debug(ctx, "token verification", "valid", ok, "status", resp.StatusCode, "token", logging.Redact(accessToken))
	return ok
}
