package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/client/models"
	"github.com/dmitrijs2005/leasekeeper/internal/common"
	"github.com/dmitrijs2005/leasekeeper/internal/logging"
)

// TokenRefresher exchanges a refresh token for a new access token.
type TokenRefresher struct {
	baseURL string
	hc      *http.Client
	timeout time.Duration
	logger  logging.Logger
}

func NewTokenRefresher(baseURL string, hc *http.Client, timeout time.Duration, logger logging.Logger) *TokenRefresher {
	return &TokenRefresher{baseURL: baseURL, hc: hc, timeout: timeout, logger: logger}
}

// Refresh performs a single exchange; it never retries. Pair.Refresh is
// empty when the backend does not rotate refresh tokens.
//
// Errors:
//   - ErrNoRefreshToken when refreshToken is empty (no request is made)
//   - ErrRefreshFailed for transport failures and non-2xx answers
//   - ErrRefreshFailed and ErrTokenResponse for undecodable bodies or a
//     missing access token
func (r *TokenRefresher) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	resp, err := postJSON(ctx, r.hc, endpoint(r.baseURL, common.RouteTokenRefresh), map[string]string{"refresh": refreshToken})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	defer drainClose(resp.Body)

	if !is2xx(resp.StatusCode) {
		return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, newStatusError(resp))
	}

	var pair models.TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return nil, fmt.Errorf("%w: %w: %v", ErrRefreshFailed, ErrTokenResponse, err)
	}
	if pair.Access == "" {
		return nil, fmt.Errorf("%w: %w: access token missing", ErrRefreshFailed, ErrTokenResponse)
	}

	r.logger.Debug(ctx, "access token refreshed", "rotated", pair.Refresh != "")
	return &pair, nil
}
