package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/leasekeeper/internal/client/models"
	"github.com/dmitrijs2005/leasekeeper/internal/common"
	"github.com/dmitrijs2005/leasekeeper/internal/logging"
	"golang.org/x/sync/singleflight"
)

// Session is the credential surface the pipeline needs.
type Session interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	StoreTokens(ctx context.Context, pair models.TokenPair) error
	Logout(ctx context.Context) bool
}

// Refresher obtains a new token pair from a refresh token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
}

type ctxKey int

const (
	retriedKey ctxKey = iota
	publicKey
)

// Public marks requests made with ctx as not needing a session.
func Public(ctx context.Context) context.Context {
	return context.WithValue(ctx, publicKey, true)
}

func isPublic(ctx context.Context) bool {
	v, _ := ctx.Value(publicKey).(bool)
	return v
}

func isRetried(ctx context.Context) bool {
	v, _ := ctx.Value(retriedKey).(bool)
	return v
}

// HTTPClient is the authenticated request pipeline.
type HTTPClient struct {
	baseURL   string
	hc        *http.Client
	session   Session
	refresher Refresher
	logger    logging.Logger

	refreshGroup singleflight.Group
}

func NewHTTPClient(baseURL string, hc *http.Client, session Session, refresher Refresher, logger logging.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:   baseURL,
		hc:        hc,
		session:   session,
		refresher: refresher,
		logger:    logger,
	}
}

// Do sends req with the session's access token.
//
// Responses below 400 are returned unchanged. A 401 triggers one refresh and
// one retry; if the refresh fails or the retry is rejected again the session
// is logged out and ErrSessionExpired is returned. Other statuses >= 400 are
// returned as *StatusError with the body consumed.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if err := bufferBody(req); err != nil {
		return nil, err
	}

	sent, err := c.attach(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.dispatch(req)
	if err != nil {
		return nil, err
	}
	return c.handle(req, resp, sent)
}

func (c *HTTPClient) handle(req *http.Request, resp *http.Response, sent string) (*http.Response, error) {
	ctx := req.Context()

	if resp.StatusCode < http.StatusBadRequest {
		return resp, nil
	}
	if resp.StatusCode != http.StatusUnauthorized || isPublic(ctx) {
		defer drainClose(resp.Body)
		return nil, newStatusError(resp)
	}
	drainClose(resp.Body)

	if isRetried(ctx) {
		c.logger.Warn(ctx, "retried request rejected, ending session", "url", req.URL.Path)
		c.session.Logout(ctx)
		return nil, ErrSessionExpired
	}

	access, err := c.freshToken(ctx, sent)
	if err != nil {
		c.logger.Warn(ctx, "token refresh failed, ending session", "error", err)
		c.session.Logout(ctx)
		return nil, fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}

	retry := req.Clone(context.WithValue(ctx, retriedKey, true))
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("replay request body: %w", err)
		}
		retry.Body = body
	}
	retry.Header.Set(common.HeaderAuthorization, common.BearerScheme+" "+access)

	resp, err = c.dispatch(retry)
	if err != nil {
		return nil, err
	}
	return c.handle(retry, resp, access)
}

// attach sets or clears the Authorization header and returns the token sent.
func (c *HTTPClient) attach(req *http.Request) (string, error) {
	setRequestID(req)

	if isPublic(req.Context()) {
		req.Header.Del(common.HeaderAuthorization)
		return "", nil
	}

	token, err := c.session.AccessToken(req.Context())
	if err != nil {
		return "", fmt.Errorf("read access token: %w", err)
	}
	if token == "" {
		req.Header.Del(common.HeaderAuthorization)
	} else {
		req.Header.Set(common.HeaderAuthorization, common.BearerScheme+" "+token)
	}
	return token, nil
}

func (c *HTTPClient) dispatch(req *http.Request) (*http.Response, error) {
	c.logger.Debug(req.Context(), "dispatch", "method", req.Method, "url", req.URL.Path,
		"request_id", req.Header.Get(common.HeaderRequestID))

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return resp, nil
}

// freshToken returns an access token newer than sent. When another request
// already replaced sent in the store that token is used as is; otherwise all
// concurrent callers share a single refresh.
func (c *HTTPClient) freshToken(ctx context.Context, sent string) (string, error) {
	v, err, shared := c.refreshGroup.Do("refresh", func() (any, error) {
		// shared by every waiter; one caller's cancellation must not fail the rest
		ctx := context.WithoutCancel(ctx)

		if current, err := c.session.AccessToken(ctx); err == nil && current != "" && current != sent {
			c.logger.Debug(ctx, "access token already rotated")
			return current, nil
		}

		refresh, err := c.session.RefreshToken(ctx)
		if err != nil {
			return "", fmt.Errorf("read refresh token: %w", err)
		}
		pair, err := c.refresher.Refresh(ctx, refresh)
		if err != nil {
			return "", err
		}
		if err := c.session.StoreTokens(ctx, *pair); err != nil {
			return "", fmt.Errorf("persist refreshed tokens: %w", err)
		}
		c.logger.Info(ctx, "session refreshed", "rotated", pair.Refresh != "")
		return pair.Access, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		c.logger.Debug(ctx, "joined in-flight refresh")
	}
	return v.(string), nil
}

// bufferBody makes req's body replayable.
func bufferBody(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return nil
	}
	b, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return fmt.Errorf("buffer request body: %w", err)
	}
	req.Body = io.NopCloser(bytes.NewReader(b))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(b)), nil
	}
	return nil
}

// DoJSON sends in (when non-nil) as JSON to path and decodes the response
// into out (when non-nil).
func (c *HTTPClient) DoJSON(ctx context.Context, method, path string, in, out any) error {
	req, err := newJSONRequest(ctx, method, endpoint(c.baseURL, path), in)
	if err != nil {
		return err
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer drainClose(resp.Body)

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) GetJSON(ctx context.Context, path string, out any) error {
	return c.DoJSON(ctx, http.MethodGet, path, nil, out)
}

func (c *HTTPClient) PostJSON(ctx context.Context, path string, in, out any) error {
	return c.DoJSON(ctx, http.MethodPost, path, in, out)
}
