package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	ErrUnavailable    = errors.New("server unavailable")
	ErrSessionExpired = errors.New("session expired")
	ErrNoRefreshToken = errors.New("no refresh token")
	ErrRefreshFailed  = errors.New("token refresh failed")
	ErrTokenResponse  = errors.New("malformed token response")
)

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 64 << 10

// StatusError is a completed request whose status was >= 400 and which the
// pipeline did not handle itself.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Detail())
}

// Detail returns the human-readable message of the response: the first of
// the "detail", "error" or "message" string fields, else the status text.
func (e *StatusError) Detail() string {
	var body map[string]any
	if err := json.Unmarshal(e.Body, &body); err == nil {
		for _, k := range []string{"detail", "error", "message"} {
			if s, ok := body[k].(string); ok && s != "" {
				return s
			}
		}
	}
	if s := strings.TrimSpace(string(e.Body)); s != "" && len(s) <= 200 && !strings.HasPrefix(s, "{") {
		return s
	}
	return strings.ToLower(http.StatusText(e.StatusCode))
}

func newStatusError(resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{StatusCode: resp.StatusCode, Body: body}
}

func drainClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4<<10))
	_ = body.Close()
}
