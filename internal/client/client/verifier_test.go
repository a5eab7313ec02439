package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/common"
	"github.com/dmitrijs2005/leasekeeper/internal/logging"
	"github.com/stretchr/testify/assert"
)

func verifyServer(t *testing.T, valid string, delay time.Duration, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, common.RouteTokenVerify, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		if delay > 0 {
			time.Sleep(delay)
		}
		var body struct {
			Token string `json:"token"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Token != valid {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVerify(t *testing.T) {
	var calls atomic.Int32
	srv := verifyServer(t, "A1", 0, &calls)
	v := NewTokenVerifier(srv.URL, srv.Client(), time.Second, logging.Discard())
	ctx := context.Background()

	assert.True(t, v.Verify(ctx, "A1"))
	assert.False(t, v.Verify(ctx, "stale"))
	assert.Equal(t, int32(2), calls.Load())
}

func TestVerify_EmptyTokenMakesNoRequest(t *testing.T) {
	var calls atomic.Int32
	srv := verifyServer(t, "A1", 0, &calls)
	v := NewTokenVerifier(srv.URL, srv.Client(), time.Second, logging.Discard())

	assert.False(t, v.Verify(context.Background(), ""))
	assert.Equal(t, int32(0), calls.Load())
}

func TestVerify_TimeoutIsInvalid(t *testing.T) {
	var calls atomic.Int32
	srv := verifyServer(t, "A1", 200*time.Millisecond, &calls)
	v := NewTokenVerifier(srv.URL, srv.Client(), 20*time.Millisecond, logging.Discard())

	assert.False(t, v.Verify(context.Background(), "A1"))
}

func TestVerify_UnreachableIsInvalid(t *testing.T) {
	var calls atomic.Int32
	srv := verifyServer(t, "A1", 0, &calls)
	srv.Close()
	v := NewTokenVerifier(srv.URL, http.DefaultClient, time.Second, logging.Discard())

	assert.False(t, v.Verify(context.Background(), "A1"))
}
