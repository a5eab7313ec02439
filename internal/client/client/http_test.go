package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/client/credentials"
	"github.com/dmitrijs2005/leasekeeper/internal/client/session"
	"github.com/dmitrijs2005/leasekeeper/internal/common"
	"github.com/dmitrijs2005/leasekeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI accepts exactly one access token on /properties/ and hands out
// tokens on /token/refresh/.
type fakeAPI struct {
	validAccess string

	refreshStatus int
	refreshBody   string
	refreshDelay  time.Duration

	refreshCalls  atomic.Int32
	resourceCalls atomic.Int32

	mu         sync.Mutex
	lastBodies []string
	lastAuth   []string
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(common.RouteTokenRefresh, func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		if f.refreshDelay > 0 {
			time.Sleep(f.refreshDelay)
		}
		w.WriteHeader(f.refreshStatus)
		_, _ = io.WriteString(w, f.refreshBody)
	})
	mux.HandleFunc(common.RouteProperties, func(w http.ResponseWriter, r *http.Request) {
		f.resourceCalls.Add(1)
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.lastBodies = append(f.lastBodies, string(body))
		f.lastAuth = append(f.lastAuth, r.Header.Get(common.HeaderAuthorization))
		f.mu.Unlock()

		if r.Header.Get(common.HeaderAuthorization) != "Bearer "+f.validAccess {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"token not valid"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":1,"name":"Elm Street 5"}]`)
	})
	mux.HandleFunc("/broken/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"detail":"boom"}`)
	})
	return mux
}

type navCounter struct{ n atomic.Int32 }

func (c *navCounter) ToLogin(context.Context) { c.n.Add(1) }

type pipelineFixture struct {
	api    *fakeAPI
	srv    *httptest.Server
	store  *credentials.MemoryStore
	nav    *navCounter
	mgr    *session.Manager
	client *HTTPClient
}

func newPipeline(t *testing.T, api *fakeAPI, access, refresh string) *pipelineFixture {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	ctx := context.Background()
	store := credentials.NewMemoryStore()
	if access != "" {
		require.NoError(t, store.Set(ctx, credentials.KeyAccessToken, access))
	}
	if refresh != "" {
		require.NoError(t, store.Set(ctx, credentials.KeyRefreshToken, refresh))
	}

	log := logging.Discard()
	nav := &navCounter{}
	mgr := session.NewManager(store, nav, log)
	refresher := NewTokenRefresher(srv.URL, srv.Client(), time.Second, log)

	return &pipelineFixture{
		api:    api,
		srv:    srv,
		store:  store,
		nav:    nav,
		mgr:    mgr,
		client: NewHTTPClient(srv.URL, srv.Client(), mgr, refresher, log),
	}
}

func stored(t *testing.T, s credentials.Store, key string) string {
	t.Helper()
	v, _, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	return v
}

func TestDo_ValidTokenPassesThrough(t *testing.T) {
	api := &fakeAPI{validAccess: "A1"}
	f := newPipeline(t, api, "A1", "R1")

	var out []map[string]any
	require.NoError(t, f.client.GetJSON(context.Background(), common.RouteProperties, &out))

	assert.Len(t, out, 1)
	assert.Equal(t, int32(0), api.refreshCalls.Load())
	assert.Equal(t, []string{"Bearer A1"}, api.lastAuth)
}

func TestDo_RefreshesOnceAndRetries(t *testing.T) {
	api := &fakeAPI{validAccess: "A2", refreshStatus: http.StatusOK, refreshBody: `{"access":"A2","refresh":"R2"}`}
	f := newPipeline(t, api, "A1", "R1")

	var out []map[string]any
	require.NoError(t, f.client.GetJSON(context.Background(), common.RouteProperties, &out))

	assert.Len(t, out, 1)
	assert.Equal(t, int32(1), api.refreshCalls.Load())
	assert.Equal(t, int32(2), api.resourceCalls.Load())
	assert.Equal(t, "A2", stored(t, f.store, credentials.KeyAccessToken))
	assert.Equal(t, "R2", stored(t, f.store, credentials.KeyRefreshToken))
	assert.Equal(t, int32(0), f.nav.n.Load())
}

func TestDo_NonRotatingRefreshKeepsRefreshToken(t *testing.T) {
	api := &fakeAPI{validAccess: "A2", refreshStatus: http.StatusOK, refreshBody: `{"access":"A2"}`}
	f := newPipeline(t, api, "A1", "R1")

	require.NoError(t, f.client.GetJSON(context.Background(), common.RouteProperties, nil))
	assert.Equal(t, "A2", stored(t, f.store, credentials.KeyAccessToken))
	assert.Equal(t, "R1", stored(t, f.store, credentials.KeyRefreshToken))
}

func TestDo_RefreshFailureEndsSession(t *testing.T) {
	api := &fakeAPI{validAccess: "A2", refreshStatus: http.StatusUnauthorized, refreshBody: `{"detail":"token expired"}`}
	f := newPipeline(t, api, "A1", "R1")
	require.NoError(t, f.store.Set(context.Background(), credentials.KeySubscription, `{"status":"active"}`))

	err := f.client.GetJSON(context.Background(), common.RouteProperties, nil)
	require.ErrorIs(t, err, ErrSessionExpired)
	require.ErrorIs(t, err, ErrRefreshFailed)

	assert.Empty(t, f.store.Snapshot())
	assert.Equal(t, int32(1), f.nav.n.Load())
	assert.Equal(t, int32(1), api.resourceCalls.Load())
}

func TestDo_RetriedRequestRejectedEndsSession(t *testing.T) {
	// refresh succeeds but the new token is not accepted either
	api := &fakeAPI{validAccess: "never", refreshStatus: http.StatusOK, refreshBody: `{"access":"A2","refresh":"R2"}`}
	f := newPipeline(t, api, "A1", "R1")

	err := f.client.GetJSON(context.Background(), common.RouteProperties, nil)
	require.ErrorIs(t, err, ErrSessionExpired)

	assert.Equal(t, int32(1), api.refreshCalls.Load())
	assert.Equal(t, int32(2), api.resourceCalls.Load())
	assert.Equal(t, int32(1), f.nav.n.Load())
	assert.Empty(t, f.store.Snapshot())
}

func TestDo_NoRefreshTokenEndsSessionWithoutNetwork(t *testing.T) {
	api := &fakeAPI{validAccess: "A2"}
	f := newPipeline(t, api, "A1", "")

	err := f.client.GetJSON(context.Background(), common.RouteProperties, nil)
	require.ErrorIs(t, err, ErrSessionExpired)
	require.ErrorIs(t, err, ErrNoRefreshToken)
	assert.Equal(t, int32(0), api.refreshCalls.Load())
	assert.Equal(t, int32(1), f.nav.n.Load())
}

func TestDo_NoTokenSendsNoHeader(t *testing.T) {
	api := &fakeAPI{validAccess: "A1"}
	f := newPipeline(t, api, "", "")

	err := f.client.GetJSON(context.Background(), common.RouteProperties, nil)
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, []string{""}, api.lastAuth)
}

func TestDo_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	api := &fakeAPI{
		validAccess:   "A2",
		refreshStatus: http.StatusOK,
		refreshBody:   `{"access":"A2","refresh":"R2"}`,
		refreshDelay:  50 * time.Millisecond,
	}
	f := newPipeline(t, api, "A1", "R1")

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.client.GetJSON(context.Background(), common.RouteProperties, nil)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), api.refreshCalls.Load())
	assert.Equal(t, int32(0), f.nav.n.Load())
	assert.Equal(t, "A2", stored(t, f.store, credentials.KeyAccessToken))
}

func TestDo_ConcurrentRefreshFailureLogsOutOnce(t *testing.T) {
	api := &fakeAPI{
		validAccess:   "A2",
		refreshStatus: http.StatusUnauthorized,
		refreshDelay:  50 * time.Millisecond,
	}
	f := newPipeline(t, api, "A1", "R1")

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.client.GetJSON(context.Background(), common.RouteProperties, nil)
			assert.ErrorIs(t, err, ErrSessionExpired)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), f.nav.n.Load())
	assert.Empty(t, f.store.Snapshot())
}

func TestDo_ReplaysBodyOnRetry(t *testing.T) {
	api := &fakeAPI{validAccess: "A2", refreshStatus: http.StatusOK, refreshBody: `{"access":"A2"}`}
	f := newPipeline(t, api, "A1", "R1")

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost,
		f.srv.URL+common.RouteProperties, io.NopCloser(strings.NewReader(`{"name":"Oak"}`)))
	require.NoError(t, err)

	resp, err := f.client.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, []string{`{"name":"Oak"}`, `{"name":"Oak"}`}, api.lastBodies)
	assert.Equal(t, []string{"Bearer A1", "Bearer A2"}, api.lastAuth)
}

func TestDo_PublicRequestDoesNotRefresh(t *testing.T) {
	api := &fakeAPI{validAccess: "A1"}
	f := newPipeline(t, api, "A1", "R1")

	err := f.client.GetJSON(Public(context.Background()), common.RouteProperties, nil)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.Equal(t, "token not valid", se.Detail())
	assert.Equal(t, []string{""}, api.lastAuth)
	assert.Equal(t, int32(0), api.refreshCalls.Load())
	assert.Equal(t, int32(0), f.nav.n.Load())
	assert.Equal(t, "A1", stored(t, f.store, credentials.KeyAccessToken))
}

func TestDo_OtherStatusIsStatusError(t *testing.T) {
	api := &fakeAPI{validAccess: "A1"}
	f := newPipeline(t, api, "A1", "R1")

	err := f.client.GetJSON(context.Background(), "/broken/", nil)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Equal(t, "boom", se.Detail())
	assert.NotErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, int32(0), f.nav.n.Load())
}

func TestDo_TransportErrorIsUnavailable(t *testing.T) {
	api := &fakeAPI{validAccess: "A1"}
	f := newPipeline(t, api, "A1", "R1")
	f.srv.Close()

	err := f.client.GetJSON(context.Background(), common.RouteProperties, nil)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(0), f.nav.n.Load())
	assert.Equal(t, "A1", stored(t, f.store, credentials.KeyAccessToken))
}

func TestDoJSON_SendsBodyAndRequestID(t *testing.T) {
	var gotID, gotCT string
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get(common.HeaderRequestID)
		gotCT = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	mgr := session.NewManager(credentials.NewMemoryStore(), nil, logging.Discard())
	c := NewHTTPClient(srv.URL+"/", srv.Client(), mgr, nil, logging.Discard())

	var out map[string]any
	require.NoError(t, c.PostJSON(Public(context.Background()), "/get-otp/", map[string]string{"email": "a@b.c"}, &out))
	assert.NotEmpty(t, gotID)
	assert.Equal(t, "application/json", gotCT)
	assert.Equal(t, map[string]string{"email": "a@b.c"}, got)
	assert.Nil(t, out)
}

func TestStatusError_Detail(t *testing.T) {
	cases := []struct {
		name string
		err  StatusError
		want string
	}{
		{"detail", StatusError{400, []byte(`{"detail":"bad otp"}`)}, "bad otp"},
		{"error", StatusError{400, []byte(`{"error":"nope"}`)}, "nope"},
		{"message", StatusError{400, []byte(`{"message":"m"}`)}, "m"},
		{"plain text", StatusError{502, []byte("gateway down")}, "gateway down"},
		{"empty", StatusError{404, nil}, "not found"},
		{"non-string detail", StatusError{400, []byte(`{"detail":["x"]}`)}, "bad request"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Detail())
		})
	}
}
