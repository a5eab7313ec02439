package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/leasekeeper/internal/common"
	"github.com/google/uuid"
)

// endpoint joins the API base URL and a route.
func endpoint(baseURL, route string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(route, "/")
}

func newJSONRequest(ctx context.Context, method, url string, in any) (*http.Request, error) {
	var body *bytes.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, url, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, url, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func setRequestID(req *http.Request) {
	if req.Header.Get(common.HeaderRequestID) == "" {
		req.Header.Set(common.HeaderRequestID, uuid.NewString())
	}
}

// postJSON sends an unauthenticated JSON POST straight through hc.
func postJSON(ctx context.Context, hc *http.Client, url string, in any) (*http.Response, error) {
	req, err := newJSONRequest(ctx, http.MethodPost, url, in)
	if err != nil {
		return nil, err
	}
	setRequestID(req)

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return resp, nil
}

func is2xx(code int) bool {
	return code >= 200 && code < 300
}
