// Package client contains the console's HTTP building blocks for talking to
// the leasekeeper API.
//
// # Overview
//
// The package provides:
//  1. TokenVerifier, which asks the backend whether an access token is still
//     accepted. It never fails loudly: every problem reads as "not valid".
//  2. TokenRefresher, which exchanges a refresh token for a new access token
//     (and, when the backend rotates them, a new refresh token).
//  3. HTTPClient, the request pipeline used by feature code. It attaches the
//     stored access token, and on a 401 refreshes once through a
//     single-flight group, retries the request once, and ends the session
//     when that is not enough.
//
// # Error Handling
//
// Sentinel errors are matched with errors.Is: ErrUnavailable for transport
// failures, ErrSessionExpired when the pipeline ended the session,
// ErrRefreshFailed and ErrTokenResponse for refresh problems. Other non-2xx
// responses come back as *StatusError, matched with errors.As.
//
// # Public requests
//
// Requests whose context is marked with Public skip token handling entirely;
// a 401 on such a request is an ordinary *StatusError. Sign-in and password
// reset calls use it.
//
// All types are safe for concurrent use.
package client
