// Package cli is the leasekeeper console: a cobra command tree over the
// session core.
//
// Every invocation first boots the session (verifying any stored token), the
// way a page load does in the browser console. When the session ends, either
// because the user logged out or because the API refused to renew it, the
// console prints where to log in again and cancels the command context, so
// any remaining work is abandoned.
//
// Commands: login, logout, status, check, get, otp request, otp verify,
// reset-password and shell (an interactive loop over the same operations).
package cli
