// Package models defines the value objects shared by the console client:
// the subscription snapshot, login payloads and the result contract.
package models

import "encoding/json"

// LoginPayload is what a successful sign-in hands to the auth controller
// alongside the access token.
type LoginPayload struct {
	// RefreshToken is stored together with the access token when non-empty.
	RefreshToken string `json:"refresh,omitempty"`
	// User is the raw user object from the API, kept opaque.
	User json.RawMessage `json:"user,omitempty"`
	// Subscription is persisted as the session's snapshot when present.
	Subscription *Subscription `json:"subscription,omitempty"`
}

// TokenPair is a freshly minted access token and, when the backend rotates
// them, a replacement refresh token (empty otherwise).
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}
