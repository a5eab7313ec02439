// Package models defines the records held by the development API.
package models

import "time"

// User is an account that can sign in to the console.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash []byte
	Subscription Subscription
}

// Subscription is the billing state reported to the console on login and
// from the profile endpoint.
type Subscription struct {
	Status   string `json:"status"`
	IsActive bool   `json:"is_active"`
}

// RefreshToken binds an opaque refresh token to its owner.
type RefreshToken struct {
	UserID  string
	Token   string
	Expires time.Time
}

// OTP is a pending password-reset code. Only the bcrypt hash of the code is
// kept. Verified is set once the code has been confirmed and allows a single
// password reset.
type OTP struct {
	Email    string
	CodeHash []byte
	Expires  time.Time
	Verified bool
}

// Property is a managed rental property returned by the listing endpoint.
type Property struct {
	ID      string `json:"id"`
	OwnerID string `json:"-"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Units   int    `json:"units"`
}
