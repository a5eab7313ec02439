// Package common contains constants, sentinel errors and small helpers
// shared by the console client and the development API.
package common

// HTTP header contract between the console and the API.
const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
	BearerScheme        = "Bearer"
)

// API routes consumed by the console and served by the development API.
const (
	RouteLogin         = "/login/"
	RouteTokenVerify   = "/token/verify/"
	RouteTokenRefresh  = "/token/refresh/"
	RouteGetOTP        = "/get-otp/"
	RouteVerifyOTP     = "/otp/verify-otp/"
	RouteResetPassword = "/reset-password/"
	RouteMe            = "/me/"
	RouteProperties    = "/properties/"
	RouteHealth        = "/health"
)
