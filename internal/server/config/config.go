// Package config handles configuration for the development API,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the development API.
//
// Fields:
//   - Addr: HTTP bind address.
//   - SecretKey: HMAC secret for signing access tokens (HS256).
//   - AccessTokenValidity / RefreshTokenValidity: token lifetimes.
//   - OTPValidity: lifetime of a password-reset code.
//   - RotateRefreshTokens: issue a new refresh token on every refresh.
//   - DatabaseDSN: PostgreSQL DSN (pgx) for refresh tokens; empty keeps
//     everything in memory.
//   - SeedEmail / SeedPassword: demo account created at start-up.
//   - AllowedOrigins: CORS origins of the browser console.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	Addr                 string
	SecretKey            string
	AccessTokenValidity  time.Duration
	RefreshTokenValidity time.Duration
	OTPValidity          time.Duration
	RotateRefreshTokens  bool
	DatabaseDSN          string
	SeedEmail            string
	SeedPassword         string
	AllowedOrigins       []string
	LogLevel             string
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.Addr = ":8000"
	c.SecretKey = "secretKey"
	c.AccessTokenValidity = 5 * time.Minute
	c.RefreshTokenValidity = 24 * time.Hour
	c.OTPValidity = 10 * time.Minute
	c.RotateRefreshTokens = true
	c.DatabaseDSN = ""
	c.SeedEmail = "demo@leasekeeper.local"
	c.SeedPassword = "demo-password"
	c.AllowedOrigins = []string{"http://localhost:3000"}
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags found in
// args (without the program name).
func LoadConfig(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
