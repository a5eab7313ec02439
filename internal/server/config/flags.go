package config

import (
	"flag"
	"io"
	"strings"

	"github.com/dmitrijs2005/leasekeeper/internal/flagx"
)

// parseFlags populates config from command-line flags.
//
//	-a string     HTTP bind address
//	-s string     JWT HMAC secret key
//	-t duration   access token validity
//	-r duration   refresh token validity
//	-o duration   one-time code validity
//	-rotate bool  rotate refresh tokens
//	-d string     PostgreSQL DSN
//	-seed-email, -seed-password string   demo account
//	-origins string   comma separated CORS origins
//	-l string     log level
//
// Only the flags handled here are parsed (see flagx.FilterArgs). It panics
// on malformed values.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, "a", "s", "t", "r", "o", "rotate", "d", "seed-email", "seed-password", "origins", "l")

	fs := flag.NewFlagSet("devapi", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.Addr, "a", config.Addr, "address and port to run server")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.AccessTokenValidity, "t", config.AccessTokenValidity, "access token validity")
	fs.DurationVar(&config.RefreshTokenValidity, "r", config.RefreshTokenValidity, "refresh token validity")
	fs.DurationVar(&config.OTPValidity, "o", config.OTPValidity, "one-time code validity")
	fs.BoolVar(&config.RotateRefreshTokens, "rotate", config.RotateRefreshTokens, "rotate refresh tokens")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SeedEmail, "seed-email", config.SeedEmail, "demo account email")
	fs.StringVar(&config.SeedPassword, "seed-password", config.SeedPassword, "demo account password")
	origins := fs.String("origins", strings.Join(config.AllowedOrigins, ","), "allowed CORS origins")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AllowedOrigins = splitList(*origins)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
