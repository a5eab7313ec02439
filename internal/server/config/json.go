package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/leasekeeper/internal/flagx"
	"github.com/dmitrijs2005/leasekeeper/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON
// configuration files. Durations use timex.Duration, so both "5m" and
// integer nanoseconds are accepted.
type JsonConfig struct {
	Addr                 string         `json:"addr"`
	SecretKey            string         `json:"secret_key"`
	AccessTokenValidity  timex.Duration `json:"access_token_validity"`
	RefreshTokenValidity timex.Duration `json:"refresh_token_validity"`
	OTPValidity          timex.Duration `json:"otp_validity"`
	RotateRefreshTokens  bool           `json:"rotate_refresh_tokens"`
	DatabaseDSN          string         `json:"database_dsn"`
	SeedEmail            string         `json:"seed_email"`
	SeedPassword         string         `json:"seed_password"`
	AllowedOrigins       []string       `json:"allowed_origins"`
	LogLevel             string         `json:"log_level"`
}

// parseJson loads the file named by -c/-config into config. The file is
// applied on top of the current values: the JSON document is decoded into a
// DTO pre-filled with them, so absent keys keep their value.
// It panics if the file cannot be read or contains invalid JSON.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return
	}

	c := &JsonConfig{
		Addr:                 config.Addr,
		SecretKey:            config.SecretKey,
		AccessTokenValidity:  timex.Duration{Duration: config.AccessTokenValidity},
		RefreshTokenValidity: timex.Duration{Duration: config.RefreshTokenValidity},
		OTPValidity:          timex.Duration{Duration: config.OTPValidity},
		RotateRefreshTokens:  config.RotateRefreshTokens,
		DatabaseDSN:          config.DatabaseDSN,
		SeedEmail:            config.SeedEmail,
		SeedPassword:         config.SeedPassword,
		AllowedOrigins:       config.AllowedOrigins,
		LogLevel:             config.LogLevel,
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.Addr = c.Addr
	config.SecretKey = c.SecretKey
	config.AccessTokenValidity = c.AccessTokenValidity.Duration
	config.RefreshTokenValidity = c.RefreshTokenValidity.Duration
	config.OTPValidity = c.OTPValidity.Duration
	config.RotateRefreshTokens = c.RotateRefreshTokens
	config.DatabaseDSN = c.DatabaseDSN
	config.SeedEmail = c.SeedEmail
	config.SeedPassword = c.SeedPassword
	config.AllowedOrigins = c.AllowedOrigins
	config.LogLevel = c.LogLevel
}
