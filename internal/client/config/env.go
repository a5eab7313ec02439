package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables understood by the console.
const (
	EnvAPIBaseURL     = "LEASEKEEPER_API_URL"
	EnvStorePath      = "LEASEKEEPER_STORE"
	EnvRequestTimeout = "LEASEKEEPER_TIMEOUT"
	EnvLoginURL       = "LEASEKEEPER_LOGIN_URL"
	EnvLogLevel       = "LEASEKEEPER_LOG_LEVEL"
	EnvEphemeral      = "LEASEKEEPER_EPHEMERAL"
)

// parseEnv overlays cfg with LEASEKEEPER_* variables. Values in dotenvPath
// are used for variables the process environment does not set. A missing
// dotenv file is ignored; an unreadable one or a malformed value panics.
func parseEnv(cfg *Config, dotenvPath string) {
	file := map[string]string{}
	if dotenvPath != "" {
		m, err := godotenv.Read(dotenvPath)
		switch {
		case err == nil:
			file = m
		case errors.Is(err, fs.ErrNotExist):
		default:
			panic(err)
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := file[key]
		return v, ok
	}

	if v, ok := lookup(EnvAPIBaseURL); ok {
		cfg.APIBaseURL = v
	}
	if v, ok := lookup(EnvStorePath); ok {
		cfg.StorePath = v
	}
	if v, ok := lookup(EnvRequestTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		cfg.RequestTimeout = d
	}
	if v, ok := lookup(EnvLoginURL); ok {
		cfg.LoginURL = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		cfg.LogLevel = v
	}
	if v, ok := lookup(EnvEphemeral); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		cfg.Ephemeral = b
	}
}
