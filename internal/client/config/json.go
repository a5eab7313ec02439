package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/flagx"
	"github.com/dmitrijs2005/leasekeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations
// accept "10s" strings or integer nanoseconds. Absent fields keep the
// values of earlier sources.
type JsonConfig struct {
	APIBaseURL     *string         `json:"api_base_url"`
	StorePath      *string         `json:"store_path"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	LoginURL       *string         `json:"login_url"`
	LogLevel       *string         `json:"log_level"`
	Ephemeral      *bool           `json:"ephemeral"`
}

// parseJson overlays cfg with the JSON file given by -c/--config in args.
// It panics when the file cannot be read or decoded.
func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.APIBaseURL != nil {
		cfg.APIBaseURL = *jc.APIBaseURL
	}
	if jc.StorePath != nil {
		cfg.StorePath = *jc.StorePath
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	}
	if jc.LoginURL != nil {
		cfg.LoginURL = *jc.LoginURL
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
	if jc.Ephemeral != nil {
		cfg.Ephemeral = *jc.Ephemeral
	}
}
