package config

import "time"

// Config holds runtime settings for the leasekeeper console.
//
// Fields:
//   - APIBaseURL: base URL every API route is joined to.
//   - StorePath: SQLite file holding the credentials ("~" is expanded).
//   - RequestTimeout: per-call deadline of token verification and refresh.
//   - LoginURL: login entry point shown when a session ends.
//   - LogLevel: debug, info, warn or error.
//   - Ephemeral: keep credentials in memory only.
type Config struct {
	APIBaseURL     string
	StorePath      string
	RequestTimeout time.Duration
	LoginURL       string
	LogLevel       string
	Ephemeral      bool
}

// DotEnvFile is read from the working directory when present.
const DotEnvFile = ".env"

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8000/api"
	c.StorePath = "~/.leasekeeper/console.db"
	c.RequestTimeout = 10 * time.Second
	c.LoginURL = ""
	c.LogLevel = "warn"
	c.Ephemeral = false
}

// LoadConfig constructs a Config from defaults, the JSON file named by
// -c/--config in args (if any) and the environment. Command-line flags are
// applied afterwards by the command parser, see RegisterFlags. Later sources
// take precedence over earlier ones.
func LoadConfig(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseEnv(cfg, DotEnvFile)
	return cfg
}
