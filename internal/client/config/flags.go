package config

import "github.com/spf13/pflag"

// RegisterFlags binds the console's persistent flags to cfg. The current
// values of cfg become the flag defaults, so flags override every earlier
// source once parsed.
//
//	-a, --api-url string     API base URL
//	    --store string       credentials database file
//	    --timeout duration   verification/refresh timeout
//	    --login-url string   login entry point shown on session end
//	    --log-level string   debug|info|warn|error
//	    --ephemeral          keep credentials in memory only
//	-c, --config string      JSON config file (read before flags)
func RegisterFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVarP(&cfg.APIBaseURL, "api-url", "a", cfg.APIBaseURL, "API base URL")
	fs.StringVar(&cfg.StorePath, "store", cfg.StorePath, "credentials database file")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "token verification and refresh timeout")
	fs.StringVar(&cfg.LoginURL, "login-url", cfg.LoginURL, "login entry point shown when the session ends")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	fs.BoolVar(&cfg.Ephemeral, "ephemeral", cfg.Ephemeral, "keep credentials in memory only")
	// consumed by LoadConfig before parsing; registered so the parser accepts it
	fs.StringP("config", "c", "", "JSON config file")
}
