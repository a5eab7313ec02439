// Package config loads runtime configuration for the leasekeeper console.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or --config.
//  3. LEASEKEEPER_* environment variables, with a .env file in the working
//     directory filling in variables the environment leaves unset.
//  4. Command-line flags bound by RegisterFlags.
//
// # JSON schema
//
// Durations are timex.Duration values, so either "10s" or integer
// nanoseconds:
//
//	{
//	  "api_base_url": "https://pm.example.com/api",
//	  "store_path": "~/.leasekeeper/console.db",
//	  "request_timeout": "10s",
//	  "login_url": "https://pm.example.com/login",
//	  "log_level": "info",
//	  "ephemeral": false
//	}
package config
