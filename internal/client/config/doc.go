// Package config loads runtime configuration for the sessionkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected via -c or -config. A ".toml" file is
//     decoded as TOML, anything else as JSON.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   API base URL
//	-x int      expired credential status code
//	-m string   refresh mode (independent|coalesce)
//	-t int      request timeout (seconds, 0 disables)
//	-d string   local database path
//	-l string   log level
//	-i int      online status check interval (seconds)
//
// # File schema
//
// Intervals use timex.Duration, so values can be strings like "5s" or
// integer nanoseconds:
//
//	{
//	  "api_base_url": "http://127.0.0.1:8080",
//	  "refresh_mode": "coalesce",
//	  "notice_ttl": "5s",
//	  "online_check_interval": "3s"
//	}
//
// or, in TOML:
//
//	api_base_url = "http://127.0.0.1:8080"
//	expired_status = 403
//	request_timeout = "10s"
//
// Note: This package does not read environment variables directly; use the
// config file or flags to configure values.
package config
