// Package config loads runtime configuration for the crossposter CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   backend proxy base URL
//	-d string   local cache database path
//	-m string   legacy local config file to migrate
//	-l string   log level
//	-t int      proxy request timeout (seconds)
//	-s3-region, -s3-endpoint, -s3-access-key, -s3-secret-key
//
// # JSON schema
//
//	{
//	  "proxy_url": "https://proxy.example.org",
//	  "cache_path": "/var/lib/crossposter/cache.db",
//	  "request_timeout": "30s",
//	  "s3_endpoint": "http://127.0.0.1:9000"
//	}
package config
