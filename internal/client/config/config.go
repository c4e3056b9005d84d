package config

import "time"

// Config holds runtime settings for the crossposter CLI.
//
// Fields:
//   - ProxyURL: base URL of the backend proxy.
//   - CachePath: SQLite file holding the local VK token cache.
//   - LegacyConfigPath: pre-encryption local config migrated on first login.
//   - LogLevel: debug, info, warn or error.
//   - RequestTimeout: per-request timeout for proxy calls.
//   - S3*: S3-compatible store for s3:// image references.
type Config struct {
	ProxyURL         string
	CachePath        string
	LegacyConfigPath string
	LogLevel         string
	RequestTimeout   time.Duration
	S3Region         string
	S3Endpoint       string
	S3AccessKey      string
	S3SecretKey      string
}

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.ProxyURL = "http://127.0.0.1:8080"
	c.CachePath = "crossposter.db"
	c.LegacyConfigPath = "crossposter.json"
	c.LogLevel = "info"
	c.RequestTimeout = 60 * time.Second
	c.S3Region = "us-east-1"
}

// LoadConfig applies defaults, then the optional JSON file, then flags.
// Later sources take precedence.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
