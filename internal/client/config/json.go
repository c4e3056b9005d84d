package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/crossposter/internal/flagx"
	"github.com/dmitrijs2005/crossposter/internal/timex"
)

// JsonConfig is the on-disk shape; durations accept "30s" or nanoseconds.
type JsonConfig struct {
	ProxyURL         string         `json:"proxy_url"`
	CachePath        string         `json:"cache_path"`
	LegacyConfigPath string         `json:"legacy_config_path"`
	LogLevel         string         `json:"log_level"`
	RequestTimeout   timex.Duration `json:"request_timeout"`
	S3Region         string         `json:"s3_region"`
	S3Endpoint       string         `json:"s3_endpoint"`
	S3AccessKey      string         `json:"s3_access_key"`
	S3SecretKey      string         `json:"s3_secret_key"`
}

// parseJson overlays cfg with the fields present in the -c/-config file.
// It panics when the file cannot be read or parsed.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	flagx.SetIfNotEmpty(&cfg.ProxyURL, jc.ProxyURL)
	flagx.SetIfNotEmpty(&cfg.CachePath, jc.CachePath)
	flagx.SetIfNotEmpty(&cfg.LegacyConfigPath, jc.LegacyConfigPath)
	flagx.SetIfNotEmpty(&cfg.LogLevel, jc.LogLevel)
	flagx.SetIfNotEmpty(&cfg.S3Region, jc.S3Region)
	flagx.SetIfNotEmpty(&cfg.S3Endpoint, jc.S3Endpoint)
	flagx.SetIfNotEmpty(&cfg.S3AccessKey, jc.S3AccessKey)
	flagx.SetIfNotEmpty(&cfg.S3SecretKey, jc.S3SecretKey)
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
}
