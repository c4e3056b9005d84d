package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/crossposter/internal/flagx"
	"github.com/dmitrijs2005/crossposter/internal/timex"
)

// JsonConfig is the on-disk shape; durations accept "12h" or nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	TelegramAPIEndpoint         string         `json:"telegram_api_endpoint"`
	TelegramBotToken            string         `json:"telegram_bot_token"`
	VKAPIURL                    string         `json:"vk_api_url"`
	VKAPIVersion                string         `json:"vk_api_version"`
	VKOAuthURL                  string         `json:"vk_oauth_url"`
	VKClientID                  string         `json:"vk_client_id"`
	MaxUploadBytes              int64          `json:"max_upload_bytes"`
	LogLevel                    string         `json:"log_level"`
}

// parseJson overlays config with the fields present in the -c/-config file.
// If the file cannot be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	flagx.SetIfNotEmpty(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	flagx.SetIfNotEmpty(&config.DatabaseDSN, c.DatabaseDSN)
	flagx.SetIfNotEmpty(&config.SecretKey, c.SecretKey)
	flagx.SetIfNotEmpty(&config.TelegramAPIEndpoint, c.TelegramAPIEndpoint)
	flagx.SetIfNotEmpty(&config.TelegramBotToken, c.TelegramBotToken)
	flagx.SetIfNotEmpty(&config.VKAPIURL, c.VKAPIURL)
	flagx.SetIfNotEmpty(&config.VKAPIVersion, c.VKAPIVersion)
	flagx.SetIfNotEmpty(&config.VKOAuthURL, c.VKOAuthURL)
	flagx.SetIfNotEmpty(&config.VKClientID, c.VKClientID)
	flagx.SetIfNotEmpty(&config.LogLevel, c.LogLevel)
	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.MaxUploadBytes > 0 {
		config.MaxUploadBytes = c.MaxUploadBytes
	}
}
