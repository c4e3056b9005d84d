package config

import "github.com/dmitrijs2005/crossposter/internal/flagx"

// Environment variables read by parseEnv.
const (
	EnvDatabaseDSN = "CROSSPOSTER_DATABASE_DSN"
	EnvSecretKey   = "CROSSPOSTER_SECRET_KEY"
	EnvVKClientID  = "CROSSPOSTER_VK_CLIENT_ID"
	EnvBotToken    = "CROSSPOSTER_TELEGRAM_BOT_TOKEN"
)

// parseEnv overlays secrets that are usually injected by the runtime.
func parseEnv(cfg *Config) {
	flagx.FromEnv(&cfg.DatabaseDSN, EnvDatabaseDSN)
	flagx.FromEnv(&cfg.SecretKey, EnvSecretKey)
	flagx.FromEnv(&cfg.VKClientID, EnvVKClientID)
	flagx.FromEnv(&cfg.TelegramBotToken, EnvBotToken)
}
