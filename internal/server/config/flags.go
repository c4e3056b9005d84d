package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/crossposter/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string             HTTP bind address (e.g., ":8080")
//	-d string             PostgreSQL DSN
//	-s string             JWT HMAC secret key
//	-t int                access token validity, minutes
//	-l string             log level
//	-tg-endpoint string   Telegram Bot API endpoint template
//	-vk-api string        VK method endpoint
//	-vk-version string    VK API version
//	-vk-oauth string      VK ID token endpoint
//	-vk-client-id string  VK app id
//	-tg-token string      fallback Telegram bot token
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-s", "-t", "-l", "-tg-endpoint", "-vk-api", "-vk-version", "-vk-oauth", "-vk-client-id", "-tg-token",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.TelegramAPIEndpoint, "tg-endpoint", config.TelegramAPIEndpoint, "Telegram Bot API endpoint")
	fs.StringVar(&config.VKAPIURL, "vk-api", config.VKAPIURL, "VK API URL")
	fs.StringVar(&config.VKAPIVersion, "vk-version", config.VKAPIVersion, "VK API version")
	fs.StringVar(&config.VKOAuthURL, "vk-oauth", config.VKOAuthURL, "VK ID token endpoint")
	fs.StringVar(&config.VKClientID, "vk-client-id", config.VKClientID, "VK app id")
	fs.StringVar(&config.TelegramBotToken, "tg-token", config.TelegramBotToken, "fallback Telegram bot token")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
}
