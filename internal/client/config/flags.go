package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/crossposter/internal/flagx"
)

var knownFlags = []string{"-a", "-d", "-m", "-l", "-t", "-s3-region", "-s3-endpoint", "-s3-access-key", "-s3-secret-key"}

// parseFlags overlays cfg with command-line flags; see the package doc for
// the list. Unknown arguments are ignored. It panics on malformed values.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ProxyURL, "a", cfg.ProxyURL, "backend proxy base URL")
	fs.StringVar(&cfg.CachePath, "d", cfg.CachePath, "local cache database path")
	fs.StringVar(&cfg.LegacyConfigPath, "m", cfg.LegacyConfigPath, "legacy local config to migrate")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "proxy request timeout (in seconds)")
	fs.StringVar(&cfg.S3Region, "s3-region", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3Endpoint, "s3-endpoint", cfg.S3Endpoint, "S3 endpoint")
	fs.StringVar(&cfg.S3AccessKey, "s3-access-key", cfg.S3AccessKey, "S3 access key")
	fs.StringVar(&cfg.S3SecretKey, "s3-secret-key", cfg.S3SecretKey, "S3 secret key")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
