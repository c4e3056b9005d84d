package services

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/crossposter/internal/logging"
	"github.com/dmitrijs2005/crossposter/internal/models"
	"github.com/dmitrijs2005/crossposter/internal/normalize"
)

type RemoteConfig interface {
	LoadConfig(ctx context.Context) (*models.AppConfig, error)
	SaveConfig(ctx context.Context, cfg models.AppConfig) (models.AppConfig, error)
	MigrateLegacyLocalConfig(ctx context.Context, path string) (bool, error)
	RefreshVK(ctx context.Context) (models.AppConfig, error)
}

// ConfigService manages the user's encrypted publishing config.
type ConfigService struct {
	remote RemoteConfig
	log    logging.Logger
}

func NewConfigService(remote RemoteConfig, log logging.Logger) *ConfigService {
	return &ConfigService{remote: remote, log: log}
}

// Import reads a config document in any accepted shape, normalizes it and
// stores it remotely.
func (s *ConfigService) Import(ctx context.Context, path string) (models.AppConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.AppConfig{}, fmt.Errorf("read %s: %w", path, err)
	}
	cfg, err := normalize.Normalize(raw)
	if err != nil {
		return models.AppConfig{}, err
	}
	return s.remote.SaveConfig(ctx, cfg)
}

// Current returns the stored config, or ErrNoConfig.
func (s *ConfigService) Current(ctx context.Context) (models.AppConfig, error) {
	cfg, err := s.remote.LoadConfig(ctx)
	if err != nil {
		return models.AppConfig{}, err
	}
	if cfg == nil {
		return models.AppConfig{}, ErrNoConfig
	}
	return *cfg, nil
}

// MigrateLegacy uploads a pre-encryption local config once. Missing files
// are not an error.
func (s *ConfigService) MigrateLegacy(ctx context.Context, path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	return s.remote.MigrateLegacyLocalConfig(ctx, path)
}

func (s *ConfigService) RefreshVK(ctx context.Context) (models.AppConfig, error) {
	return s.remote.RefreshVK(ctx)
}

// Summary renders cfg for display without any secret.
func Summary(cfg models.AppConfig) string {
	var b strings.Builder
	for _, pc := range cfg.Platforms {
		state := "disabled"
		if pc.Enabled {
			state = "enabled"
		}
		fmt.Fprintf(&b, "%s (%s)\n", pc.Platform, state)

		switch s := pc.Settings.(type) {
		case models.TelegramSettings:
			for _, ch := range s.Channels {
				fmt.Fprintf(&b, "  %s %s\n", mark(ch.IsSelected), ch.DisplayName())
			}
		case models.VKSettings:
			for _, c := range s.Communities {
				fmt.Fprintf(&b, "  %s %s (%s)\n", mark(c.IsSelected), c.DisplayName(), c.OwnerID)
			}
		}
	}
	return b.String()
}

func mark(selected bool) string {
	if selected {
		return "[x]"
	}
	return "[ ]"
}
