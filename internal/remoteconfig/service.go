// Package remoteconfig loads and saves the user's AppConfig through the
// proxy. The config is sealed with the session master key before it leaves
// the client; VK credentials are mirrored into the local credential cache.
package remoteconfig

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/crossposter/internal/common"
	"github.com/dmitrijs2005/crossposter/internal/cryptox"
	"github.com/dmitrijs2005/crossposter/internal/logging"
	"github.com/dmitrijs2005/crossposter/internal/models"
	"github.com/dmitrijs2005/crossposter/internal/normalize"
	"github.com/dmitrijs2005/crossposter/internal/proxyapi"
)

// Transport stores and fetches the sealed config.
type Transport interface {
	GetConfig(ctx context.Context) (*proxyapi.ConfigBlob, error)
	PutConfig(ctx context.Context, blob proxyapi.ConfigBlob) error
}

// Keys is the session view the service needs.
type Keys interface {
	MasterKey() ([]byte, error)
	UserID() (string, bool)
}

// Credentials is the VK credential cache.
type Credentials interface {
	MergeWithCache(ctx context.Context, settings models.VKSettings) models.VKSettings
	Persist(ctx context.Context, settings models.VKSettings)
	Clear(ctx context.Context)
	Refresh(ctx context.Context, settings models.VKSettings) (models.VKSettings, bool)
}

// ErrReauthorize means the VK token could not be refreshed and the user has
// to authorize the app again.
var ErrReauthorize = errors.New("vk authorization required")

type Service struct {
	transport Transport
	keys      Keys
	creds     Credentials
	log       logging.Logger
}

func NewService(transport Transport, keys Keys, creds Credentials, log logging.Logger) *Service {
	return &Service{transport: transport, keys: keys, creds: creds, log: log}
}

// LoadConfig fetches, decrypts and normalizes the stored config. VK fields
// missing remotely are backfilled from the local cache. It returns nil when
// nothing is stored yet.
func (s *Service) LoadConfig(ctx context.Context) (*models.AppConfig, error) {
	key, aad, err := s.sessionKey()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	blob, err := s.transport.GetConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if blob == nil {
		return nil, nil
	}

	raw, err := cryptox.OpenRaw(cryptox.Sealed{Nonce: blob.Nonce, Ciphertext: blob.Ciphertext}, key, aad)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg, err := normalize.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	pc, vk := cfg.VK()
	pc.Settings = normalize.VK(s.creds.MergeWithCache(ctx, vk))
	cfg = cfg.WithPlatform(pc)
	return &cfg, nil
}

// SaveConfig normalizes cfg, syncs the VK cache and stores the sealed
// result. It returns the normalized config that was saved.
func (s *Service) SaveConfig(ctx context.Context, cfg models.AppConfig) (models.AppConfig, error) {
	key, aad, err := s.sessionKey()
	if err != nil {
		return models.AppConfig{}, err
	}
	defer common.WipeByteArray(key)

	cfg = normalize.Config(cfg)
	if err := cfg.Validate(); err != nil {
		return models.AppConfig{}, fmt.Errorf("save config: %w", err)
	}

	if _, vk := cfg.VK(); vk.IsEmpty() {
		s.creds.Clear(ctx)
	} else {
		s.creds.Persist(ctx, vk)
	}

	sealed, err := cryptox.Seal(cfg, key, aad)
	if err != nil {
		return models.AppConfig{}, fmt.Errorf("save config: %w", err)
	}
	if err := s.transport.PutConfig(ctx, proxyapi.ConfigBlob{Nonce: sealed.Nonce, Ciphertext: sealed.Ciphertext}); err != nil {
		return models.AppConfig{}, fmt.Errorf("save config: %w", err)
	}

	s.log.Info(ctx, "config saved", "platforms", len(cfg.Platforms))
	return cfg, nil
}

// MigrateLegacyLocalConfig uploads a pre-encryption local config file when
// the user has no remote config yet, then renames the file so it is not
// migrated twice. It reports whether a migration happened.
func (s *Service) MigrateLegacyLocalConfig(ctx context.Context, path string) (bool, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read legacy config: %w", err)
	}

	existing, err := s.LoadConfig(ctx)
	if err != nil {
		return false, err
	}
	if existing != nil {
		s.log.Info(ctx, "remote config present, legacy file left untouched", "path", path)
		return false, nil
	}

	cfg, err := normalize.Normalize(raw)
	if err != nil {
		return false, fmt.Errorf("legacy config: %w", err)
	}
	if _, err := s.SaveConfig(ctx, cfg); err != nil {
		return false, err
	}

	if err := os.Rename(path, path+".migrated"); err != nil {
		s.log.Warn(ctx, "legacy config migrated but not renamed", "path", path, "error", err)
	}
	s.log.Info(ctx, "legacy config migrated", "path", path)
	return true, nil
}

// RefreshVK exchanges the VK refresh token and saves the updated config.
// A failed refresh returns ErrReauthorize.
func (s *Service) RefreshVK(ctx context.Context) (models.AppConfig, error) {
	cfg, err := s.LoadConfig(ctx)
	if err != nil {
		return models.AppConfig{}, err
	}
	if cfg == nil {
		c := normalize.Value(nil)
		cfg = &c
	}

	pc, vk := cfg.VK()
	updated, ok := s.creds.Refresh(ctx, vk)
	if !ok {
		return models.AppConfig{}, ErrReauthorize
	}
	pc.Settings = updated
	return s.SaveConfig(ctx, cfg.WithPlatform(pc))
}

func (s *Service) sessionKey() (key, aad []byte, err error) {
	userID, ok := s.keys.UserID()
	if !ok {
		return nil, nil, common.ErrNotAuthenticated
	}
	key, err = s.keys.MasterKey()
	if err != nil {
		return nil, nil, err
	}
	return key, []byte(userID), nil
}
