// Package publish fans one post draft out to every enabled platform and
// aggregates the per-target results into one response.
package publish

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/crossposter/internal/logging"
	"github.com/dmitrijs2005/crossposter/internal/models"
	"github.com/google/uuid"
)

type TelegramPublisher interface {
	Publish(ctx context.Context, draft models.PostDraft, settings models.TelegramSettings) []models.PostResult
}

type VKPublisher interface {
	Publish(ctx context.Context, draft models.PostDraft, settings models.VKSettings) []models.PostResult
}

// Service is the single publish entry point. It keeps the enabled platform
// configs of the last seen AppConfig.
type Service struct {
	telegram TelegramPublisher
	vk       VKPublisher
	log      logging.Logger

	mu     sync.RWMutex
	active []models.PlatformConfig
}

func NewService(telegram TelegramPublisher, vk VKPublisher, log logging.Logger) *Service {
	return &Service{telegram: telegram, vk: vk, log: log}
}

// UpdateConfig replaces the active platform snapshot with the enabled
// entries of cfg, in cfg order.
func (s *Service) UpdateConfig(cfg models.AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	active := make([]models.PlatformConfig, 0, len(cfg.Platforms))
	for _, pc := range cfg.Platforms {
		if pc.Enabled {
			active = append(active, pc)
		}
	}

	s.mu.Lock()
	s.active = active
	s.mu.Unlock()
	return nil
}

// ActivePlatforms lists the platforms the next Publish would target.
func (s *Service) ActivePlatforms() []models.PlatformKind {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.PlatformKind, 0, len(s.active))
	for _, pc := range s.active {
		out = append(out, pc.Platform)
	}
	return out
}

// Publish resyncs with cfg and publishes draft to every enabled platform
// concurrently. Results keep cfg order and, within a platform, target order.
// Target failures are reported in the response; an error is returned only
// for a structurally invalid cfg.
func (s *Service) Publish(ctx context.Context, draft models.PostDraft, cfg models.AppConfig) (models.PublishResponse, error) {
	if err := s.UpdateConfig(cfg); err != nil {
		return models.PublishResponse{}, fmt.Errorf("publish: %w", err)
	}

	s.mu.RLock()
	active := append([]models.PlatformConfig(nil), s.active...)
	s.mu.RUnlock()

	log := s.log.With("publish_id", uuid.NewString())
	log.Info(ctx, "publish started", "platforms", len(active), "images", len(draft.Images))

	perPlatform := make([][]models.PostResult, len(active))
	var wg sync.WaitGroup
	for i, pc := range active {
		i, pc := i, pc
		wg.Add(1)
		go func() {
			defer wg.Done()
			perPlatform[i] = s.dispatch(ctx, log, draft, pc)
		}()
	}
	wg.Wait()

	var results []models.PostResult
	for _, rs := range perPlatform {
		results = append(results, rs...)
	}

	resp := models.NewPublishResponse(results)
	log.Info(ctx, "publish finished", "success", resp.TotalSuccess, "failure", resp.TotalFailure)
	return resp, nil
}

func (s *Service) dispatch(ctx context.Context, log logging.Logger, draft models.PostDraft, pc models.PlatformConfig) (results []models.PostResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error(ctx, "platform adapter panicked", "platform", pc.Platform, "panic", r)
			results = []models.PostResult{
				models.Failure(pc.Platform, "", fmt.Sprintf("%s: internal error: %v", pc.Platform, r)),
			}
		}
	}()

	switch settings := pc.Settings.(type) {
	case models.TelegramSettings:
		return s.telegram.Publish(ctx, draft, settings)
	case models.VKSettings:
		return s.vk.Publish(ctx, draft, settings)
	default:
		return []models.PostResult{models.Failure(pc.Platform, "", fmt.Sprintf("%s: unsupported settings %T", pc.Platform, settings))}
	}
}
