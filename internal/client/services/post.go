package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/crossposter/internal/logging"
	"github.com/dmitrijs2005/crossposter/internal/models"
)

// ErrNoConfig is returned when the user has no stored publishing config.
var ErrNoConfig = errors.New("no publishing configuration stored")

type ConfigLoader interface {
	LoadConfig(ctx context.Context) (*models.AppConfig, error)
}

type ImageLoader interface {
	Load(ctx context.Context, refs []string) ([]models.Image, error)
}

type Publisher interface {
	Publish(ctx context.Context, draft models.PostDraft, cfg models.AppConfig) (models.PublishResponse, error)
}

// PostService composes a draft from user input and publishes it with the
// user's current remote config.
type PostService struct {
	configs   ConfigLoader
	images    ImageLoader
	publisher Publisher
	log       logging.Logger
}

func NewPostService(configs ConfigLoader, images ImageLoader, publisher Publisher, log logging.Logger) *PostService {
	return &PostService{configs: configs, images: images, publisher: publisher, log: log}
}

// Publish loads the referenced images and publishes content to every
// enabled destination.
func (s *PostService) Publish(ctx context.Context, content string, imageRefs []string) (models.PublishResponse, error) {
	content = strings.TrimSpace(content)
	if content == "" && len(imageRefs) == 0 {
		return models.PublishResponse{}, fmt.Errorf("post is empty")
	}

	cfg, err := s.configs.LoadConfig(ctx)
	if err != nil {
		return models.PublishResponse{}, fmt.Errorf("load config: %w", err)
	}
	if cfg == nil {
		return models.PublishResponse{}, ErrNoConfig
	}

	images, err := s.images.Load(ctx, imageRefs)
	if err != nil {
		return models.PublishResponse{}, fmt.Errorf("load images: %w", err)
	}

	return s.publisher.Publish(ctx, models.PostDraft{Content: content, Images: images}, *cfg)
}
