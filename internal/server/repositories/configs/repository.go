package configs

import (
	"context"

	"github.com/dmitrijs2005/crossposter/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, userID string) (*models.ConfigBlob, error)
	Put(ctx context.Context, blob *models.ConfigBlob) (*models.ConfigBlob, error)
}
