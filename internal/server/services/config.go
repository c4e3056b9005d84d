package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/crossposter/internal/common"
	"github.com/dmitrijs2005/crossposter/internal/dbx"
	"github.com/dmitrijs2005/crossposter/internal/server/models"
	"github.com/dmitrijs2005/crossposter/internal/server/repositories/repomanager"
)

// ConfigService stores each user's sealed publishing config. The server
// cannot read it.
type ConfigService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewConfigService(db *sql.DB, m repomanager.RepositoryManager) *ConfigService {
	return &ConfigService{db: db, repomanager: m}
}

// Get returns the stored blob or common.ErrorNotFound.
func (s *ConfigService) Get(ctx context.Context, userID string) (*models.ConfigBlob, error) {
	b, err := s.repomanager.Configs(s.db).Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	return b, nil
}

// Put replaces the user's blob. Re-sending the stored blob is a no-op that
// keeps its timestamp.
func (s *ConfigService) Put(ctx context.Context, userID string, nonce, ciphertext []byte) (*models.ConfigBlob, error) {
	if len(nonce) == 0 || len(ciphertext) == 0 {
		return nil, fmt.Errorf("%w: nonce and ciphertext are required", common.ErrBadRequest)
	}

	out, err := dbx.InTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) (*models.ConfigBlob, error) {
		repo := s.repomanager.Configs(tx)

		current, err := repo.Get(ctx, userID)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		if current != nil && bytes.Equal(current.Nonce, nonce) && bytes.Equal(current.Ciphertext, ciphertext) {
			return current, nil
		}
		return repo.Put(ctx, &models.ConfigBlob{UserID: userID, Nonce: nonce, Ciphertext: ciphertext})
	})
	if err != nil {
		return nil, fmt.Errorf("error saving config: %w", err)
	}
	return out, nil
}
