package configs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/crossposter/internal/common"
	"github.com/dmitrijs2005/crossposter/internal/dbx"
	"github.com/dmitrijs2005/crossposter/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the user's blob or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.ConfigBlob, error) {
	query :=
		`SELECT user_id, nonce, ciphertext, updated_at FROM user_configs
		 WHERE user_id = $1
		 `

	b := &models.ConfigBlob{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&b.UserID, &b.Nonce, &b.Ciphertext, &b.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return b, nil
}

// Put inserts or replaces the user's blob and fills UpdatedAt.
func (r *PostgresRepository) Put(ctx context.Context, blob *models.ConfigBlob) (*models.ConfigBlob, error) {
	query :=
		`INSERT INTO user_configs (user_id, nonce, ciphertext, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (user_id) DO UPDATE
		 SET nonce = EXCLUDED.nonce, ciphertext = EXCLUDED.ciphertext, updated_at = now()
		 RETURNING updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, blob.UserID, blob.Nonce, blob.Ciphertext).Scan(&blob.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return blob, nil
}
