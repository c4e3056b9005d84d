// Package users persists proxy accounts: login, client-side salt and the
// master key verifier. Passwords never reach the server.
package users

import (
	"context"

	"github.com/dmitrijs2005/crossposter/internal/server/models"
)

// Repository returns common.ErrLoginAlreadyTaken from Create on a duplicate
// login and common.ErrorNotFound from GetUserByLogin for an unknown one.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}
