package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/crossposter/internal/dbx"
	"github.com/dmitrijs2005/crossposter/internal/server/repositories/configs"
	"github.com/dmitrijs2005/crossposter/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Configs(db dbx.DBTX) configs.Repository
}
