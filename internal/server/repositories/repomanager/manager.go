package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/moviesauth/internal/dbx"
	"github.com/dmitrijs2005/moviesauth/internal/server/repositories/logins"
	"github.com/dmitrijs2005/moviesauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/moviesauth/internal/server/repositories/roles"
	"github.com/dmitrijs2005/moviesauth/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// path works on the pool and inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Roles(db dbx.DBTX) roles.Repository
	Logins(db dbx.DBTX) logins.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
