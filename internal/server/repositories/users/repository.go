// Package users declares the user repository and its PostgreSQL
// implementation over the continent-partitioned users table.
package users

import (
	"context"

	"github.com/dmitrijs2005/moviesauth/internal/server/models"
)

// Repository is the persistence contract for accounts. Lookups load the
// user's roles eagerly and return common.ErrorNotFound when no row matches.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.User, error)
	SetSuperuser(ctx context.Context, login string, isSuperuser bool) error
}
