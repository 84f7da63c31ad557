// Package logins keeps the append-only sign-in history.
package logins

import (
	"context"

	"github.com/dmitrijs2005/moviesauth/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID, signinData string) error
	// ListByUser returns events newest first.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.LoginEvent, error)
}
