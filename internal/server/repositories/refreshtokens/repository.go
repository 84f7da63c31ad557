// Package refreshtokens declares the server-side repository contract for
// refresh tokens kept in persistent storage.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/moviesauth/internal/server/models"
)

// Repository defines operations for issuing, retrieving and revoking refresh tokens.
type Repository interface {
	// Create stores a refresh token for userID with an expiry of now+validity.
	// jti is the identifier shared with the access token of the same pair.
	Create(ctx context.Context, userID, token, jti string, validity time.Duration) error

	// Find looks up a refresh token by its token string and returns
	// common.ErrorNotFound when it is absent. Inside a transaction the row
	// stays locked until commit, so concurrent rotations of one token
	// serialize.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a refresh token by its token string. Deleting a
	// non-existent token is not an error.
	Delete(ctx context.Context, token string) error

	// DeleteByJTI removes every stored refresh token of the pair identified by jti.
	DeleteByJTI(ctx context.Context, jti string) error
}
