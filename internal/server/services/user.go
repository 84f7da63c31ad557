// Package services contains server-side business logic. This file implements
// UserService: registration, password login, token validation, rotation of
// refresh tokens, logout and the sign-in history.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/moviesauth/internal/common"
	"github.com/dmitrijs2005/moviesauth/internal/cryptox"
	"github.com/dmitrijs2005/moviesauth/internal/dbx"
	"github.com/dmitrijs2005/moviesauth/internal/logging"
	"github.com/dmitrijs2005/moviesauth/internal/server/auth"
	"github.com/dmitrijs2005/moviesauth/internal/server/config"
	"github.com/dmitrijs2005/moviesauth/internal/server/models"
	"github.com/dmitrijs2005/moviesauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/moviesauth/internal/server/repositories/users"
	"github.com/google/uuid"
)

const (
	MinHistoryPageSize = 2
	MaxHistoryPageSize = 100
)

// TokenPair bundles a short-lived access token and a long-lived refresh
// token. Both carry the same jti.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Identity is what a valid access token resolves to. Roles are read from the
// store at validation time, not taken from the token.
type Identity struct {
	ID          string
	Login       string
	Email       string
	FirstName   string
	LastName    string
	IsSuperuser bool
	Roles       []string
	JTI         string
	Expire      string
}

func (i *Identity) HasRole(name string) bool {
	for _, r := range i.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// Revoker records and checks revoked jtis.
type Revoker interface {
	Revoke(ctx context.Context, jti, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RegisterInput carries a sign-up request. Continent defaults to Europe.
type RegisterInput struct {
	Login     string
	Password  string
	FirstName string
	LastName  string
	Continent models.Continent
}

type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	signer                       *auth.Signer
	revocations                  Revoker
	logger                       logging.Logger
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, signer *auth.Signer, revocations Revoker, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		signer:                       signer,
		revocations:                  revocations,
		logger:                       logger.With("module", "users"),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Register creates an account. The login must be unique across all
// partitions. The store rejects a login claimed on any continent, including
// by a concurrent sign-up that passed the lookup below.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Login = strings.TrimSpace(in.Login)
	if in.Login == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: login and password are required", common.ErrValidation)
	}
	if in.Continent == "" {
		in.Continent = models.DefaultContinent
	}
	if !in.Continent.Valid() {
		return nil, fmt.Errorf("%w: unknown continent %q", common.ErrValidation, in.Continent)
	}

	repo := s.repomanager.Users(s.db)
	taken, err := loginTaken(ctx, repo, in.Login)
	if err != nil {
		s.logger.Error(ctx, "register: lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	if taken {
		return nil, common.ErrDuplicateLogin
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		s.logger.Error(ctx, "register: hashing failed", "error", err)
		return nil, common.ErrorInternal
	}

	user, err := repo.Create(ctx, &models.User{
		Login:        in.Login,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Continent:    in.Continent,
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateLogin) {
			return nil, err
		}
		s.logger.Error(ctx, "register: create failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user registered", "login", user.Login, "continent", string(user.Continent))
	return user, nil
}

// Login verifies credentials, records the sign-in and mints a token pair. An
// unknown login and a wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, login, password, signinData string) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		s.logger.Error(ctx, "login: lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	if !cryptox.CheckPassword(user.PasswordHash, password) {
		return nil, common.ErrInvalidCredentials
	}

	if err := s.repomanager.Logins(s.db).Create(ctx, user.ID, signinData); err != nil {
		s.logger.Warn(ctx, "login: history write failed", "login", user.Login, "error", err)
	}

	return s.generateTokenPair(ctx, user, s.db)
}

// ValidateAccess checks an access token: signature, kind, expiry, then
// revocation, and resolves it against the current state of the store.
func (s *UserService) ValidateAccess(ctx context.Context, token string) (*Identity, error) {
	claims, err := s.checkToken(ctx, token, auth.KindAccess)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, claims.User)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "validate: lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	return &Identity{
		ID:          user.ID,
		Login:       user.Login,
		Email:       user.Login,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		IsSuperuser: user.IsSuperuser,
		Roles:       user.RoleNames(),
		JTI:         claims.ID,
		Expire:      claims.Expire,
	}, nil
}

// Refresh rotates a refresh token: the stored record is locked and deleted
// in the transaction that persists its replacement, so each refresh token
// mints at most one new pair.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if _, err := s.checkToken(ctx, refreshToken, auth.KindRefresh); err != nil {
		return nil, err
	}

	var pair *TokenPair
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.RefreshTokens(tx)

		stored, err := repoTx.Find(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrTokenRevoked
			}
			return fmt.Errorf("error searching refresh token: %w", err)
		}
		if stored.Expires.Before(time.Now().UTC()) {
			return common.ErrTokenExpired
		}
		if err := repoTx.Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}

		user, err := s.repomanager.Users(tx).GetByID(ctx, stored.UserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorNotFound
			}
			return fmt.Errorf("error loading user: %w", err)
		}

		pair, err = s.generateTokenPair(ctx, user, tx)
		return err
	})
	if err != nil {
		if isTokenError(err) || errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		s.logger.Error(ctx, "refresh failed", "error", err)
		return nil, common.ErrorInternal
	}
	return pair, nil
}

// Logout revokes the token's pair for the access-token lifetime, whatever
// the kind of the presented token, and drops the stored refresh token of
// that pair. Expired tokens are accepted.
func (s *UserService) Logout(ctx context.Context, token string) error {
	claims, verdict := s.signer.Decode(token)
	switch verdict {
	case auth.OK, auth.Expired:
	default:
		return common.ErrTokenMalformed
	}

	if err := s.revocations.Revoke(ctx, claims.ID, token, s.accessTokenValidityDuration); err != nil {
		s.logger.Error(ctx, "logout: revoke failed", "jti", claims.ID, "error", err)
		return common.ErrorInternal
	}
	if err := s.repomanager.RefreshTokens(s.db).DeleteByJTI(ctx, claims.ID); err != nil {
		s.logger.Warn(ctx, "logout: refresh token cleanup failed", "jti", claims.ID, "error", err)
	}

	s.logger.Info(ctx, "logged out", "login", claims.User, "jti", claims.ID)
	return nil
}

// LoginHistory returns the user's sign-ins newest first. pageNumber starts
// at 1. An unknown login yields an empty list.
func (s *UserService) LoginHistory(ctx context.Context, login string, pageNumber, pageSize int) ([]models.LoginEvent, error) {
	if pageNumber < 1 {
		return nil, fmt.Errorf("%w: page_number must be >= 1", common.ErrValidation)
	}
	if pageSize < MinHistoryPageSize || pageSize > MaxHistoryPageSize {
		return nil, fmt.Errorf("%w: page_size must be in [%d, %d]", common.ErrValidation, MinHistoryPageSize, MaxHistoryPageSize)
	}

	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return []models.LoginEvent{}, nil
		}
		s.logger.Error(ctx, "history: lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	events, err := s.repomanager.Logins(s.db).ListByUser(ctx, user.ID, pageSize, (pageNumber-1)*pageSize)
	if err != nil {
		s.logger.Error(ctx, "history: list failed", "error", err)
		return nil, common.ErrorInternal
	}
	return events, nil
}

// CreateSuperuser registers an account and grants it superuser rights.
func (s *UserService) CreateSuperuser(ctx context.Context, in RegisterInput) (*models.User, error) {
	user, err := s.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.repomanager.Users(s.db).SetSuperuser(ctx, user.Login, true); err != nil {
		s.logger.Error(ctx, "createsuperuser: grant failed", "error", err)
		return nil, common.ErrorInternal
	}
	user.IsSuperuser = true
	return user, nil
}

// checkToken decodes token, requires the given kind and rejects revoked
// pairs.
func (s *UserService) checkToken(ctx context.Context, token string, kind auth.Kind) (*auth.Claims, error) {
	claims, verdict := s.signer.Decode(token)
	switch verdict {
	case auth.OK:
	case auth.Expired:
		return nil, common.ErrTokenExpired
	default:
		return nil, common.ErrTokenMalformed
	}
	if claims.Kind != kind {
		return nil, common.ErrTokenMalformed
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Error(ctx, "revocation lookup failed", "jti", claims.ID, "error", err)
		return nil, common.ErrBackendUnavailable
	}
	if revoked {
		return nil, common.ErrTokenRevoked
	}
	return claims, nil
}

func (s *UserService) generateTokenPair(ctx context.Context, user *models.User, tx dbx.DBTX) (*TokenPair, error) {
	jti := uuid.NewString()
	roles := user.RoleNames()

	access, _, err := s.signer.Issue(user.Login, roles, jti, auth.KindAccess, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, _, err := s.signer.Issue(user.Login, roles, jti, auth.KindRefresh, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	if err := s.repomanager.RefreshTokens(tx).Create(ctx, user.ID, refresh, jti, s.refreshTokenValidityDuration); err != nil {
		s.logger.Error(ctx, "storing refresh token failed", "error", err)
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// loginTaken reports whether login exists on any continent.
func loginTaken(ctx context.Context, repo users.Repository, login string) (bool, error) {
	_, err := repo.GetUserByLogin(ctx, login)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, common.ErrorNotFound):
		return false, nil
	default:
		return false, err
	}
}

func isTokenError(err error) bool {
	return errors.Is(err, common.ErrTokenMalformed) ||
		errors.Is(err, common.ErrTokenExpired) ||
		errors.Is(err, common.ErrTokenRevoked)
}
