package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/moviesauth/internal/common"
	"github.com/dmitrijs2005/moviesauth/internal/cryptox"
	"github.com/dmitrijs2005/moviesauth/internal/logging"
	"github.com/dmitrijs2005/moviesauth/internal/server/models"
	"github.com/dmitrijs2005/moviesauth/internal/server/oauth"
	"github.com/google/uuid"
)

// ProviderResolver looks up an identity provider by name.
type ProviderResolver interface {
	Get(name string) (oauth.Provider, error)
}

// OAuthService signs users in through third-party identity providers. The
// first sign-in with a provider account creates a local user linked to it
// by external id.
type OAuthService struct {
	users     *UserService
	providers ProviderResolver
	logger    logging.Logger
}

func NewOAuthService(users *UserService, providers ProviderResolver, logger logging.Logger) *OAuthService {
	return &OAuthService{users: users, providers: providers, logger: logger.With("module", "oauth")}
}

// AuthorizeURL returns the provider's consent page URL and the state value
// the callback must echo back.
func (s *OAuthService) AuthorizeURL(provider string) (string, string, error) {
	p, err := s.providers.Get(provider)
	if err != nil {
		return "", "", err
	}
	state, err := common.MakeRandHexString(16)
	if err != nil {
		return "", "", common.ErrorInternal
	}
	return p.AuthCodeURL(state), state, nil
}

// Callback exchanges the authorization code and signs the linked user in.
func (s *OAuthService) Callback(ctx context.Context, provider, code, signinData string) (*TokenPair, error) {
	p, err := s.providers.Get(provider)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", common.ErrValidation)
	}

	profile, err := p.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn(ctx, "code exchange failed", "provider", provider, "error", err)
		return nil, err
	}

	user, err := s.linkedUser(ctx, provider, profile)
	if err != nil {
		return nil, err
	}

	repos := s.users.repomanager
	if err := repos.Logins(s.users.db).Create(ctx, user.ID, provider+": "+signinData); err != nil {
		s.logger.Warn(ctx, "history write failed", "login", user.Login, "error", err)
	}
	return s.users.generateTokenPair(ctx, user, s.users.db)
}

func (s *OAuthService) linkedUser(ctx context.Context, provider string, profile *oauth.Profile) (*models.User, error) {
	externalID := provider + ":" + profile.ID
	repo := s.users.repomanager.Users(s.users.db)

	user, err := repo.GetByExternalID(ctx, externalID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		s.logger.Error(ctx, "external id lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	// The account has no password of its own; a random one is stored so the
	// password login path can never match it.
	hash, err := cryptox.HashPassword(uuid.NewString())
	if err != nil {
		return nil, common.ErrorInternal
	}

	login := preferredLogin(profile, externalID)
	taken, err := loginTaken(ctx, repo, login)
	if err != nil {
		s.logger.Error(ctx, "login lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	if taken {
		login = externalID
	}

	candidate := &models.User{
		Login:        login,
		PasswordHash: hash,
		FirstName:    profile.FirstName,
		LastName:     profile.LastName,
		Continent:    models.DefaultContinent,
		ExternalID:   &externalID,
	}
	if profile.Email != "" {
		email := profile.Email
		candidate.ExternalEmail = &email
	}

	user, err = repo.Create(ctx, candidate)
	if errors.Is(err, common.ErrDuplicateLogin) && candidate.Login != externalID {
		candidate.Login = externalID
		user, err = repo.Create(ctx, candidate)
	}
	if err != nil {
		s.logger.Error(ctx, "linking provider account failed", "provider", provider, "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "provider account linked", "provider", provider, "login", user.Login)
	return user, nil
}

func preferredLogin(p *oauth.Profile, fallback string) string {
	for _, v := range []string{p.Email, p.Login, p.DisplayName} {
		if v != "" {
			return v
		}
	}
	return fallback
}
