package oauth

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	"google.golang.org/api/idtoken"
)

type Google struct {
	cfg      *oauth2.Config
	validate func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

func NewGoogle(clientID, clientSecret, redirectURI string) *Google {
	return &Google{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Endpoint:     endpoints.Google,
			Scopes:       []string{"openid", "email", "profile"},
		},
		validate: idtoken.Validate,
	}
}

func (g *Google) Name() string { return "google" }

func (g *Google) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state)
}

// Exchange validates the id_token returned alongside the access token; its
// claims carry the profile, so no extra request is made.
func (g *Google) Exchange(ctx context.Context, code string) (*Profile, error) {
	if code == "" {
		return nil, failure(g.Name(), "code not provided", nil)
	}
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, failure(g.Name(), "token exchange", err)
	}

	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return nil, failure(g.Name(), "token exchange", errors.New("no id_token in response"))
	}
	payload, err := g.validate(ctx, raw, g.cfg.ClientID)
	if err != nil {
		return nil, failure(g.Name(), "id token validation", err)
	}

	claim := func(k string) string {
		s, _ := payload.Claims[k].(string)
		return s
	}
	return &Profile{
		ID:          payload.Subject,
		Login:       claim("email"),
		Email:       claim("email"),
		FirstName:   claim("given_name"),
		LastName:    claim("family_name"),
		DisplayName: claim("name"),
	}, nil
}
