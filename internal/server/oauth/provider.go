// Package oauth implements third-party sign-in: authorize URL construction,
// code exchange and profile retrieval for each supported provider.
package oauth

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/moviesauth/internal/common"
)

// Profile is the subset of the provider's account data the service keeps.
type Profile struct {
	ID          string
	Login       string
	Email       string
	FirstName   string
	LastName    string
	DisplayName string
}

type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for the user's profile. Errors
	// wrap common.ErrProviderFailure.
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// Registry resolves providers by name.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: provider %q", common.ErrUnsupported, name)
	}
	return p, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func failure(provider, step string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w: %s", provider, common.ErrProviderFailure, step)
	}
	return fmt.Errorf("%s: %w: %s: %v", provider, common.ErrProviderFailure, step, err)
}
