package oauth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/dmitrijs2005/moviesauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"
)

func newGoogleWithStub(t *testing.T, tokenBody string) *Google {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, tokenBody)
	}))
	t.Cleanup(srv.Close)

	g := NewGoogle("gid.apps.googleusercontent.com", "secret", "http://localhost/callback")
	g.cfg.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	return g
}

func TestGoogle_AuthCodeURL(t *testing.T) {
	g := NewGoogle("gid", "secret", "http://localhost/callback")

	u, err := url.Parse(g.AuthCodeURL("s1"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "openid email profile", u.Query().Get("scope"))
	assert.Equal(t, "s1", u.Query().Get("state"))
}

func TestGoogle_Exchange(t *testing.T) {
	g := newGoogleWithStub(t, `{"access_token":"at","token_type":"Bearer","id_token":"raw-id-token"}`)

	var gotToken, gotAudience string
	g.validate = func(_ context.Context, idToken, audience string) (*idtoken.Payload, error) {
		gotToken, gotAudience = idToken, audience
		return &idtoken.Payload{
			Subject: "1177",
			Claims: map[string]any{
				"email":       "ann@gmail.com",
				"given_name":  "Ann",
				"family_name": "Lee",
				"name":        "Ann Lee",
			},
		}, nil
	}

	p, err := g.Exchange(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "raw-id-token", gotToken)
	assert.Equal(t, "gid.apps.googleusercontent.com", gotAudience)
	assert.Equal(t, &Profile{ID: "1177", Login: "ann@gmail.com", Email: "ann@gmail.com", FirstName: "Ann", LastName: "Lee", DisplayName: "Ann Lee"}, p)
}

func TestGoogle_Exchange_Failures(t *testing.T) {
	g := newGoogleWithStub(t, `{"access_token":"at","token_type":"Bearer"}`)
	_, err := g.Exchange(context.Background(), "code")
	assert.ErrorIs(t, err, common.ErrProviderFailure)
	assert.Contains(t, err.Error(), "no id_token")

	g = newGoogleWithStub(t, `{"access_token":"at","token_type":"Bearer","id_token":"forged"}`)
	g.validate = func(context.Context, string, string) (*idtoken.Payload, error) {
		return nil, errors.New("idtoken: invalid token")
	}
	_, err = g.Exchange(context.Background(), "code")
	assert.ErrorIs(t, err, common.ErrProviderFailure)
	assert.Contains(t, err.Error(), "google")

	_, err = g.Exchange(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrProviderFailure)
}
