package httpapi

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/moviesauth/internal/common"
	"github.com/go-chi/chi/v5"
)

const stateCookie = "oauth_state"

func (s *Server) oauthLogin(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	target, state, err := s.oauth.AuthorizeURL(provider)
	if err != nil {
		writeError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/api/v1/oauth/" + provider,
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *Server) oauthCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	q := r.URL.Query()

	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || c.Value != q.Get("state") {
		writeError(w, fmt.Errorf("%w: state mismatch", common.ErrValidation))
		return
	}

	pair, err := s.oauth.Callback(r.Context(), provider, q.Get("code"), r.UserAgent())
	if err != nil {
		writeError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/api/v1/oauth/" + provider, MaxAge: -1})
	writeJSON(w, http.StatusOK, pairResponse(pair))
}
