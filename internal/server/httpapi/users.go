package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/moviesauth/internal/common"
	"github.com/dmitrijs2005/moviesauth/internal/server/models"
	"github.com/dmitrijs2005/moviesauth/internal/server/services"
)

type signupRequest struct {
	Login     string `json:"login"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Continent string `json:"continent,omitempty"`
}

type userResponse struct {
	ID        string `json:"id"`
	Login     string `json:"login"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Continent string `json:"continent"`
}

type signinRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type tokenPairResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

type identityResponse struct {
	User        string   `json:"user"`
	Expire      string   `json:"expire"`
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	IsSuperuser bool     `json:"is_superuser"`
	Roles       []string `json:"roles"`
	JTI         string   `json:"jti"`
}

type signinEvent struct {
	LoginAt    time.Time `json:"login_at"`
	SigninData string    `json:"signin_data"`
}

func pairResponse(p *services.TokenPair) tokenPairResponse {
	return tokenPairResponse{Token: p.AccessToken, RefreshToken: p.RefreshToken}
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var in signupRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	u, err := s.users.Register(r.Context(), services.RegisterInput{
		Login:     in.Login,
		Password:  in.Password,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Continent: models.Continent(in.Continent),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{
		ID: u.ID, Login: u.Login, FirstName: u.FirstName, LastName: u.LastName, Continent: string(u.Continent),
	})
}

func (s *Server) signin(w http.ResponseWriter, r *http.Request) {
	var in signinRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	pair, err := s.users.Login(r.Context(), in.Login, in.Password, r.UserAgent())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pairResponse(pair))
}

// tokenFrom reads the token from the JSON body, falling back to the
// Authorization header when the body carries none.
func tokenFrom(r *http.Request) (string, error) {
	var in tokenRequest
	if r.Body != nil && r.ContentLength != 0 {
		err := json.NewDecoder(r.Body).Decode(&in)
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("%w: %v", common.ErrValidation, err)
		}
	}
	if in.Token == "" {
		in.Token = bearerToken(r)
	}
	if in.Token == "" {
		return "", fmt.Errorf("%w: token is required", common.ErrValidation)
	}
	return in.Token, nil
}

func (s *Server) checkToken(w http.ResponseWriter, r *http.Request) {
	token, err := tokenFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := s.users.ValidateAccess(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}
	roles := id.Roles
	if roles == nil {
		roles = []string{}
	}
	writeJSON(w, http.StatusOK, identityResponse{
		User:        id.Login,
		Expire:      id.Expire,
		ID:          id.ID,
		Email:       id.Email,
		FirstName:   id.FirstName,
		LastName:    id.LastName,
		IsSuperuser: id.IsSuperuser,
		Roles:       roles,
		JTI:         id.JTI,
	})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	token, err := tokenFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	pair, err := s.users.Refresh(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pairResponse(pair))
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	token, err := tokenFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.users.Logout(r.Context(), token); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"logout": "Successfully!"})
}

func (s *Server) signinHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	login := q.Get("login")
	if login == "" {
		writeError(w, fmt.Errorf("%w: login is required", common.ErrValidation))
		return
	}
	pageNumber, err := intParam(q.Get("page_number"), 1)
	if err != nil {
		writeError(w, err)
		return
	}
	pageSize, err := intParam(q.Get("page_size"), 50)
	if err != nil {
		writeError(w, err)
		return
	}

	events, err := s.users.LoginHistory(r.Context(), login, pageNumber, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]signinEvent, 0, len(events))
	for _, e := range events {
		out = append(out, signinEvent{LoginAt: e.LoginAt, SigninData: e.SigninData})
	}
	writeJSON(w, http.StatusOK, out)
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", common.ErrValidation, raw)
	}
	return n, nil
}
