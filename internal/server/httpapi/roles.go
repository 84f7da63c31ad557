package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/moviesauth/internal/server/models"
	"github.com/go-chi/chi/v5"
)

type roleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type roleResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func toRoleResponse(r *models.Role) roleResponse {
	return roleResponse{ID: r.ID, Name: r.Name, Description: r.Description}
}

func (s *Server) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.roles.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]roleResponse, 0, len(roles))
	for i := range roles {
		out = append(out, toRoleResponse(&roles[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getRole(w http.ResponseWriter, r *http.Request) {
	role, err := s.roles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoleResponse(role))
}

func (s *Server) createRole(w http.ResponseWriter, r *http.Request) {
	var in roleRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	role, err := s.roles.Create(r.Context(), in.Name, in.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRoleResponse(role))
}

func (s *Server) updateRole(w http.ResponseWriter, r *http.Request) {
	var in roleRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	role, err := s.roles.Update(r.Context(), chi.URLParam(r, "id"), in.Name, in.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoleResponse(role))
}

func (s *Server) deleteRole(w http.ResponseWriter, r *http.Request) {
	if err := s.roles.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) assignRole(w http.ResponseWriter, r *http.Request) {
	if err := s.roles.AssignToUser(r.Context(), chi.URLParam(r, "login"), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) revokeRole(w http.ResponseWriter, r *http.Request) {
	if err := s.roles.RevokeFromUser(r.Context(), chi.URLParam(r, "login"), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
