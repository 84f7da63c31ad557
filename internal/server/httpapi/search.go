package httpapi

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/moviesauth/internal/common"
	"github.com/dmitrijs2005/moviesauth/internal/server/search"
	"github.com/go-chi/chi/v5"
)

type listResponse[T any] struct {
	Result []T `json:"result"`
}

// mountReader registers list, search and detail routes for one kind.
func mountReader[T search.Document](r chi.Router, prefix string, rd Reader[T]) {
	if rd == nil {
		return
	}
	r.Route(prefix, func(r chi.Router) {
		r.Get("/", listHandler(rd, false))
		r.Get("/search", listHandler(rd, true))
		r.Get("/{id}", detailHandler(rd))
	})
}

func listHandler[T search.Document](rd Reader[T], requireQuery bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		pageNumber, err := intParam(q.Get("page_number"), 0)
		if err != nil {
			writeError(w, err)
			return
		}
		pageSize, err := intParam(q.Get("page_size"), search.MaxPageSize)
		if err != nil {
			writeError(w, err)
			return
		}
		p := search.ListParams{
			PageNumber: pageNumber,
			PageSize:   pageSize,
			Sort:       q.Get("sort"),
			Order:      q.Get("order"),
			Query:      q.Get("query"),
		}
		if requireQuery && p.Query == "" {
			writeError(w, fmt.Errorf("%w: query is required", common.ErrValidation))
			return
		}

		items, err := rd.List(r.Context(), p)
		if err != nil {
			writeError(w, err)
			return
		}
		if items == nil {
			items = []T{}
		}
		writeJSON(w, http.StatusOK, listResponse[T]{Result: items})
	}
}

func detailHandler[T search.Document](rd Reader[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		item, err := rd.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		if item == nil {
			writeError(w, fmt.Errorf("%w: %s %s", common.ErrorNotFound, search.KindOf[T](), id))
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}
