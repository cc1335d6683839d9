package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) listCatalogs(w http.ResponseWriter, r *http.Request) {
	catalogs, err := h.catalogs.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]catalogDTO, 0, len(catalogs))
	for i := range catalogs {
		out = append(out, catalogToAPI(&catalogs[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.catalogs.GetByID(r.Context(), chi.URLParam(r, "catalogID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, catalogToAPI(catalog))
}
