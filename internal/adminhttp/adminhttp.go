// Package adminhttp exposes a read-only JSON view of buffer-pool occupancy
// and catalog contents, the domain-stack admin surface SPEC_FULL.md adds on
// top of spec.md's core.
//
// Grounded on mnohosten-laura-db's pkg/server/handlers package for route
// and response-envelope idiom (chi.URLParam for path params, a
// writeSuccess/writeError pair producing a uniform {ok, result} or
// {ok, message} JSON body) adapted to a single handler type closing
// over the engine's buffer manager and catalog instead of a database.
package adminhttp

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Carina-TzuHsuan/CS564/internal/bufmgr"
	"github.com/Carina-TzuHsuan/CS564/internal/catalog"
)

// Handlers holds the read-only state this admin surface reports on.
type Handlers struct {
	bm  *bufmgr.BufMgr
	cat *catalog.Catalog
}

// New creates Handlers reporting on bm and cat.
func New(bm *bufmgr.BufMgr, cat *catalog.Catalog) *Handlers {
	return &Handlers{bm: bm, cat: cat}
}

// Router builds the chi router exposing this package's endpoints.
func Router(bm *bufmgr.BufMgr, cat *catalog.Catalog) *chi.Mux {
	h := New(bm, cat)
	r := chi.NewRouter()
	r.Get("/frames", h.Frames)
	r.Get("/relations/{relation}", h.Relation)
	return r
}

// Frames reports every buffer-pool frame's occupancy and pin state, the Go
// admin-surface equivalent of original_source/CS564_stage3/buf.C's
// BufMgr::printSelf.
func (h *Handlers) Frames(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, h.bm.DebugFrames())
}

// Relation reports one relation's catalog descriptor.
func (h *Handlers) Relation(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "relation")
	if name == "" {
		writeError(w, http.StatusBadRequest, "relation name is required")
		return
	}
	desc, err := h.cat.GetRelInfo(name)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeSuccess(w, desc)
}

func writeSuccess(w http.ResponseWriter, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":     true,
		"result": result,
	})
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":      false,
		"message": message,
	})
}
