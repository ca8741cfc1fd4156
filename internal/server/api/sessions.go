package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/taala/internal/store"
	"github.com/ayusman/taala/internal/timeline"
)

// SessionsHandler handles HTTP requests for stored run results.
type SessionsHandler struct {
	store *store.Store
}

// NewSessionsHandler creates a new SessionsHandler with the given store.
func NewSessionsHandler(s *store.Store) *SessionsHandler {
	return &SessionsHandler{store: s}
}

// ServeHTTP routes session requests.
// Expected paths: /api/sessions, /api/sessions/{id},
// /api/sessions/{id}/resolutions
func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		h.list(w, r)
		return
	}

	if id, ok := strings.CutSuffix(path, "/resolutions"); ok {
		h.resolutions(w, r, id)
		return
	}
	h.get(w, r, path)
}

type listSessionsResponse struct {
	Sessions []*store.SessionRecord `json:"sessions"`
}

// list handles GET /api/sessions, optionally filtered by ?chart={id}.
func (h *SessionsHandler) list(w http.ResponseWriter, r *http.Request) {
	var (
		records []*store.SessionRecord
		err     error
	)

	if chartID := r.URL.Query().Get("chart"); chartID != "" {
		records, err = h.store.Sessions().ListByChart(chartID)
	} else {
		records, err = h.store.Sessions().List()
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	if records == nil {
		records = []*store.SessionRecord{}
	}

	writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: records})
}

// get handles GET /api/sessions/{id}.
func (h *SessionsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := h.store.Sessions().Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// resolutions handles GET /api/sessions/{id}/resolutions and returns the
// per-note grade sequence of a run.
func (h *SessionsHandler) resolutions(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.store.Sessions().Get(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	resolutions, err := h.store.Sessions().Resolutions(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load resolutions")
		return
	}
	if resolutions == nil {
		resolutions = []timeline.Resolution{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id":  id,
		"resolutions": resolutions,
	})
}
