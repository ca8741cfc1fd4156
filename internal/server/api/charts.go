// Package api provides the HTTP API handlers for the trainer.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ayusman/taala/internal/chart"
	"github.com/ayusman/taala/internal/store"
)

// ChartHandler handles HTTP requests for chart resources.
type ChartHandler struct {
	store *store.Store
}

// NewChartHandler creates a new ChartHandler with the given store.
func NewChartHandler(s *store.Store) *ChartHandler {
	return &ChartHandler{store: s}
}

// ServeHTTP routes chart requests.
// Expected paths: /api/charts or /api/charts/{id}
func (h *ChartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/charts")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type listChartsResponse struct {
	Charts []*store.ChartInfo `json:"charts"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/charts and returns metadata for all charts.
func (h *ChartHandler) list(w http.ResponseWriter, r *http.Request) {
	charts, err := h.store.Charts().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list charts")
		return
	}
	if charts == nil {
		charts = []*store.ChartInfo{}
	}
	writeJSON(w, http.StatusOK, listChartsResponse{Charts: charts})
}

// get handles GET /api/charts/{id} and returns the full chart document.
func (h *ChartHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	raw, err := h.store.Charts().GetRaw(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Chart not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get chart")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(raw)
}

// create handles POST /api/charts. The body is the chart document itself;
// it is validated before being stored.
func (h *ChartHandler) create(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	c, err := h.store.Charts().Save(raw)
	if err != nil {
		if errors.Is(err, chart.ErrInvalidChart) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to save chart")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":          c.ID,
		"title":       c.Title,
		"note_count":  len(c.Notes),
		"duration_ms": c.DurationMs(),
	})
}

// delete handles DELETE /api/charts/{id}.
func (h *ChartHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Charts().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Chart not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete chart")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
