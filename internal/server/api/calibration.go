package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/taala/internal/calib"
	"github.com/ayusman/taala/internal/store"
)

// DefaultMaxResidual is the re-projection error budget, in play-area units,
// applied when a calibration request does not set its own.
const DefaultMaxResidual = 5.0

// CalibrationHandler solves calibration requests and commits the resulting
// profile to the live mapper and the store.
type CalibrationHandler struct {
	mapper *calib.Mapper
	store  *store.Store
}

// NewCalibrationHandler creates a new CalibrationHandler.
func NewCalibrationHandler(m *calib.Mapper, s *store.Store) *CalibrationHandler {
	return &CalibrationHandler{mapper: m, store: s}
}

type calibrateRequest struct {
	Pairs       []calib.Pair `json:"pairs"`
	MaxResidual float64      `json:"max_residual"`
}

type calibrateResponse struct {
	Residual  float64 `json:"residual"`
	PairCount int     `json:"pair_count"`
}

// ServeHTTP routes calibration requests.
func (h *CalibrationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPost:
		h.calibrate(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// get handles GET /api/calibration and returns the latest committed profile.
func (h *CalibrationHandler) get(w http.ResponseWriter, r *http.Request) {
	latest, err := h.store.Calibrations().Latest()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No calibration committed")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load calibration")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"profile":    latest.Profile,
		"residual":   latest.Residual,
		"pair_count": latest.PairCount,
		"created_at": latest.CreatedAt,
	})
}

// calibrate handles POST /api/calibration: it solves a perspective transform
// from the submitted point pairs, and on success atomically swaps it into
// the live mapper and persists it. A failed solve leaves the previous
// profile in place.
func (h *CalibrationHandler) calibrate(w http.ResponseWriter, r *http.Request) {
	var req calibrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.MaxResidual <= 0 {
		req.MaxResidual = DefaultMaxResidual
	}

	profile, err := calib.Solve(req.Pairs, req.MaxResidual)
	if err != nil {
		switch {
		case errors.Is(err, calib.ErrInsufficientPairs):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, calib.ErrCalibrationFailed):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "Calibration solve failed")
		}
		return
	}

	h.mapper.Commit(profile)
	if _, err := h.store.Calibrations().Save(profile, profile.MaxResidual, len(req.Pairs)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to persist calibration")
		return
	}

	writeJSON(w, http.StatusOK, calibrateResponse{
		Residual:  profile.MaxResidual,
		PairCount: len(req.Pairs),
	})
}
