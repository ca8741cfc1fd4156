package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/taala/internal/calib"
	"github.com/ayusman/taala/internal/chart"
	"github.com/ayusman/taala/internal/score"
	"github.com/ayusman/taala/internal/session"
	"github.com/ayusman/taala/internal/store"
	"github.com/ayusman/taala/internal/timeline"
)

const sampleChartJSON = `{
	"id": "demo",
	"title": "Demo Chart",
	"notes": [
		{"id": "n1", "kind": "tap", "position": {"x": 100, "y": 100}, "target_ms": 1000}
	]
}`

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestChartHandler_CreateAndGet(t *testing.T) {
	h := NewChartHandler(newTestStore(t))

	req := httptest.NewRequest(http.MethodPost, "/api/charts", strings.NewReader(sampleChartJSON))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/charts/demo", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d", rec.Code, http.StatusOK)
	}

	c, err := chart.Parse(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("returned chart does not parse: %v", err)
	}
	if c.ID != "demo" || len(c.Notes) != 1 {
		t.Errorf("returned chart = %s with %d notes", c.ID, len(c.Notes))
	}
}

func TestChartHandler_CreateInvalid(t *testing.T) {
	h := NewChartHandler(newTestStore(t))

	bad := `{"id": "bad", "notes": [{"id": "x", "kind": "nope", "target_ms": 0}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/charts", strings.NewReader(bad))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestChartHandler_List(t *testing.T) {
	s := newTestStore(t)
	s.Charts().Save([]byte(sampleChartJSON))
	h := NewChartHandler(s)

	req := httptest.NewRequest(http.MethodGet, "/api/charts", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		Charts []*store.ChartInfo `json:"charts"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Charts) != 1 || body.Charts[0].ID != "demo" {
		t.Errorf("unexpected listing: %+v", body.Charts)
	}
}

func TestChartHandler_GetMissing(t *testing.T) {
	h := NewChartHandler(newTestStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/charts/nope", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestChartHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	s.Charts().Save([]byte(sampleChartJSON))
	h := NewChartHandler(s)

	req := httptest.NewRequest(http.MethodDelete, "/api/charts/demo", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/charts/demo", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestSessionsHandler_GetAndResolutions(t *testing.T) {
	s := newTestStore(t)
	s.Sessions().Save(session.Result{
		SessionID:  "run-1",
		ChartID:    "demo",
		StartedAt:  time.Now(),
		DurationMs: 1200,
		Summary:    score.Summary{Score: 100, Perfects: 1, Accuracy: 100},
		Resolutions: []timeline.Resolution{
			{NoteID: "n1", Grade: chart.GradePerfect, DeltaMs: 10},
		},
	})
	h := NewSessionsHandler(s)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/run-1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d", rec.Code, http.StatusOK)
	}

	var record store.SessionRecord
	if err := json.NewDecoder(rec.Body).Decode(&record); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if record.ChartID != "demo" || record.Summary.Score != 100 {
		t.Errorf("unexpected record: %+v", record)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/sessions/run-1/resolutions", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("resolutions status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		Resolutions []timeline.Resolution `json:"resolutions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Resolutions) != 1 || body.Resolutions[0].NoteID != "n1" {
		t.Errorf("unexpected resolutions: %+v", body.Resolutions)
	}
}

func TestSessionsHandler_ListByChart(t *testing.T) {
	s := newTestStore(t)
	s.Sessions().Save(session.Result{SessionID: "run-1", ChartID: "demo", StartedAt: time.Now()})
	s.Sessions().Save(session.Result{SessionID: "run-2", ChartID: "other", StartedAt: time.Now()})
	h := NewSessionsHandler(s)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions?chart=demo", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body struct {
		Sessions []*store.SessionRecord `json:"sessions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Sessions) != 1 || body.Sessions[0].ID != "run-1" {
		t.Errorf("unexpected sessions: %+v", body.Sessions)
	}
}

func TestCalibrationHandler_SolveAndCommit(t *testing.T) {
	s := newTestStore(t)
	mapper := calib.NewMapper(0.7, nil)
	h := NewCalibrationHandler(mapper, s)

	// Corner pairs of a pure scale from 640x480 to 600x600.
	payload := `{"pairs": [
		{"camera": {"x": 0, "y": 0}, "play": {"x": 0, "y": 0}},
		{"camera": {"x": 640, "y": 0}, "play": {"x": 600, "y": 0}},
		{"camera": {"x": 0, "y": 480}, "play": {"x": 0, "y": 600}},
		{"camera": {"x": 640, "y": 480}, "play": {"x": 600, "y": 600}}
	]}`

	req := httptest.NewRequest(http.MethodPost, "/api/calibration", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	if !mapper.Calibrated() {
		t.Error("mapper not calibrated after successful solve")
	}
	mapped, err := mapper.Map(calib.Point{X: 320, Y: 240}, 1.0)
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}
	if mapped.Dist(calib.Point{X: 300, Y: 300}) > 1.0 {
		t.Errorf("center mapped to %+v, want near (300,300)", mapped)
	}

	// The profile is also persisted.
	latest, err := s.Calibrations().Latest()
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.PairCount != 4 {
		t.Errorf("persisted pair count = %d, want 4", latest.PairCount)
	}

	// And retrievable over the API.
	req = httptest.NewRequest(http.MethodGet, "/api/calibration", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("get status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestCalibrationHandler_InsufficientPairs(t *testing.T) {
	h := NewCalibrationHandler(calib.NewMapper(0.7, nil), newTestStore(t))

	payload := `{"pairs": [{"camera": {"x": 0, "y": 0}, "play": {"x": 0, "y": 0}}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/calibration", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCalibrationHandler_GetWithoutProfile(t *testing.T) {
	h := NewCalibrationHandler(calib.NewMapper(0.7, nil), newTestStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/calibration", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
