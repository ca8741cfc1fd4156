package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/taala/internal/calib"
	"github.com/ayusman/taala/internal/chart"
	"github.com/ayusman/taala/internal/gesture"
	"github.com/ayusman/taala/internal/replay"
	"github.com/ayusman/taala/internal/resolve"
	"github.com/ayusman/taala/internal/server"
	"github.com/ayusman/taala/internal/session"
	"github.com/ayusman/taala/internal/store"
	"github.com/ayusman/taala/testdata"
)

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "data.db")

	s, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	mapper := calib.NewMapper(0.7, nil)
	srv := server.New(server.Config{Store: s, Mapper: mapper})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	chartJSON, err := testdata.Chart("demo")
	if err != nil {
		t.Fatalf("testdata.Chart() error = %v", err)
	}

	t.Run("UploadChart", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/api/charts", "application/json", bytes.NewReader(chartJSON))
		if err != nil {
			t.Fatalf("upload chart error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
		}
	})

	t.Run("ListCharts", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/charts")
		if err != nil {
			t.Fatalf("list charts error = %v", err)
		}
		defer resp.Body.Close()

		var body struct {
			Charts []*store.ChartInfo `json:"charts"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode error = %v", err)
		}
		if len(body.Charts) != 1 || body.Charts[0].ID != "demo" {
			t.Fatalf("charts = %+v, want one chart with ID demo", body.Charts)
		}
	})

	t.Run("Calibrate", func(t *testing.T) {
		// Corner correspondences for a 640x480 camera over a 600x600 play
		// area.
		req := `{
			"pairs": [
				{"camera": {"x": 0, "y": 0}, "play": {"x": 0, "y": 0}},
				{"camera": {"x": 640, "y": 0}, "play": {"x": 600, "y": 0}},
				{"camera": {"x": 640, "y": 480}, "play": {"x": 600, "y": 600}},
				{"camera": {"x": 0, "y": 480}, "play": {"x": 0, "y": 600}}
			]
		}`
		resp, err := client.Post(ts.URL+"/api/calibration", "application/json", strings.NewReader(req))
		if err != nil {
			t.Fatalf("calibrate error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		if !mapper.Calibrated() {
			t.Error("mapper not calibrated after successful solve")
		}

		mapped, err := mapper.Map(calib.Point{X: 320, Y: 240}, 1.0)
		if err != nil {
			t.Fatalf("Map() error = %v", err)
		}
		if mapped.X < 299 || mapped.X > 301 || mapped.Y < 299 || mapped.Y > 301 {
			t.Errorf("camera center mapped to (%.1f, %.1f), want near (300, 300)", mapped.X, mapped.Y)
		}
	})

	t.Run("CalibrationPersisted", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/calibration")
		if err != nil {
			t.Fatalf("get calibration error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
	})

	// Run the recorded session through the full judgment pipeline and save
	// its result the way the trainer does on completion.
	var result session.Result
	t.Run("ReplaySession", func(t *testing.T) {
		c, err := s.Charts().Get("demo")
		if err != nil {
			t.Fatalf("Charts().Get() error = %v", err)
		}

		sess := newReplaySession(t, c)
		log, err := testdata.Replay("demo-run")
		if err != nil {
			t.Fatalf("testdata.Replay() error = %v", err)
		}
		if _, err := replay.Play(sess, bytes.NewReader(log)); err != nil {
			t.Fatalf("replay.Play() error = %v", err)
		}
		if !sess.Done() {
			t.Fatal("session not done after replay")
		}

		result = sess.Result()
		if err := s.Sessions().Save(result); err != nil {
			t.Fatalf("Sessions().Save() error = %v", err)
		}
	})

	t.Run("SessionVisibleOverAPI", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/sessions/" + result.SessionID)
		if err != nil {
			t.Fatalf("get session error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var rec store.SessionRecord
		if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
			t.Fatalf("decode error = %v", err)
		}
		if rec.ChartID != "demo" {
			t.Errorf("ChartID = %s, want demo", rec.ChartID)
		}
		if rec.Summary.Score != result.Summary.Score {
			t.Errorf("Score = %d, want %d", rec.Summary.Score, result.Summary.Score)
		}
	})

	t.Run("APIStillWorks", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatalf("health check error = %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Error("health check failed after session operations")
		}
	})
}

// TestE2E_ReplayGrades plays the bundled recording and checks the exact
// judgment sequence it encodes: a tap on the beat, a tap 100ms late, and a
// slide traced through both checkpoints on time.
func TestE2E_ReplayGrades(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	chartJSON, err := testdata.Chart("demo")
	if err != nil {
		t.Fatalf("testdata.Chart() error = %v", err)
	}
	log, err := testdata.Replay("demo-run")
	if err != nil {
		t.Fatalf("testdata.Replay() error = %v", err)
	}

	want := []struct {
		noteID string
		grade  chart.Grade
	}{
		{"n1", chart.GradePerfect},
		{"n2", chart.GradeGreat},
		{"s1", chart.GradePerfect},
	}

	// Two runs over the same log must produce identical judgments.
	for run := 0; run < 2; run++ {
		c, err := chart.Parse(chartJSON)
		if err != nil {
			t.Fatalf("chart.Parse() error = %v", err)
		}

		sess := newReplaySession(t, c)
		resolved, err := replay.Play(sess, bytes.NewReader(log))
		if err != nil {
			t.Fatalf("run %d: replay.Play() error = %v", run, err)
		}

		if len(resolved) != len(want) {
			t.Fatalf("run %d: resolved %d notes, want %d: %+v", run, len(resolved), len(want), resolved)
		}
		for i, w := range want {
			if resolved[i].NoteID != w.noteID || resolved[i].Grade != w.grade {
				t.Errorf("run %d: resolution %d = %s/%s, want %s/%s",
					run, i, resolved[i].NoteID, resolved[i].Grade, w.noteID, w.grade)
			}
		}

		summary := sess.Result().Summary
		if summary.Score != 280 {
			t.Errorf("run %d: Score = %d, want 280", run, summary.Score)
		}
		if summary.MaxCombo != 3 {
			t.Errorf("run %d: MaxCombo = %d, want 3", run, summary.MaxCombo)
		}
		if summary.Misses != 0 {
			t.Errorf("run %d: Misses = %d, want 0", run, summary.Misses)
		}
	}
}

// newReplaySession builds a session over an identity mapping, so recorded
// points land in the play area unchanged.
func newReplaySession(t *testing.T, c *chart.Chart) *session.Session {
	t.Helper()
	return session.New(session.Config{
		Chart:   c,
		Mapper:  calib.NewMapper(0.7, calib.NewScaleProfile(600, 600, 600, 600)),
		Gesture: gesture.DefaultConfig(),
		Resolve: resolve.DefaultConfig(),
	})
}
