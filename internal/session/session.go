// Package session orchestrates one training run: it drives the capture,
// tracking, mapping, classification, and grading stages for a single chart
// and accumulates the result.
package session

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/taala/internal/calib"
	"github.com/ayusman/taala/internal/capture"
	"github.com/ayusman/taala/internal/chart"
	"github.com/ayusman/taala/internal/gesture"
	"github.com/ayusman/taala/internal/resolve"
	"github.com/ayusman/taala/internal/score"
	"github.com/ayusman/taala/internal/timeline"
	"github.com/ayusman/taala/internal/tracker"
)

// Loop timing constants.
const (
	// IdleFPS is the frame rate when no motion is detected.
	IdleFPS = 5
	// ActiveFPS is the frame rate while the player is moving.
	ActiveFPS = 15
	// IdleTimeoutMs is how long motion must be absent before dropping back
	// to the idle frame rate.
	IdleTimeoutMs = 2000
	// OutageResetMs is how long tracking may report nothing before in-flight
	// gestures are discarded as stale.
	OutageResetMs = 1000
)

// ErrAlreadyRunning is returned when starting a session that is running.
var ErrAlreadyRunning = errors.New("session already running")

// ErrNotCalibrated is returned when starting a session without a committed
// calibration profile.
var ErrNotCalibrated = errors.New("session requires a calibration profile")

// Config holds the collaborators and thresholds for a session.
type Config struct {
	Chart   *chart.Chart
	Camera  capture.Camera
	Tracker tracker.Tracker
	Mapper  *calib.Mapper

	Gesture gesture.Config
	Resolve resolve.Config

	// MotionThresh is the percentage of changed pixels that counts as
	// motion. Zero selects the default of 1%.
	MotionThresh float64

	// OnResolution is called for every scored note, hits and sweep misses
	// alike. Called from the session goroutine; keep it fast.
	OnResolution func(timeline.Resolution)

	// OnComplete is called once when every note in the chart has resolved.
	OnComplete func(Result)
}

// Result is the immutable outcome of a finished run.
type Result struct {
	SessionID   string                `json:"session_id"`
	ChartID     string                `json:"chart_id"`
	StartedAt   time.Time             `json:"started_at"`
	DurationMs  int64                 `json:"duration_ms"`
	Summary     score.Summary         `json:"summary"`
	Resolutions []timeline.Resolution `json:"resolutions"`
}

// LiveNote is one currently hittable note, for UI snapshots.
type LiveNote struct {
	ID       string      `json:"id"`
	Kind     chart.Kind  `json:"kind"`
	Position calib.Point `json:"position"`
	TargetMs int64       `json:"target_ms"`
}

// Snapshot is a point-in-time view of the run for the UI collaborator.
type Snapshot struct {
	SessionID string                `json:"session_id"`
	ChartID   string                `json:"chart_id"`
	NowMs     int64                 `json:"now_ms"`
	Live      []LiveNote            `json:"live"`
	Recent    []timeline.Resolution `json:"recent"`
	Summary   score.Summary         `json:"summary"`
	Done      bool                  `json:"done"`
}

// Session runs one chart from start to finish. The per-frame pipeline is
// single-threaded: every stage from mapping to scoring happens inside one
// Tick call, so no judgment ever races another.
type Session struct {
	id     string
	config Config

	sched      *timeline.Scheduler
	classifier *gesture.Classifier
	resolver   *resolve.Resolver
	agg        *score.Aggregator
	motion     *capture.MotionDetector

	mu          sync.Mutex
	stopCh      chan struct{}
	startedAt   time.Time
	startWallMs int64
	resolutions []timeline.Resolution
	finished    bool
}

// New creates a Session over a validated chart. The chart's note state is
// reset so a chart can be replayed across sessions.
func New(config Config) *Session {
	if config.MotionThresh <= 0 {
		config.MotionThresh = 1.0
	}

	config.Chart.Reset()
	sched := timeline.New(config.Chart)

	// A tap is confirmed LossFrames absent frames after release, and its
	// event is back-stamped to first contact. The sweep must lag by at least
	// that confirmation latency or it races the gesture it should wait for.
	frameIntervalMs := int64(1000 / ActiveFPS)
	sched.SetSweepLag(config.Gesture.TapMaxDurationMs + int64(config.Gesture.LossFrames)*frameIntervalMs)

	return &Session{
		id:         uuid.New().String(),
		config:     config,
		sched:      sched,
		classifier: gesture.NewClassifier(config.Gesture),
		resolver:   resolve.New(sched, config.Resolve),
		agg:        score.NewAggregator(),
		motion:     capture.NewMotionDetector(config.MotionThresh),
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Start opens the camera and launches the frame loop. The game clock is
// synchronized to the wall clock exactly once, here.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopCh != nil {
		return ErrAlreadyRunning
	}
	if s.config.Mapper == nil || !s.config.Mapper.Calibrated() {
		return ErrNotCalibrated
	}

	if err := s.config.Camera.Open(); err != nil {
		return err
	}
	s.config.Camera.SetFPS(IdleFPS)

	s.startedAt = time.Now()
	s.startWallMs = s.startedAt.UnixMilli()
	s.stopCh = make(chan struct{})
	go s.run(s.stopCh)

	log.Printf("Session %s started: chart %s (%d notes)", s.id, s.config.Chart.ID, len(s.config.Chart.Notes))
	return nil
}

// Stop halts the frame loop and releases capture resources. Safe to call
// more than once.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Session) stopLocked() {
	if s.stopCh == nil {
		return
	}
	close(s.stopCh)
	s.stopCh = nil

	if err := s.config.Camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	s.motion.Close()

	log.Printf("Session %s stopped", s.id)
}

// Running reports whether the frame loop is active.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopCh != nil
}

// Tick processes one frame of tracked fingertips at the given game-clock
// instant and returns the notes resolved by it. This is the entire judgment
// pipeline; the frame loop and replay playback both drive the session
// exclusively through here. Callbacks run after the session lock is
// released, so they may call Snapshot or Result freely.
func (s *Session) Tick(nowMs int64, points []tracker.TrackedPoint) []timeline.Resolution {
	s.mu.Lock()
	resolved, result, completed := s.tickLocked(nowMs, points)
	s.mu.Unlock()

	if s.config.OnResolution != nil {
		for _, res := range resolved {
			s.config.OnResolution(res)
		}
	}
	if completed && s.config.OnComplete != nil {
		s.config.OnComplete(result)
	}
	return resolved
}

func (s *Session) tickLocked(nowMs int64, points []tracker.TrackedPoint) ([]timeline.Resolution, Result, bool) {
	// Map camera-space points into the play area, dropping anything below
	// the confidence threshold. Sub-threshold input never reaches judgment.
	present := make(map[string]calib.Point, len(points))
	for _, p := range points {
		mapped, err := s.config.Mapper.Map(calib.Point{X: p.X, Y: p.Y}, p.Confidence)
		if err != nil {
			continue
		}
		present[p.FingerID] = mapped
	}

	var resolved []timeline.Resolution
	for _, ev := range s.classifier.Advance(nowMs, present) {
		if res, ok := s.resolver.Resolve(ev); ok {
			resolved = append(resolved, res)
		}
	}

	// Sweep after event resolution so no event of this frame loses a note
	// to the miss horizon.
	s.sched.Advance(nowMs)
	resolved = append(resolved, s.sched.Sweep()...)

	for _, res := range resolved {
		s.agg.Add(res)
		s.resolutions = append(s.resolutions, res)
	}

	var (
		result    Result
		completed bool
	)
	if s.sched.Done() && !s.finished {
		s.finished = true
		completed = true
		result = s.resultLocked()
		s.stopLocked()
	}

	return resolved, result, completed
}

// Snapshot returns the current run state for the UI.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.sched.Now()
	var live []LiveNote
	for _, n := range s.sched.LiveNotes(now) {
		pos := n.Position
		target := n.TargetMs
		if n.Kind == chart.KindSlide {
			if cp, ok := n.CurrentCheckpoint(); ok {
				pos = cp.Position
				target = cp.TargetMs
			}
		}
		live = append(live, LiveNote{ID: n.ID, Kind: n.Kind, Position: pos, TargetMs: target})
	}

	return Snapshot{
		SessionID: s.id,
		ChartID:   s.config.Chart.ID,
		NowMs:     now,
		Live:      live,
		Recent:    s.agg.Recent(),
		Summary:   s.agg.Summary(),
		Done:      s.finished,
	}
}

// Result returns the run outcome. Valid once the session has finished; a
// result taken earlier reflects progress so far.
func (s *Session) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resultLocked()
}

func (s *Session) resultLocked() Result {
	resolutions := make([]timeline.Resolution, len(s.resolutions))
	copy(resolutions, s.resolutions)

	return Result{
		SessionID:   s.id,
		ChartID:     s.config.Chart.ID,
		StartedAt:   s.startedAt,
		DurationMs:  s.sched.Now(),
		Summary:     s.agg.Summary(),
		Resolutions: resolutions,
	}
}

// Done reports whether every note has been resolved.
func (s *Session) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// resetGestures discards in-flight gestures after a tracking outage.
func (s *Session) resetGestures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classifier.Reset()
}

// gameNow converts the wall clock to session-relative milliseconds.
func (s *Session) gameNow() int64 {
	return time.Now().UnixMilli() - s.startWallMs
}
