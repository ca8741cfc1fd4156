package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/ayusman/taala/internal/calib"
	"github.com/ayusman/taala/internal/capture"
	"github.com/ayusman/taala/internal/chart"
	"github.com/ayusman/taala/internal/config"
	"github.com/ayusman/taala/internal/gesture"
	"github.com/ayusman/taala/internal/plugin"
	"github.com/ayusman/taala/internal/resolve"
	"github.com/ayusman/taala/internal/server"
	"github.com/ayusman/taala/internal/session"
	"github.com/ayusman/taala/internal/store"
	"github.com/ayusman/taala/internal/timeline"
	"github.com/ayusman/taala/internal/tracker"
	"github.com/ayusman/taala/internal/tray"
)

// PlaySize is the side length of the square play area in play-area units.
const PlaySize = 600

// trainer ties the long-lived collaborators together and owns the current
// session, if any.
type trainer struct {
	config   *config.Config
	store    *store.Store
	mapper   *calib.Mapper
	camera   capture.Camera
	tracker  tracker.Tracker
	notifier *plugin.Notifier
	tray     *tray.Tray

	mu      sync.Mutex
	current *session.Session
}

func main() {
	fmt.Println("Taala - Rhythm Trainer")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to get home directory: %v", err)
		}
		dataDir = filepath.Join(homeDir, ".taala")
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(filepath.Join(dataDir, "taala.db"))
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	t := &trainer{
		config: cfg,
		store:  st,
		camera: capture.NewCamera(cfg.CameraID),
		mapper: loadMapper(cfg, st),
		tray:   tray.New(),
	}

	// Hand tracking runs an external MediaPipe process; without it the
	// trainer still serves charts, results, and calibration.
	mp, err := tracker.NewMediaPipeTracker(tracker.Config{
		MaxHands:        2,
		MinConfidence:   cfg.MinConfidence,
		MinTrackingConf: 0.5,
	}, capture.DefaultWidth, capture.DefaultHeight)
	if err != nil {
		log.Printf("MediaPipe not available (%v); sessions disabled", err)
	} else {
		t.tracker = mp
		defer mp.Close()
	}

	// Feedback plugins
	manager := plugin.NewManager(filepath.Join(dataDir, "plugins"))
	if err := manager.Discover(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	} else if n := len(manager.List()); n > 0 {
		log.Printf("Discovered %d feedback plugins", n)
	}
	t.notifier = plugin.NewNotifier(manager, plugin.NewExecutor(cfg.PluginTimeoutMs))

	// HTTP server
	srv := server.New(server.Config{
		StaticDir: findStaticDir(cfg, dataDir),
		Store:     st,
		Camera:    t.camera,
		Mapper:    t.mapper,
		Snapshot:  t.snapshot,
	})
	go func() {
		log.Printf("Starting server on %s", cfg.Addr)
		if err := srv.ListenAndServe(cfg.Addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// System tray; Run blocks until quit.
	t.tray.OnToggle(func(running bool) {
		if running {
			if err := t.startSession(); err != nil {
				log.Printf("Failed to start session: %v", err)
				t.tray.SetRunning(false)
			}
		} else {
			t.stopSession()
		}
	})
	t.tray.OnDashboard(func() {
		openBrowser("http://localhost" + cfg.Addr)
	})
	t.tray.OnQuit(func() {
		t.stopSession()
	})
	t.tray.Run()
}

// loadMapper builds the coordinate mapper from the most recent stored
// calibration, falling back to a plain camera-to-play-area scale until one
// is committed.
func loadMapper(cfg *config.Config, st *store.Store) *calib.Mapper {
	latest, err := st.Calibrations().Latest()
	if err == nil {
		log.Printf("Loaded calibration (residual %.2f, %d pairs)", latest.Residual, latest.PairCount)
		return calib.NewMapper(cfg.MinConfidence, latest.Profile)
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Printf("Failed to load calibration: %v", err)
	}

	log.Println("No calibration committed; using scale fallback")
	fallback := calib.NewScaleProfile(capture.DefaultWidth, capture.DefaultHeight, PlaySize, PlaySize)
	return calib.NewMapper(cfg.MinConfidence, fallback)
}

// startSession loads the active chart and starts a run on it.
func (t *trainer) startSession() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current != nil && t.current.Running() {
		return session.ErrAlreadyRunning
	}
	if t.tracker == nil {
		return errors.New("hand tracking unavailable")
	}

	c, err := t.activeChart()
	if err != nil {
		return err
	}

	gestureCfg := gesture.DefaultConfig()
	gestureCfg.Center = calib.Point{X: PlaySize / 2, Y: PlaySize / 2}
	gestureCfg.Radius = PlaySize / 2
	gestureCfg.MoveThreshold = t.config.MoveThreshold
	gestureCfg.TapMaxDurationMs = t.config.TapMaxDurationMs

	s := session.New(session.Config{
		Chart:        c,
		Camera:       t.camera,
		Tracker:      t.tracker,
		Mapper:       t.mapper,
		Gesture:      gestureCfg,
		Resolve:      resolve.Config{HitRadius: t.config.HitRadius},
		MotionThresh: t.config.MotionThreshold,
		OnResolution: t.onResolution,
		OnComplete:   t.onComplete,
	})
	if err := s.Start(); err != nil {
		return err
	}

	t.current = s
	return nil
}

// stopSession halts the current run, if any.
func (t *trainer) stopSession() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current != nil {
		t.current.Stop()
	}
}

// snapshot returns the current run state for the WebSocket push.
func (t *trainer) snapshot() *session.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return nil
	}
	snap := t.current.Snapshot()
	return &snap
}

// onResolution relays each judgment to the tray and the feedback plugins.
func (t *trainer) onResolution(res timeline.Resolution) {
	t.tray.SetLastGrade(res.Grade.String())
	if snap := t.snapshot(); snap != nil {
		t.tray.SetScore(snap.Summary.Score, snap.Summary.Combo)
	}
	t.notifier.NotifyResolution(res)
}

// onComplete persists the finished run and notifies plugins.
func (t *trainer) onComplete(result session.Result) {
	if err := t.store.Sessions().Save(result); err != nil {
		log.Printf("Failed to save session result: %v", err)
	} else {
		log.Printf("Session %s saved: score %d, accuracy %.1f%%",
			result.SessionID, result.Summary.Score, result.Summary.Accuracy)
	}
	t.notifier.NotifySummary(result)
	t.tray.SetRunning(false)
}

// activeChart returns the chart selected in settings, or the most recently
// added one.
func (t *trainer) activeChart() (*chart.Chart, error) {
	if id, err := t.store.Settings().Get("active_chart"); err == nil {
		return t.store.Charts().Get(id)
	}

	infos, err := t.store.Charts().List()
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, errors.New("no charts stored; upload one via POST /api/charts")
	}
	return t.store.Charts().Get(infos[0].ID)
}

// findStaticDir locates the dashboard assets.
// It checks the configured directory, "web", and <dataDir>/web.
func findStaticDir(cfg *config.Config, dataDir string) string {
	candidates := []string{cfg.StaticDir, "web", filepath.Join(dataDir, "web")}
	for _, p := range candidates {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

// openBrowser opens the dashboard URL in the default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}
