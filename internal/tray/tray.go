// Package tray provides the macOS system tray interface for the trainer.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the macOS system tray application.
type Tray struct {
	onToggle    func(running bool)
	onDashboard func()
	onQuit      func()
	running     bool
	mu          sync.RWMutex

	// Menu items stored for later updates
	menuToggle    *systray.MenuItem
	menuLastGrade *systray.MenuItem
	menuScore     *systray.MenuItem
}

// New creates a new Tray instance. A session is not running until the user
// starts one.
func New() *Tray {
	return &Tray{}
}

// OnToggle sets the callback called when the user starts or stops a session.
func (t *Tray) OnToggle(fn func(running bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnDashboard sets the callback called when the dashboard menu item is
// clicked.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Taala")
	systray.SetTooltip("Taala Rhythm Trainer")

	t.menuToggle = systray.AddMenuItem("▶ Start Session", "Start or stop a training session")
	systray.AddSeparator()

	t.menuLastGrade = systray.AddMenuItem("Last: none", "Last judgment")
	t.menuLastGrade.Disable()
	t.menuScore = systray.AddMenuItem("Score: 0", "Current score and combo")
	t.menuScore.Disable()
	systray.AddSeparator()

	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Taala")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuDashboard.ClickedCh:
				t.handleDashboard()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {
}

// handleToggle handles the start/stop menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.running = !t.running
	running := t.running

	if running {
		t.menuToggle.SetTitle("■ Stop Session")
	} else {
		t.menuToggle.SetTitle("▶ Start Session")
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(running)
	}
}

// handleDashboard handles the dashboard menu item click.
func (t *Tray) handleDashboard() {
	t.mu.RLock()
	callback := t.onDashboard
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLastGrade updates the last judgment display in the menu.
func (t *Tray) SetLastGrade(grade string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLastGrade != nil {
		if grade == "" {
			t.menuLastGrade.SetTitle("Last: none")
		} else {
			t.menuLastGrade.SetTitle("Last: " + grade)
		}
	}
}

// SetScore updates the score display in the menu.
func (t *Tray) SetScore(score, combo int) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuScore != nil {
		t.menuScore.SetTitle(scoreTitle(score, combo))
	}
}

// SetRunning updates the toggle item to reflect a session that started or
// stopped outside the tray, e.g. a run finishing on its own.
func (t *Tray) SetRunning(running bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.running = running
	if t.menuToggle == nil {
		return
	}
	if running {
		t.menuToggle.SetTitle("■ Stop Session")
	} else {
		t.menuToggle.SetTitle("▶ Start Session")
	}
}

func scoreTitle(score, combo int) string {
	if combo > 1 {
		return fmt.Sprintf("Score: %d (%dx combo)", score, combo)
	}
	return fmt.Sprintf("Score: %d", score)
}

// IsRunning returns whether the tray believes a session is active.
func (t *Tray) IsRunning() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.running
}
