// Package gesture classifies per-frame fingertip observations into
// interaction events: taps and slides.
//
// Classification is a per-finger state machine (Idle -> Candidate ->
// tap | Sliding -> Idle) over a bounded frame history. A gesture is only
// confirmed after multiple consistent frames, trading a small fixed latency
// for robustness: a single frame of tracking noise can neither trigger nor
// cancel an interaction.
package gesture

import (
	"sort"

	"github.com/ayusman/taala/internal/calib"
)

// EventKind identifies the kind of interaction event.
type EventKind string

const (
	// EventTap is a confirmed touch-and-release.
	EventTap EventKind = "tap"
	// EventSlideStart opens a slide gesture.
	EventSlideStart EventKind = "slide_start"
	// EventSlideMove is emitted each frame while a slide is in progress.
	EventSlideMove EventKind = "slide_move"
	// EventSlideEnd closes a slide gesture.
	EventSlideEnd EventKind = "slide_end"
)

// Event is one classified interaction in play-area coordinates. Events are
// immutable after creation and consumed exactly once by the hit resolver.
type Event struct {
	Kind        EventKind   `json:"kind"`
	Position    calib.Point `json:"position"`
	TimestampMs int64       `json:"timestamp_ms"`
	FingerID    string      `json:"finger_id"`
}

// Config holds the classifier thresholds. All distances are play-area units.
type Config struct {
	// Center and Radius define the circular play area; points outside it
	// never enter a gesture.
	Center calib.Point
	Radius float64

	// MoveThreshold is the displacement from first contact beyond which a
	// candidate becomes a slide instead of a tap.
	MoveThreshold float64

	// TapMaxDurationMs is the longest contact that still counts as a tap.
	TapMaxDurationMs int64

	// LossFrames is how many consecutive absent frames confirm that a finger
	// has actually left, debouncing single-frame tracking flicker.
	LossFrames int
}

// DefaultConfig returns classifier thresholds tuned for 15 FPS tracking over
// a 600-unit play area.
func DefaultConfig() Config {
	return Config{
		Center:           calib.Point{X: 300, Y: 300},
		Radius:           300,
		MoveThreshold:    30,
		TapMaxDurationMs: 350,
		LossFrames:       3,
	}
}

// finger states
type state int

const (
	stateIdle state = iota
	stateCandidate
	stateSliding
)

type finger struct {
	state      state
	startPos   calib.Point
	startTs    int64
	lastPos    calib.Point
	lastTs     int64
	lostFrames int
	// tapExpired is set once contact outlasts the tap duration window; the
	// eventual release then confirms nothing.
	tapExpired bool
}

// Classifier runs one state machine per tracked finger.
type Classifier struct {
	config  Config
	fingers map[string]*finger
}

// NewClassifier creates a Classifier with the given thresholds.
func NewClassifier(config Config) *Classifier {
	return &Classifier{
		config:  config,
		fingers: make(map[string]*finger),
	}
}

// Advance feeds one frame of mapped fingertip positions into the state
// machines and returns the interaction events confirmed by this frame.
// Fingers missing from present are counted as lost; low-confidence points
// must be filtered out by the caller before this point, so sub-threshold
// input can never produce an event. Events are ordered by finger id for
// determinism.
func (c *Classifier) Advance(nowMs int64, present map[string]calib.Point) []Event {
	var events []Event

	// Visit known fingers and new arrivals in a stable order.
	ids := make([]string, 0, len(c.fingers)+len(present))
	for id := range c.fingers {
		ids = append(ids, id)
	}
	for id := range present {
		if _, known := c.fingers[id]; !known {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	for _, id := range ids {
		pos, seen := present[id]
		if seen {
			events = append(events, c.observe(id, pos, nowMs)...)
		} else {
			events = append(events, c.lost(id, nowMs)...)
		}
	}

	// Drop fingers that have settled back to idle to bound memory.
	for id, f := range c.fingers {
		if f.state == stateIdle {
			delete(c.fingers, id)
		}
	}

	return events
}

// observe advances one finger's state machine with a visible point.
func (c *Classifier) observe(id string, pos calib.Point, nowMs int64) []Event {
	f := c.fingers[id]
	if f == nil {
		f = &finger{}
		c.fingers[id] = f
	}
	f.lostFrames = 0

	inside := pos.Dist(c.config.Center) <= c.config.Radius

	switch f.state {
	case stateIdle:
		if inside {
			f.state = stateCandidate
			f.startPos = pos
			f.startTs = nowMs
			f.tapExpired = false
		}

	case stateCandidate:
		if !inside {
			// Left the play area before committing to anything.
			f.state = stateIdle
			break
		}
		if pos.Dist(f.startPos) > c.config.MoveThreshold {
			f.state = stateSliding
			f.lastPos = pos
			f.lastTs = nowMs
			return []Event{
				{Kind: EventSlideStart, Position: f.startPos, TimestampMs: f.startTs, FingerID: id},
				{Kind: EventSlideMove, Position: pos, TimestampMs: nowMs, FingerID: id},
			}
		}
		if nowMs-f.startTs > c.config.TapMaxDurationMs {
			f.tapExpired = true
		}

	case stateSliding:
		if !inside {
			f.state = stateIdle
			return []Event{{Kind: EventSlideEnd, Position: f.lastPos, TimestampMs: f.lastTs, FingerID: id}}
		}
		f.lastPos = pos
		f.lastTs = nowMs
		return []Event{{Kind: EventSlideMove, Position: pos, TimestampMs: nowMs, FingerID: id}}
	}

	f.lastPos = pos
	f.lastTs = nowMs
	return nil
}

// lost advances one finger's state machine through an absent frame.
func (c *Classifier) lost(id string, nowMs int64) []Event {
	f := c.fingers[id]
	if f == nil || f.state == stateIdle {
		return nil
	}

	f.lostFrames++
	if f.lostFrames < c.config.LossFrames {
		// Could be single-frame flicker; hold state.
		return nil
	}

	// The finger has genuinely left.
	prev := f.state
	f.state = stateIdle

	switch prev {
	case stateCandidate:
		if f.tapExpired {
			return nil
		}
		// Tap confirmed: release within the duration window, displacement
		// under the movement threshold. Stamped at first contact so the
		// confirmation latency does not skew the timing judgment.
		return []Event{{Kind: EventTap, Position: f.startPos, TimestampMs: f.startTs, FingerID: id}}
	case stateSliding:
		return []Event{{Kind: EventSlideEnd, Position: f.lastPos, TimestampMs: f.lastTs, FingerID: id}}
	}
	return nil
}

// Reset returns every finger to idle, discarding in-flight gestures. Used on
// prolonged tracking outages.
func (c *Classifier) Reset() {
	c.fingers = make(map[string]*finger)
}

// Active returns the number of fingers currently mid-gesture.
func (c *Classifier) Active() int {
	count := 0
	for _, f := range c.fingers {
		if f.state != stateIdle {
			count++
		}
	}
	return count
}
