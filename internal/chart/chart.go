// Package chart defines note charts: the scheduled targets a player hits
// during a run. Chart data is immutable after load except for each note's
// resolution status, which is owned by the hit resolver.
package chart

import (
	"github.com/ayusman/taala/internal/calib"
)

// Kind is the interaction a note demands.
type Kind string

const (
	// KindTap is a single touch-and-release at the target position.
	KindTap Kind = "tap"
	// KindSlide is a drag along a path of checkpoints.
	KindSlide Kind = "slide"
)

// Grade is the judged quality of a resolved note.
type Grade int

const (
	// GradeMiss means the note's window elapsed without a qualifying hit.
	GradeMiss Grade = iota
	// GradeGood is a hit within the widest timing window.
	GradeGood
	// GradeGreat is a hit within the middle timing window.
	GradeGreat
	// GradePerfect is a hit within the tightest timing window.
	GradePerfect
)

// String returns the display name of the grade.
func (g Grade) String() string {
	switch g {
	case GradePerfect:
		return "perfect"
	case GradeGreat:
		return "great"
	case GradeGood:
		return "good"
	default:
		return "miss"
	}
}

// Worse returns the lower of two grades. Used to aggregate slide checkpoint
// grades into a final note grade.
func Worse(a, b Grade) Grade {
	if a < b {
		return a
	}
	return b
}

// Checkpoint is one waypoint along a slide note's path. Each checkpoint is
// resolved separately under its own local timing window.
type Checkpoint struct {
	Position calib.Point `json:"position"`
	TargetMs int64       `json:"target_ms"`

	consumed bool
	grade    Grade
}

// Consumed reports whether this checkpoint has been satisfied.
func (c *Checkpoint) Consumed() bool {
	return c.consumed
}

// Grade returns the grade assigned when the checkpoint was consumed.
func (c *Checkpoint) Grade() Grade {
	return c.grade
}

// Note is one scheduled target. Target data is immutable; the status field
// transitions pending -> hit(grade) | missed exactly once.
type Note struct {
	ID          string      `json:"id"`
	Kind        Kind        `json:"kind"`
	Position    calib.Point `json:"position"`
	TargetMs    int64       `json:"target_ms"`
	HitWindowMs int64       `json:"hit_window_ms"`

	// Checkpoints holds the ordered slide path. Empty for tap notes.
	Checkpoints []Checkpoint `json:"checkpoints,omitempty"`

	resolved bool
	grade    Grade
}

// Resolved reports whether the note has been scored.
func (n *Note) Resolved() bool {
	return n.resolved
}

// Outcome returns the note's grade. The boolean is false while the note is
// still pending.
func (n *Note) Outcome() (Grade, bool) {
	return n.grade, n.resolved
}

// Resolve marks the note with its final grade. Later calls are ignored so a
// note can never be scored twice.
func (n *Note) Resolve(g Grade) {
	if n.resolved {
		return
	}
	n.resolved = true
	n.grade = g
}

// CurrentCheckpoint returns the first unconsumed checkpoint of a slide note.
// The boolean is false for tap notes and fully consumed slides.
func (n *Note) CurrentCheckpoint() (*Checkpoint, bool) {
	for i := range n.Checkpoints {
		if !n.Checkpoints[i].consumed {
			return &n.Checkpoints[i], true
		}
	}
	return nil, false
}

// ConsumeCheckpoint satisfies the current checkpoint with the given grade and
// reports whether the whole slide is now complete.
func (n *Note) ConsumeCheckpoint(g Grade) bool {
	cp, ok := n.CurrentCheckpoint()
	if !ok {
		return true
	}
	cp.consumed = true
	cp.grade = g

	_, more := n.CurrentCheckpoint()
	return !more
}

// AggregateGrade folds per-checkpoint grades into the slide's final grade:
// the worst checkpoint wins.
func (n *Note) AggregateGrade() Grade {
	grade := GradePerfect
	for i := range n.Checkpoints {
		if !n.Checkpoints[i].consumed {
			return GradeMiss
		}
		grade = Worse(grade, n.Checkpoints[i].grade)
	}
	return grade
}

// LatestMs returns the last timestamp at which any part of the note can still
// be resolved. For slides that is the final checkpoint's window end.
func (n *Note) LatestMs() int64 {
	latest := n.TargetMs
	if len(n.Checkpoints) > 0 {
		latest = n.Checkpoints[len(n.Checkpoints)-1].TargetMs
	}
	return latest + n.HitWindowMs
}

// Reset returns the note and its checkpoints to pending so a chart can be
// replayed.
func (n *Note) Reset() {
	n.resolved = false
	n.grade = GradeMiss
	for i := range n.Checkpoints {
		n.Checkpoints[i].consumed = false
		n.Checkpoints[i].grade = GradeMiss
	}
}

// Chart is an ordered sequence of notes sorted by target timestamp.
type Chart struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Notes []*Note `json:"notes"`
}

// Reset returns every note in the chart to pending.
func (c *Chart) Reset() {
	for _, n := range c.Notes {
		n.Reset()
	}
}

// DurationMs returns the time at which the last note's window closes, i.e.
// the earliest moment a run of this chart can be considered over.
func (c *Chart) DurationMs() int64 {
	var end int64
	for _, n := range c.Notes {
		if latest := n.LatestMs(); latest > end {
			end = latest
		}
	}
	return end
}
