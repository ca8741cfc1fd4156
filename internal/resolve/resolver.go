// Package resolve matches interaction events against live chart notes and
// grades them.
package resolve

import (
	"github.com/ayusman/taala/internal/chart"
	"github.com/ayusman/taala/internal/gesture"
	"github.com/ayusman/taala/internal/timeline"
)

// Fixed grading windows in milliseconds. Each bound is inclusive: an event
// exactly 50ms off target is still Perfect.
const (
	PerfectWindowMs = 50
	GreatWindowMs   = 150
	GoodWindowMs    = 200
)

// DefaultHitRadius is the spatial tolerance around a note's target position,
// in play-area units.
const DefaultHitRadius = 50

// Config holds the resolver's spatial tolerance. Timing windows are fixed by
// the grading rules and not configurable.
type Config struct {
	HitRadius float64
}

// DefaultConfig returns the standard resolver configuration.
func DefaultConfig() Config {
	return Config{HitRadius: DefaultHitRadius}
}

// Resolver consumes interaction events and mutates note status through the
// scheduler's chart. One event resolves at most one note (or one slide
// checkpoint); resolution order is deterministic for a given event stream.
type Resolver struct {
	sched  *timeline.Scheduler
	config Config
}

// New creates a Resolver over the given scheduler.
func New(sched *timeline.Scheduler, config Config) *Resolver {
	if config.HitRadius <= 0 {
		config.HitRadius = DefaultHitRadius
	}
	return &Resolver{sched: sched, config: config}
}

// GradeFor maps an absolute timing delta to a grade. The boolean is false
// when the delta falls outside every grading window, in which case the event
// scores nothing and the note stays pending.
func GradeFor(absDeltaMs int64) (chart.Grade, bool) {
	switch {
	case absDeltaMs <= PerfectWindowMs:
		return chart.GradePerfect, true
	case absDeltaMs <= GreatWindowMs:
		return chart.GradeGreat, true
	case absDeltaMs <= GoodWindowMs:
		return chart.GradeGood, true
	default:
		return chart.GradeMiss, false
	}
}

// Resolve judges one interaction event. The returned boolean is true only
// when a note reached its final grade; consuming an intermediate slide
// checkpoint returns false because the note is still pending.
func (r *Resolver) Resolve(ev gesture.Event) (timeline.Resolution, bool) {
	switch ev.Kind {
	case gesture.EventTap:
		return r.resolveTap(ev)
	case gesture.EventSlideStart, gesture.EventSlideMove, gesture.EventSlideEnd:
		return r.resolveSlide(ev)
	default:
		return timeline.Resolution{}, false
	}
}

// resolveTap matches a tap event against live tap notes.
func (r *Resolver) resolveTap(ev gesture.Event) (timeline.Resolution, bool) {
	var (
		best      *chart.Note
		bestDelta int64
	)

	for _, n := range r.sched.LiveNotes(ev.TimestampMs) {
		if n.Kind != chart.KindTap {
			continue
		}
		if n.Position.Dist(ev.Position) > r.config.HitRadius {
			continue
		}

		delta := ev.TimestampMs - n.TargetMs
		if _, ok := GradeFor(abs(delta)); !ok {
			continue
		}
		if better(n, delta, best, bestDelta) {
			best = n
			bestDelta = delta
		}
	}

	if best == nil {
		return timeline.Resolution{}, false
	}

	grade, _ := GradeFor(abs(bestDelta))
	best.Resolve(grade)
	return timeline.Resolution{NoteID: best.ID, Grade: grade, DeltaMs: bestDelta}, true
}

// resolveSlide matches a slide event against the current checkpoint of live
// slide notes. At most one checkpoint of one note is consumed per event.
func (r *Resolver) resolveSlide(ev gesture.Event) (timeline.Resolution, bool) {
	var (
		best      *chart.Note
		bestDelta int64
	)

	for _, n := range r.sched.LiveNotes(ev.TimestampMs) {
		if n.Kind != chart.KindSlide {
			continue
		}
		cp, ok := n.CurrentCheckpoint()
		if !ok {
			continue
		}
		if cp.Position.Dist(ev.Position) > r.config.HitRadius {
			continue
		}

		delta := ev.TimestampMs - cp.TargetMs
		if _, ok := GradeFor(abs(delta)); !ok {
			continue
		}
		if better(n, delta, best, bestDelta) {
			best = n
			bestDelta = delta
		}
	}

	if best == nil {
		return timeline.Resolution{}, false
	}

	grade, _ := GradeFor(abs(bestDelta))
	if done := best.ConsumeCheckpoint(grade); !done {
		return timeline.Resolution{}, false
	}

	final := best.AggregateGrade()
	best.Resolve(final)
	return timeline.Resolution{NoteID: best.ID, Grade: final, DeltaMs: bestDelta}, true
}

// better implements the tie-break policy: smallest absolute timing delta
// first, then lowest note id.
func better(n *chart.Note, delta int64, current *chart.Note, currentDelta int64) bool {
	if current == nil {
		return true
	}
	a, b := abs(delta), abs(currentDelta)
	if a != b {
		return a < b
	}
	return n.ID < current.ID
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
