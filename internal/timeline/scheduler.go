// Package timeline schedules chart notes against a monotonic game clock and
// decides which notes are live at any instant.
package timeline

import (
	"github.com/ayusman/taala/internal/chart"
)

// Resolution is one scored note, emitted to the scoring aggregator.
type Resolution struct {
	NoteID string      `json:"note_id"`
	Grade  chart.Grade `json:"grade"`
	// DeltaMs is the signed event-minus-target delta for hits; zero for
	// sweep misses.
	DeltaMs int64 `json:"delta_ms"`
}

// Scheduler owns a chart for the duration of a run and advances a monotonic
// clock over it. The clock is session-relative milliseconds, synchronized
// once at run start; it never rewinds, so a frame that arrives with an older
// timestamp is judged at the clock's current position.
type Scheduler struct {
	chart    *chart.Chart
	now      int64
	sweepLag int64
}

// New creates a Scheduler over a validated chart with the clock at zero.
func New(c *chart.Chart) *Scheduler {
	return &Scheduler{chart: c}
}

// SetSweepLag delays the miss sweep by lagMs behind the clock. Gesture
// confirmation is debounced over several frames and events are back-stamped
// to first contact, so a note must stay sweepable-but-unswept long enough for
// a still-confirming gesture to claim it.
func (s *Scheduler) SetSweepLag(lagMs int64) {
	if lagMs > 0 {
		s.sweepLag = lagMs
	}
}

// Advance moves the clock forward to now. Calls with an earlier or equal
// timestamp are no-ops, which makes advancing idempotent and monotonic.
func (s *Scheduler) Advance(now int64) {
	if now > s.now {
		s.now = now
	}
}

// Now returns the clock's current position in milliseconds.
func (s *Scheduler) Now() int64 {
	return s.now
}

// Chart returns the scheduled chart.
func (s *Scheduler) Chart() *chart.Chart {
	return s.chart
}

// LiveNotes returns the pending notes resolvable at the given instant. A tap
// note is live while |target - now| is within its hit window; a slide note is
// live while its current unconsumed checkpoint is within the window. The
// query may look earlier than the clock: interaction events are stamped at
// first contact, which precedes the frame that confirms them.
func (s *Scheduler) LiveNotes(now int64) []*chart.Note {
	var live []*chart.Note
	for _, n := range s.chart.Notes {
		if n.Resolved() {
			continue
		}

		target := n.TargetMs
		if n.Kind == chart.KindSlide {
			cp, ok := n.CurrentCheckpoint()
			if !ok {
				continue
			}
			target = cp.TargetMs
		}

		delta := target - now
		if delta < 0 {
			delta = -delta
		}
		if delta <= n.HitWindowMs {
			live = append(live, n)
		}
	}
	return live
}

// Sweep resolves to Miss every pending note whose latest permissible
// timestamp has passed. It is run once per tick, after event resolution, so a
// note is only swept when no event could still score it.
func (s *Scheduler) Sweep() []Resolution {
	var missed []Resolution
	horizon := s.now - s.sweepLag
	for _, n := range s.chart.Notes {
		if n.Resolved() || n.LatestMs() >= horizon {
			continue
		}

		// A partially completed slide aggregates to Miss; fully consumed
		// slides are resolved by the hit resolver before ever reaching here.
		grade := chart.GradeMiss
		if n.Kind == chart.KindSlide {
			grade = n.AggregateGrade()
		}
		n.Resolve(grade)
		missed = append(missed, Resolution{NoteID: n.ID, Grade: grade})
	}
	return missed
}

// Pending returns the number of unresolved notes.
func (s *Scheduler) Pending() int {
	count := 0
	for _, n := range s.chart.Notes {
		if !n.Resolved() {
			count++
		}
	}
	return count
}

// Done reports whether every note has been resolved.
func (s *Scheduler) Done() bool {
	return s.Pending() == 0
}
