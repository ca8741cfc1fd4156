package chart

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ayusman/taala/internal/calib"
)

// ErrInvalidChart is returned when chart data fails validation. Validation
// happens once at load time; downstream components assume a valid, sorted
// chart.
var ErrInvalidChart = errors.New("invalid chart")

// DefaultHitWindowMs is applied to notes that do not specify a window.
const DefaultHitWindowMs = 200

// Parse decodes and validates a JSON chart. Slide notes with a Resample count
// have their path interpolated to exactly that many checkpoints.
func Parse(data []byte) (*Chart, error) {
	var file struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Notes []struct {
			ID          string       `json:"id"`
			Kind        Kind         `json:"kind"`
			Position    calib.Point  `json:"position"`
			TargetMs    int64        `json:"target_ms"`
			HitWindowMs int64        `json:"hit_window_ms"`
			Path        []Checkpoint `json:"path,omitempty"`
			Resample    int          `json:"resample,omitempty"`
		} `json:"notes"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidChart, err)
	}

	c := &Chart{ID: file.ID, Title: file.Title}
	for _, n := range file.Notes {
		note := &Note{
			ID:          n.ID,
			Kind:        n.Kind,
			Position:    n.Position,
			TargetMs:    n.TargetMs,
			HitWindowMs: n.HitWindowMs,
			Checkpoints: n.Path,
		}
		if note.HitWindowMs == 0 {
			note.HitWindowMs = DefaultHitWindowMs
		}
		if note.Kind == KindSlide && n.Resample > 0 {
			note.Checkpoints = resampleCheckpoints(n.Path, n.Resample)
		}
		c.Notes = append(c.Notes, note)
	}

	if err := Validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFile reads and parses a chart file from disk.
func LoadFile(path string) (*Chart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chart %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("chart %s: %w", path, err)
	}
	return c, nil
}

// Validate checks the chart invariants: non-decreasing target timestamps,
// unique note ids, positive hit windows, and monotonic slide checkpoints.
func Validate(c *Chart) error {
	seen := make(map[string]struct{}, len(c.Notes))
	var prev int64

	for i, n := range c.Notes {
		if n.ID == "" {
			return fmt.Errorf("%w: note %d has empty id", ErrInvalidChart, i)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("%w: duplicate note id %q", ErrInvalidChart, n.ID)
		}
		seen[n.ID] = struct{}{}

		if n.Kind != KindTap && n.Kind != KindSlide {
			return fmt.Errorf("%w: note %q has unknown kind %q", ErrInvalidChart, n.ID, n.Kind)
		}
		if n.HitWindowMs <= 0 {
			return fmt.Errorf("%w: note %q has non-positive hit window", ErrInvalidChart, n.ID)
		}
		if i > 0 && n.TargetMs < prev {
			return fmt.Errorf("%w: note %q target %dms precedes previous %dms", ErrInvalidChart, n.ID, n.TargetMs, prev)
		}
		prev = n.TargetMs

		switch n.Kind {
		case KindSlide:
			if len(n.Checkpoints) < 2 {
				return fmt.Errorf("%w: slide note %q needs at least 2 checkpoints", ErrInvalidChart, n.ID)
			}
			var prevCp int64
			for j, cp := range n.Checkpoints {
				if j > 0 && cp.TargetMs < prevCp {
					return fmt.Errorf("%w: slide note %q checkpoint %d out of order", ErrInvalidChart, n.ID, j)
				}
				prevCp = cp.TargetMs
			}
			if n.Checkpoints[0].TargetMs < n.TargetMs {
				return fmt.Errorf("%w: slide note %q first checkpoint precedes note target", ErrInvalidChart, n.ID)
			}
		case KindTap:
			if len(n.Checkpoints) > 0 {
				return fmt.Errorf("%w: tap note %q must not carry checkpoints", ErrInvalidChart, n.ID)
			}
		}
	}
	return nil
}

// resampleCheckpoints interpolates a slide path to exactly targetCount
// checkpoints, spacing positions and target times linearly between the
// recorded waypoints.
func resampleCheckpoints(path []Checkpoint, targetCount int) []Checkpoint {
	if len(path) == 0 {
		return nil
	}
	if len(path) == 1 || targetCount <= 1 {
		return []Checkpoint{path[0]}
	}

	result := make([]Checkpoint, targetCount)
	for i := 0; i < targetCount; i++ {
		// Map index i to a position along the original path.
		t := float64(i) / float64(targetCount-1)
		pos := t * float64(len(path)-1)

		idx := int(pos)
		if idx >= len(path)-1 {
			idx = len(path) - 2
		}
		frac := pos - float64(idx)

		p1 := path[idx]
		p2 := path[idx+1]

		result[i] = Checkpoint{
			Position: calib.Point{
				X: p1.Position.X + frac*(p2.Position.X-p1.Position.X),
				Y: p1.Position.Y + frac*(p2.Position.Y-p1.Position.Y),
			},
			TargetMs: p1.TargetMs + int64(frac*float64(p2.TargetMs-p1.TargetMs)),
		}
	}
	return result
}
