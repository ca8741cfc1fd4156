// Package score accumulates note resolutions into a running score, combo,
// and end-of-run statistics.
package score

import (
	"sync"

	"github.com/ayusman/taala/internal/chart"
	"github.com/ayusman/taala/internal/timeline"
)

// Points awarded per grade.
const (
	PointsPerfect = 100
	PointsGreat   = 80
	PointsGood    = 50
)

// Summary is a snapshot of the aggregator's state. Safe to hand to the UI
// collaborator; it shares nothing with the aggregator.
type Summary struct {
	Score    int     `json:"score"`
	Combo    int     `json:"combo"`
	MaxCombo int     `json:"max_combo"`
	Perfects int     `json:"perfects"`
	Greats   int     `json:"greats"`
	Goods    int     `json:"goods"`
	Misses   int     `json:"misses"`
	Accuracy float64 `json:"accuracy"`
}

// Aggregator folds the resolver's (note id, grade) stream into score and
// combo. Any hit extends the combo; a miss resets it.
type Aggregator struct {
	mu       sync.Mutex
	score    int
	combo    int
	maxCombo int
	perfects int
	greats   int
	goods    int
	misses   int
	recent   []timeline.Resolution
}

// RecentLimit bounds the resolution history kept for UI snapshots.
const RecentLimit = 16

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add records one resolution.
func (a *Aggregator) Add(res timeline.Resolution) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch res.Grade {
	case chart.GradePerfect:
		a.score += PointsPerfect
		a.perfects++
		a.combo++
	case chart.GradeGreat:
		a.score += PointsGreat
		a.greats++
		a.combo++
	case chart.GradeGood:
		a.score += PointsGood
		a.goods++
		a.combo++
	default:
		a.misses++
		a.combo = 0
	}

	if a.combo > a.maxCombo {
		a.maxCombo = a.combo
	}

	a.recent = append(a.recent, res)
	if len(a.recent) > RecentLimit {
		a.recent = a.recent[len(a.recent)-RecentLimit:]
	}
}

// Summary returns the current totals.
func (a *Aggregator) Summary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Summary{
		Score:    a.score,
		Combo:    a.combo,
		MaxCombo: a.maxCombo,
		Perfects: a.perfects,
		Greats:   a.greats,
		Goods:    a.goods,
		Misses:   a.misses,
	}

	total := a.perfects + a.greats + a.goods + a.misses
	if total > 0 {
		s.Accuracy = float64(a.perfects+a.greats+a.goods) / float64(total) * 100
	}
	return s
}

// Recent returns the latest resolutions, newest last.
func (a *Aggregator) Recent() []timeline.Resolution {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]timeline.Resolution, len(a.recent))
	copy(out, a.recent)
	return out
}

// Reset clears all totals for a new run.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.score = 0
	a.combo = 0
	a.maxCombo = 0
	a.perfects = 0
	a.greats = 0
	a.goods = 0
	a.misses = 0
	a.recent = nil
}
