package score

import (
	"testing"

	"github.com/ayusman/taala/internal/chart"
	"github.com/ayusman/taala/internal/timeline"
)

func res(id string, g chart.Grade) timeline.Resolution {
	return timeline.Resolution{NoteID: id, Grade: g}
}

func TestAggregator_ScoreAndCombo(t *testing.T) {
	a := NewAggregator()

	a.Add(res("n1", chart.GradePerfect))
	a.Add(res("n2", chart.GradeGreat))
	a.Add(res("n3", chart.GradeGood))

	s := a.Summary()
	if s.Score != PointsPerfect+PointsGreat+PointsGood {
		t.Errorf("expected score %d, got %d", PointsPerfect+PointsGreat+PointsGood, s.Score)
	}
	if s.Combo != 3 || s.MaxCombo != 3 {
		t.Errorf("expected combo 3/3, got %d/%d", s.Combo, s.MaxCombo)
	}
}

func TestAggregator_MissResetsCombo(t *testing.T) {
	a := NewAggregator()

	a.Add(res("n1", chart.GradePerfect))
	a.Add(res("n2", chart.GradePerfect))
	a.Add(res("n3", chart.GradeMiss))
	a.Add(res("n4", chart.GradeGood))

	s := a.Summary()
	if s.Combo != 1 {
		t.Errorf("expected combo 1 after miss, got %d", s.Combo)
	}
	// Max combo survives the reset.
	if s.MaxCombo != 2 {
		t.Errorf("expected max combo 2, got %d", s.MaxCombo)
	}
	if s.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", s.Misses)
	}
}

func TestAggregator_Accuracy(t *testing.T) {
	a := NewAggregator()

	if acc := a.Summary().Accuracy; acc != 0 {
		t.Errorf("expected 0 accuracy with no notes, got %f", acc)
	}

	a.Add(res("n1", chart.GradePerfect))
	a.Add(res("n2", chart.GradeGreat))
	a.Add(res("n3", chart.GradeMiss))
	a.Add(res("n4", chart.GradeMiss))

	// 2 hits out of 4 notes.
	if acc := a.Summary().Accuracy; acc != 50 {
		t.Errorf("expected 50%% accuracy, got %f", acc)
	}
}

func TestAggregator_RecentBounded(t *testing.T) {
	a := NewAggregator()

	for i := 0; i < RecentLimit+5; i++ {
		a.Add(res("n", chart.GradePerfect))
	}

	if got := len(a.Recent()); got != RecentLimit {
		t.Errorf("expected recent capped at %d, got %d", RecentLimit, got)
	}
}

func TestAggregator_Reset(t *testing.T) {
	a := NewAggregator()
	a.Add(res("n1", chart.GradePerfect))

	a.Reset()

	s := a.Summary()
	if s.Score != 0 || s.Combo != 0 || s.Perfects != 0 {
		t.Errorf("expected zeroed summary after reset, got %+v", s)
	}
	if len(a.Recent()) != 0 {
		t.Error("expected empty recent after reset")
	}
}
