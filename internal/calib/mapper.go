package calib

import (
	"errors"
	"sync/atomic"
)

// ErrLowConfidence is returned when a tracked point's confidence is below the
// usable threshold. The point is dropped rather than mapped so noisy input
// never reaches hit judgment.
var ErrLowConfidence = errors.New("tracking confidence below threshold")

// ErrNotCalibrated is returned when no profile has been committed.
var ErrNotCalibrated = errors.New("no calibration profile committed")

// Mapper applies the current calibration profile to incoming points.
//
// The profile is swapped atomically on Commit, so a recalibration never tears
// mid-frame: an in-flight slide keeps mapping through the profile that was
// current when its events were produced, and the next frame picks up the new
// one.
type Mapper struct {
	profile       atomic.Pointer[Profile]
	minConfidence float64
}

// NewMapper creates a Mapper with the given confidence threshold. The initial
// profile may be nil, in which case Map fails with ErrNotCalibrated until a
// profile is committed.
func NewMapper(minConfidence float64, initial *Profile) *Mapper {
	m := &Mapper{minConfidence: minConfidence}
	if initial != nil {
		m.profile.Store(initial)
	}
	return m
}

// Map converts a camera-space point to play-area space. Points below the
// confidence threshold are rejected with ErrLowConfidence.
func (m *Mapper) Map(pt Point, confidence float64) (Point, error) {
	if confidence < m.minConfidence {
		return Point{}, ErrLowConfidence
	}
	profile := m.profile.Load()
	if profile == nil {
		return Point{}, ErrNotCalibrated
	}
	return profile.Apply(pt), nil
}

// Commit atomically installs a new calibration profile.
func (m *Mapper) Commit(p *Profile) {
	if p == nil {
		return
	}
	m.profile.Store(p)
}

// Profile returns the currently committed profile, or nil.
func (m *Mapper) Profile() *Profile {
	return m.profile.Load()
}

// Calibrated reports whether a profile has been committed.
func (m *Mapper) Calibrated() bool {
	return m.profile.Load() != nil
}
