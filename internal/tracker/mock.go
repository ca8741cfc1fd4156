package tracker

import (
	"gocv.io/x/gocv"
)

// MockTracker is a test implementation of the Tracker interface. It plays
// back a scripted sequence of per-frame observations, one script entry per
// Track call.
type MockTracker struct {
	frames [][]TrackedPoint
	index  int
	err    error
}

// NewMockTracker creates a MockTracker with the given per-frame script. A
// nil entry means no hands that frame.
func NewMockTracker(frames ...[]TrackedPoint) *MockTracker {
	return &MockTracker{frames: frames}
}

// SetError makes every Track call fail with err.
func (m *MockTracker) SetError(err error) {
	m.err = err
}

// Track returns the next scripted frame, stamping each point with the given
// timestamp. Past the end of the script it reports no hands.
func (m *MockTracker) Track(frame *gocv.Mat, timestampMs int64) ([]TrackedPoint, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.index >= len(m.frames) {
		return nil, nil
	}

	scripted := m.frames[m.index]
	m.index++

	points := make([]TrackedPoint, len(scripted))
	for i, p := range scripted {
		p.TimestampMs = timestampMs
		points[i] = p
	}
	return points, nil
}

// Close is a no-op for the mock tracker.
func (m *MockTracker) Close() error {
	return nil
}

// Reset restarts playback from the beginning of the script.
func (m *MockTracker) Reset() {
	m.index = 0
}

// IndexFinger returns one high-confidence index-fingertip observation, for
// building scripted frames in tests.
func IndexFinger(x, y float64) TrackedPoint {
	return TrackedPoint{
		X:          x,
		Y:          y,
		Confidence: 0.95,
		FingerID:   "hand0/index",
	}
}

// TapScript returns a scripted sequence for a tap at the given camera
// position: contact for holdFrames frames, then absence for lossFrames
// frames so the classifier can confirm the release.
func TapScript(x, y float64, holdFrames, lossFrames int) [][]TrackedPoint {
	var frames [][]TrackedPoint
	for i := 0; i < holdFrames; i++ {
		frames = append(frames, []TrackedPoint{IndexFinger(x, y)})
	}
	for i := 0; i < lossFrames; i++ {
		frames = append(frames, nil)
	}
	return frames
}

// SlideScript returns a scripted sequence dragging the index finger from
// (x0,y0) to (x1,y1) over moveFrames frames, then releasing.
func SlideScript(x0, y0, x1, y1 float64, moveFrames, lossFrames int) [][]TrackedPoint {
	var frames [][]TrackedPoint
	for i := 0; i < moveFrames; i++ {
		t := float64(i) / float64(moveFrames-1)
		frames = append(frames, []TrackedPoint{
			IndexFinger(x0+t*(x1-x0), y0+t*(y1-y0)),
		})
	}
	for i := 0; i < lossFrames; i++ {
		frames = append(frames, nil)
	}
	return frames
}
