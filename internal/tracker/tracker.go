// Package tracker provides fingertip tracking interfaces for the trainer.
// Implementations wrap an external hand-landmark model; the core only ever
// sees per-frame fingertip observations in camera-pixel space.
package tracker

import "gocv.io/x/gocv"

// MediaPipe hand landmark indices for the fingertips the trainer follows.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	ThumbTip = 4
	IndexTip = 8
)

// TrackedPoint is one fingertip observation from a single camera frame.
// Coordinates are camera pixels; the calibration mapper converts them to
// play-area space. Points are not retained beyond the classifier's bounded
// frame history.
type TrackedPoint struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	TimestampMs int64   `json:"timestamp_ms"`
	Confidence  float64 `json:"confidence"`

	// FingerID identifies the finger across frames, e.g. "hand0/index".
	FingerID string `json:"finger_id"`
}

// Tracker analyzes video frames and reports fingertip positions.
type Tracker interface {
	// Track returns the fingertips visible in the frame, stamped with the
	// given capture timestamp. An empty slice means no hands this frame.
	Track(frame *gocv.Mat, timestampMs int64) ([]TrackedPoint, error)

	// Close releases any resources held by the tracker.
	Close() error
}

// Config holds tracking configuration.
type Config struct {
	// MaxHands is the maximum number of hands to track (default: 2, so
	// two-handed slides work).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.7,
		MinTrackingConf: 0.5,
	}
}
