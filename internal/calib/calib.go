// Package calib converts camera-pixel coordinates into play-area coordinates.
//
// A calibration profile is a perspective (homography) transform computed from
// correspondence pairs collected during an explicit calibration phase. The
// solve is a least-squares fit, so more than four pairs tighten the estimate;
// the fit is rejected when any pair re-projects outside the residual budget.
package calib

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrInsufficientPairs is returned when fewer than MinPairs correspondence
// pairs have been collected.
var ErrInsufficientPairs = errors.New("calibration requires at least 4 point pairs")

// ErrCalibrationFailed is returned when the solved transform re-projects a
// calibration pair outside the configured residual threshold.
var ErrCalibrationFailed = errors.New("calibration residual above threshold")

// MinPairs is the minimum number of correspondence pairs needed to solve a
// perspective transform.
const MinPairs = 4

// Point is a 2D position. The same type is used for camera-pixel space and
// play-area space; the Profile is what moves a point between the two.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance between two points.
func (p Point) Dist(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Pair is one correspondence between a camera-space point and the play-area
// point it should map to.
type Pair struct {
	Camera Point `json:"camera"`
	Play   Point `json:"play"`
}

// Profile is a 3x3 perspective transform from camera space to play-area
// space. The last element is fixed to 1. A Profile is immutable once solved;
// recalibration produces a new Profile.
type Profile struct {
	// H holds the homography coefficients in row-major order with H[8] == 1.
	H [9]float64 `json:"h"`

	// MaxResidual is the largest re-projection error observed across the
	// calibration pairs, in play-area units. Zero for synthetic profiles.
	MaxResidual float64 `json:"max_residual"`
}

// Apply maps a camera-space point into play-area space.
func (p *Profile) Apply(pt Point) Point {
	w := p.H[6]*pt.X + p.H[7]*pt.Y + p.H[8]
	if w == 0 {
		// Degenerate projection; return the raw point rather than Inf.
		return pt
	}
	return Point{
		X: (p.H[0]*pt.X + p.H[1]*pt.Y + p.H[2]) / w,
		Y: (p.H[3]*pt.X + p.H[4]*pt.Y + p.H[5]) / w,
	}
}

// NewScaleProfile returns a profile that linearly scales camera resolution to
// play-area bounds. It is the uncalibrated fallback used before an explicit
// calibration has been committed.
func NewScaleProfile(camWidth, camHeight, playWidth, playHeight float64) *Profile {
	p := &Profile{}
	p.H[0] = playWidth / camWidth
	p.H[4] = playHeight / camHeight
	p.H[8] = 1
	return p
}

// Solve computes a perspective transform from the given correspondence pairs.
// It fails with ErrInsufficientPairs for fewer than MinPairs pairs, and with
// ErrCalibrationFailed when the maximum re-projection error across the pairs
// exceeds maxResidual.
func Solve(pairs []Pair, maxResidual float64) (*Profile, error) {
	if len(pairs) < MinPairs {
		return nil, ErrInsufficientPairs
	}

	// Each pair contributes two rows of the standard DLT system:
	//   [x y 1 0 0 0 -x*u -y*u] h = u
	//   [0 0 0 x y 1 -x*v -y*v] h = v
	// where (x,y) is the camera point and (u,v) the play-area point.
	n := len(pairs)
	a := mat.NewDense(2*n, 8, nil)
	b := mat.NewVecDense(2*n, nil)

	for i, pair := range pairs {
		x, y := pair.Camera.X, pair.Camera.Y
		u, v := pair.Play.X, pair.Play.Y

		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -x * u, -y * u})
		b.SetVec(2*i, u)

		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -x * v, -y * v})
		b.SetVec(2*i+1, v)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("solve perspective transform: %w", err)
	}

	profile := &Profile{}
	for i := 0; i < 8; i++ {
		profile.H[i] = h.AtVec(i)
	}
	profile.H[8] = 1

	// Verify the fit by re-projecting every calibration pair.
	for _, pair := range pairs {
		residual := profile.Apply(pair.Camera).Dist(pair.Play)
		if residual > profile.MaxResidual {
			profile.MaxResidual = residual
		}
	}
	if profile.MaxResidual > maxResidual {
		return nil, fmt.Errorf("%w: %.2f > %.2f", ErrCalibrationFailed, profile.MaxResidual, maxResidual)
	}

	return profile, nil
}

// Calibrator accumulates correspondence pairs during a calibration phase.
type Calibrator struct {
	pairs []Pair
}

// NewCalibrator creates an empty Calibrator.
func NewCalibrator() *Calibrator {
	return &Calibrator{}
}

// Add records one correspondence pair.
func (c *Calibrator) Add(camera, play Point) {
	c.pairs = append(c.pairs, Pair{Camera: camera, Play: play})
}

// Count returns the number of collected pairs.
func (c *Calibrator) Count() int {
	return len(c.pairs)
}

// Reset discards all collected pairs so a failed calibration can be retried.
func (c *Calibrator) Reset() {
	c.pairs = c.pairs[:0]
}

// Solve computes a Profile from the collected pairs. The pairs are retained
// on failure so the caller can add more and retry.
func (c *Calibrator) Solve(maxResidual float64) (*Profile, error) {
	return Solve(c.pairs, maxResidual)
}
