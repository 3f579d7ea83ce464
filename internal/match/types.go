// Package match recovers the rigid transform (rotation + translation)
// aligning two minutiae templates via a 3-D Hough accumulator over
// (delta-x, delta-y, theta), then counts greedy one-to-one inliers under
// that transform.
package match

import (
	"math"

	"fpmatch/internal/minutiae"
	"fpmatch/pkg/geometry"
)

// Result is the outcome of matching a probe template against a gallery
// template.
type Result struct {
	OK          bool
	Inliers     int
	Score       float64 // inliers / min(|P|, |G|)
	DX, DY      float64
	RotationRad float64
	Votes       int

	// Refined is the continuous-valued rigid transform fit over the
	// confirmed inlier correspondences by least squares, refining past the
	// Hough search's coarse bin grid. Nil when fewer than 2 inliers were
	// found.
	Refined *geometry.AffineTransform
}

// Params configures the Hough search and the inlier-acceptance tolerances.
type Params struct {
	AngleStepDeg   float64
	AngleRangeDeg  float64
	DxDyBinStep    float64
	AngleToleranceDeg float64
	DistLimit      float64
}

// DefaultParams returns the spec's 3-degree rotation step over +/-30
// degrees, 2px Hough bins, 16-degree angle tolerance and 12px distance
// limit.
func DefaultParams() Params {
	return Params{
		AngleStepDeg:      3,
		AngleRangeDeg:     30,
		DxDyBinStep:       2,
		AngleToleranceDeg: 16,
		DistLimit:         12,
	}
}

// minu is the internal working representation of a minutia: centered
// coordinates relative to the probe centroid (root), plus its unoriented
// ridge angle in radians.
type minu struct {
	x, y     float64 // original image-space coordinates
	cx, cy   float64 // centered frame: cx = x - rootX, cy = rootY - y
	angleRad float64 // [0, pi)
}

func toMinu(m minutiae.Minutia, rootX, rootY float64) minu {
	return minu{
		x:        float64(m.X),
		y:        float64(m.Y),
		cx:       float64(m.X) - rootX,
		cy:       rootY - float64(m.Y),
		angleRad: m.Angle * math.Pi / 180,
	}
}
