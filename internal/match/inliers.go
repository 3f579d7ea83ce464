package match

import (
	"math"

	"fpmatch/pkg/geometry"
)

// transformPoint reconstructs a gallery minutia's position and angle under
// the recovered rigid transform. The y-coordinate reconstruction is
// deliberately asymmetric with the forward Hough step: the centered frame
// flips y (cy = rootY - y), but this inverse step recovers y via
// rootY - ry + dy, not rootY - (ry + dy). Both forms are reproduced exactly
// as in original_source/extractor/verify/matcher.py; unifying them would
// silently change the identity-match invariant.
func transformPoint(g minu, rootX, rootY, dx, dy, thetaRad float64) (nx, ny, angle float64) {
	cos, sin := math.Cos(thetaRad), math.Sin(thetaRad)
	rx := g.cx*cos - g.cy*sin
	ry := g.cx*sin + g.cy*cos

	nx = rootX + rx + dx
	ny = rootY - ry + dy

	angle = math.Mod(g.angleRad+thetaRad, math.Pi)
	if angle < 0 {
		angle += math.Pi
	}
	return
}

// matchInliers performs greedy one-to-one matching under the recovered
// transform -- for each probe point in order, accept the first
// not-yet-matched gallery point within DistLimit and AngleToleranceDeg --
// and returns both the inlier count and the original image-space
// correspondence pairs (gallery point -> probe point), so a caller can feed
// the pairs into refineRigid without re-running the scan. Iteration order is
// significant and must not be reordered for parallelism within a single
// match (spec.md design note).
func matchInliers(probeMinu, galleryMinu []minu, rootX, rootY, dx, dy, thetaRad float64, p Params) (int, []geometry.Point2D, []geometry.Point2D) {
	matched := make([]bool, len(galleryMinu))
	angleToleranceRad := p.AngleToleranceDeg * math.Pi / 180

	var gallerySrc, probeDst []geometry.Point2D
	inliers := 0
	for _, pm := range probeMinu {
		for gi, gm := range galleryMinu {
			if matched[gi] {
				continue
			}
			nx, ny, angle := transformPoint(gm, rootX, rootY, dx, dy, thetaRad)
			ddx := pm.x - nx
			ddy := pm.y - ny
			dist := math.Sqrt(ddx*ddx + ddy*ddy)
			if dist > p.DistLimit {
				continue
			}
			if angleDiff(pm.angleRad, angle) > angleToleranceRad {
				continue
			}
			matched[gi] = true
			inliers++
			gallerySrc = append(gallerySrc, geometry.Point2D{X: gm.x, Y: gm.y})
			probeDst = append(probeDst, geometry.Point2D{X: pm.x, Y: pm.y})
			break
		}
	}
	return inliers, gallerySrc, probeDst
}
