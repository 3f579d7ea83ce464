package match

import (
	"math"

	"fpmatch/pkg/geometry"

	"fpmatch/internal/minutiae"
)

// Match recovers the rigid transform mapping gallery onto probe via the
// Hough accumulator, then counts greedy one-to-one inliers under that
// transform. Returns ok=false, score=0 if either template is empty.
func Match(probe, gallery minutiae.Template, p Params) Result {
	probeList := probe.Minutiae
	galleryList := gallery.Minutiae

	if len(probeList) == 0 || len(galleryList) == 0 {
		return Result{OK: false, Score: 0}
	}

	rootX, rootY := centroid(probeList)

	probeMinu := make([]minu, len(probeList))
	for i, m := range probeList {
		probeMinu[i] = toMinu(m, rootX, rootY)
	}
	galleryMinu := make([]minu, len(galleryList))
	for i, m := range galleryList {
		galleryMinu[i] = toMinu(m, rootX, rootY)
	}

	xBins, yBins, thetaBins := houghBins(probeList, galleryList, p)
	angleToleranceRad := p.AngleToleranceDeg * math.Pi / 180

	accum := accumulateHough(probeMinu, galleryMinu, xBins, yBins, thetaBins, angleToleranceRad)
	ix, iy, it, votes := accum.peak()

	dx := xBins[ix]
	dy := yBins[iy]
	thetaDeg := thetaBins[it]
	thetaRad := thetaDeg * math.Pi / 180

	inliers, gallerySrc, probeDst := matchInliers(probeMinu, galleryMinu, rootX, rootY, dx, dy, thetaRad, p)

	minCount := len(probeList)
	if len(galleryList) < minCount {
		minCount = len(galleryList)
	}
	score := 0.0
	if minCount > 0 {
		score = float64(inliers) / float64(minCount)
	}

	var refined *geometry.AffineTransform
	if t, ok := refineRigid(gallerySrc, probeDst); ok {
		refined = &t
	}

	return Result{
		OK:          true,
		Inliers:     inliers,
		Score:       score,
		DX:          dx,
		DY:          dy,
		RotationRad: thetaRad,
		Votes:       votes,
		Refined:     refined,
	}
}

func centroid(ms []minutiae.Minutia) (x, y float64) {
	pts := make([]geometry.Point2D, len(ms))
	for i, m := range ms {
		pts[i] = geometry.Point2D{X: float64(m.X), Y: float64(m.Y)}
	}
	c := geometry.Centroid(pts)
	return c.X, c.Y
}
