package match

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"fpmatch/pkg/geometry"
)

// refineRigid recomputes the best-fit rigid transform (rotation + translation,
// no scale) over a set of inlier correspondences using the cross/dot-product
// closed form, mirroring internal/alignment/transform.go's
// computeRigidLeastSquares. The Hough search only snaps to a coarse bin grid
// (2px translation, 3 degree rotation); refining over the confirmed inliers
// gives a continuous-valued transform for callers that need to warp or
// overlay a gallery template onto the probe frame.
func refineRigid(src, dst []geometry.Point2D) (geometry.AffineTransform, bool) {
	n := len(src)
	if n < 2 || len(dst) != n {
		return geometry.AffineTransform{}, false
	}

	srcC := geometry.Centroid(src)
	dstC := geometry.Centroid(dst)

	var dotSum, crossSum float64
	for i := range src {
		sx, sy := src[i].X-srcC.X, src[i].Y-srcC.Y
		dx, dy := dst[i].X-dstC.X, dst[i].Y-dstC.Y
		dotSum += sx*dx + sy*dy
		crossSum += sx*dy - sy*dx
	}

	theta := math.Atan2(crossSum, dotSum)
	cosT, sinT := math.Cos(theta), math.Sin(theta)

	tx := dstC.X - (cosT*srcC.X - sinT*srcC.Y)
	ty := dstC.Y - (sinT*srcC.X + cosT*srcC.Y)

	return geometry.AffineTransform{
		A: cosT, B: -sinT, TX: tx,
		C: sinT, D: cosT, TY: ty,
	}, true
}

// refineAffineLeastSquares fits a full 6-parameter affine transform (allowing
// scale/shear) over the inlier correspondences via QR decomposition,
// mirroring internal/alignment/transform.go's computeAffineLeastSquares. Used
// as a diagnostic alternative to the rigid fit when a caller wants to check
// how far a match deviates from a pure rotation+translation.
func refineAffineLeastSquares(src, dst []geometry.Point2D) (geometry.AffineTransform, bool) {
	n := len(src)
	if n < 3 || len(dst) != n {
		return geometry.AffineTransform{}, false
	}

	A := mat.NewDense(n*2, 6, nil)
	B := mat.NewVecDense(n*2, nil)
	for i := 0; i < n; i++ {
		x, y := src[i].X, src[i].Y
		xp, yp := dst[i].X, dst[i].Y

		A.Set(i*2, 0, x)
		A.Set(i*2, 1, y)
		A.Set(i*2, 2, 1)
		B.SetVec(i*2, xp)

		A.Set(i*2+1, 3, x)
		A.Set(i*2+1, 4, y)
		A.Set(i*2+1, 5, 1)
		B.SetVec(i*2+1, yp)
	}

	var qr mat.QR
	qr.Factorize(A)

	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, B); err != nil {
		return geometry.AffineTransform{}, false
	}

	return geometry.AffineTransform{
		A:  params.AtVec(0),
		B:  params.AtVec(1),
		TX: params.AtVec(2),
		C:  params.AtVec(3),
		D:  params.AtVec(4),
		TY: params.AtVec(5),
	}, true
}
