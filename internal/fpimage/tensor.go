package fpimage

import (
	"image"
	"math"
	"runtime"
	"sync"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"
)

// TensorParams configures structure-tensor orientation/coherence estimation.
type TensorParams struct {
	BlockSize   int
	SmoothSigma float64
}

// DefaultTensorParams returns the 16x16 block, sigma=3 configuration.
func DefaultTensorParams() TensorParams {
	return TensorParams{BlockSize: 16, SmoothSigma: 3}
}

// WithBlockSize overrides the box-accumulation window.
func (p TensorParams) WithBlockSize(size int) TensorParams {
	p.BlockSize = size
	return p
}

// WithSmoothSigma overrides the cos/sin smoothing sigma.
func (p TensorParams) WithSmoothSigma(sigma float64) TensorParams {
	p.SmoothSigma = sigma
	return p
}

const tensorEpsilon = 1e-6

// ComputeStructureTensor estimates ridge orientation and coherence from the
// normalized image via Sobel gradients accumulated over BlockSize windows,
// following the teacher's habit (internal/alignment/transform.go) of
// reaching for gonum/mat whenever a stage needs real linear algebra: the
// 2x2 symmetric eigenproblem per pixel is solved with mat.EigenSym.
func ComputeStructureTensor(img *Image, p TensorParams) (*OrientationMap, *CoherenceMap, error) {
	norm := gocv.NewMatWithSize(img.Height, img.Width, gocv.MatTypeCV32F)
	defer norm.Close()
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			norm.SetFloatAt(y, x, float32(img.At(x, y))/255.0)
		}
	}

	gx := gocv.NewMat()
	defer gx.Close()
	gy := gocv.NewMat()
	defer gy.Close()
	gocv.Sobel(norm, &gx, gocv.MatTypeCV32F, 1, 0, 3, 1, 0, gocv.BorderDefault)
	gocv.Sobel(norm, &gy, gocv.MatTypeCV32F, 0, 1, 3, 1, 0, gocv.BorderDefault)

	jxx := gocv.NewMat()
	defer jxx.Close()
	jyy := gocv.NewMat()
	defer jyy.Close()
	jxy := gocv.NewMat()
	defer jxy.Close()
	gocv.Multiply(gx, gx, &jxx)
	gocv.Multiply(gy, gy, &jyy)
	gocv.Multiply(gx, gy, &jxy)

	block := p.BlockSize
	if block < 1 {
		block = 1
	}
	boxSize := image.Point{X: block, Y: block}
	jxxSmooth := gocv.NewMat()
	defer jxxSmooth.Close()
	jyySmooth := gocv.NewMat()
	defer jyySmooth.Close()
	jxySmooth := gocv.NewMat()
	defer jxySmooth.Close()
	gocv.BoxFilter(jxx, &jxxSmooth, gocv.MatTypeCV32F, boxSize, image.Point{-1, -1}, true, gocv.BorderDefault)
	gocv.BoxFilter(jyy, &jyySmooth, gocv.MatTypeCV32F, boxSize, image.Point{-1, -1}, true, gocv.BorderDefault)
	gocv.BoxFilter(jxy, &jxySmooth, gocv.MatTypeCV32F, boxSize, image.Point{-1, -1}, true, gocv.BorderDefault)

	orient := NewOrientationMap(img.Width, img.Height)
	coh := NewCoherenceMap(img.Width, img.Height)

	numWorkers := runtime.NumCPU()
	if numWorkers < 1 {
		numWorkers = 1
	}
	rowsPerWorker := (img.Height + numWorkers - 1) / numWorkers
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		y0 := w * rowsPerWorker
		y1 := y0 + rowsPerWorker
		if y1 > img.Height {
			y1 = img.Height
		}
		if y0 >= y1 {
			continue
		}
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			for y := y0; y < y1; y++ {
				for x := 0; x < img.Width; x++ {
					jxxV := float64(jxxSmooth.GetFloatAt(y, x))
					jyyV := float64(jyySmooth.GetFloatAt(y, x))
					jxyV := float64(jxySmooth.GetFloatAt(y, x))

					theta := 0.5 * math.Atan2(2*jxyV, jxxV-jyyV)
					lambda1, lambda2 := eigSym2x2(jxxV, jyyV, jxyV)
					c := (lambda1 - lambda2) / (lambda1 + lambda2 + tensorEpsilon)
					if c < 0 {
						c = 0
					}
					if c > 1 {
						c = 1
					}
					orient.Set(x, y, float32(theta))
					coh.Set(x, y, float32(c))
				}
			}
		}(y0, y1)
	}
	wg.Wait()

	return smoothOrientationCoherence(orient, coh, p.SmoothSigma)
}

// eigSym2x2 returns the eigenvalues (descending) of the symmetric matrix
// [[a, b], [b, d]].
func eigSym2x2(a, d, b float64) (lambda1, lambda2 float64) {
	sym := mat.NewSymDense(2, []float64{a, b, b, d})
	var es mat.EigenSym
	if !es.Factorize(sym, false) {
		// Degenerate tensor (e.g. all-zero gradient block); treat as
		// isotropic so coherence collapses to 0.
		return (a + d) / 2, (a + d) / 2
	}
	vals := es.Values(nil) // ascending
	return vals[1], vals[0]
}

// smoothOrientationCoherence blurs cos(2*theta)/sin(2*theta) rather than
// theta directly to avoid phase wraparound at the +/-pi/2 boundary, then
// recovers theta = 0.5*atan2(sin2theta, cos2theta). Coherence is smoothed
// with the same Gaussian kernel.
func smoothOrientationCoherence(orient *OrientationMap, coh *CoherenceMap, sigma float64) (*OrientationMap, *CoherenceMap, error) {
	w, h := orient.Width, orient.Height
	cos2 := gocv.NewMatWithSize(h, w, gocv.MatTypeCV32F)
	defer cos2.Close()
	sin2 := gocv.NewMatWithSize(h, w, gocv.MatTypeCV32F)
	defer sin2.Close()
	cohMat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV32F)
	defer cohMat.Close()

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			theta := float64(orient.At(x, y))
			cos2.SetFloatAt(y, x, float32(math.Cos(2*theta)))
			sin2.SetFloatAt(y, x, float32(math.Sin(2*theta)))
			cohMat.SetFloatAt(y, x, coh.At(x, y))
		}
	}

	ksize := int(math.Round(2 * sigma))
	if ksize < 3 {
		ksize = 3
	}
	if ksize%2 == 0 {
		ksize++
	}
	kernel := image.Point{X: ksize, Y: ksize}

	cos2Smooth := gocv.NewMat()
	defer cos2Smooth.Close()
	sin2Smooth := gocv.NewMat()
	defer sin2Smooth.Close()
	cohSmooth := gocv.NewMat()
	defer cohSmooth.Close()
	gocv.GaussianBlur(cos2, &cos2Smooth, kernel, sigma, sigma, gocv.BorderDefault)
	gocv.GaussianBlur(sin2, &sin2Smooth, kernel, sigma, sigma, gocv.BorderDefault)
	gocv.GaussianBlur(cohMat, &cohSmooth, kernel, sigma, sigma, gocv.BorderDefault)

	outOrient := NewOrientationMap(w, h)
	outCoh := NewCoherenceMap(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c2 := float64(cos2Smooth.GetFloatAt(y, x))
			s2 := float64(sin2Smooth.GetFloatAt(y, x))
			theta := 0.5 * math.Atan2(s2, c2)
			outOrient.Set(x, y, float32(theta))

			c := float64(cohSmooth.GetFloatAt(y, x))
			if c < 0 {
				c = 0
			}
			if c > 1 {
				c = 1
			}
			outCoh.Set(x, y, float32(c))
		}
	}
	return outOrient, outCoh, nil
}
