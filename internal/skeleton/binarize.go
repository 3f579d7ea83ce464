// Package skeleton binarizes an enhanced fingerprint image and reduces the
// ridge regions to a 1-pixel-wide 8-connected skeleton via Guo-Hall
// thinning, followed by spur pruning.
package skeleton

import (
	"gocv.io/x/gocv"

	"fpmatch/internal/fpimage"
)

// BinarizeParams configures adaptive-threshold binarization.
type BinarizeParams struct {
	WindowSize int
	C          float64
}

// DefaultBinarizeParams returns window=21, C=5.
func DefaultBinarizeParams() BinarizeParams {
	return BinarizeParams{WindowSize: 21, C: 5}
}

// WithWindowSize overrides the adaptive-threshold window.
func (p BinarizeParams) WithWindowSize(size int) BinarizeParams {
	p.WindowSize = size
	return p
}

// Binarize thresholds the enhanced image with an adaptive Gaussian
// threshold, inverts so ridges are 255, then denoises with a 3x3 median.
func Binarize(enhanced *fpimage.Image, p BinarizeParams) *fpimage.Image {
	src := enhanced.ToMat()
	defer src.Close()

	window := p.WindowSize
	if window%2 == 0 {
		window++
	}
	if window < 3 {
		window = 3
	}

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.AdaptiveThreshold(src, &binary, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinaryInv, window, float32(p.C))

	denoised := gocv.NewMat()
	defer denoised.Close()
	gocv.MedianBlur(binary, &denoised, 3)

	out, err := fpimage.FromMat(denoised)
	if err != nil {
		return fpimage.NewImage(enhanced.Width, enhanced.Height)
	}
	return out
}
