// Package enhance applies a block-wise oriented Gabor filter bank to a
// normalized fingerprint image, guided by the orientation and coherence
// fields computed upstream in internal/fpimage.
package enhance

import (
	"image"
	"math"

	"gocv.io/x/gocv"

	"fpmatch/internal/fpimage"
)

// Params configures the Gabor-bank enhancement stage.
type Params struct {
	BlockSize       int
	Orientations    int
	KernelSize      int
	Sigma           float64
	Lambda          float64
	Gamma           float64
	MaskMeanMin     float64
	CoherenceMin    float64
	ClosingEllipse  int
}

// DefaultParams returns the 16x16 block, 16-orientation, 21x21 kernel bank
// configuration from spec.md.
func DefaultParams() Params {
	return Params{
		BlockSize:      16,
		Orientations:   16,
		KernelSize:     21,
		Sigma:          4,
		Lambda:         10,
		Gamma:          0.6,
		MaskMeanMin:    5,
		CoherenceMin:   0.20,
		ClosingEllipse: 3,
	}
}

// WithBlockSize overrides the block grid size.
func (p Params) WithBlockSize(size int) Params {
	p.BlockSize = size
	return p
}

// WithOrientations overrides the bank's orientation count.
func (p Params) WithOrientations(n int) Params {
	p.Orientations = n
	return p
}

// Enhance runs the block-wise Gabor filter over norm, using orient/coh to
// pick the kernel per block and mask to decide which blocks qualify.
// Non-qualifying blocks are left zero; the result is normalized to [0,255],
// pixels outside the ROI mask are reset to norm's value, and the image is
// closed with a small ellipse.
func Enhance(norm *fpimage.Image, orient *fpimage.OrientationMap, coh *fpimage.CoherenceMap, mask *fpimage.Image, p Params) *fpimage.Image {
	bank := BuildBank(p.Orientations, p.KernelSize, p.Sigma, p.Lambda, p.Gamma)
	defer bank.Close()

	srcMat := norm.ToMat()
	defer srcMat.Close()
	srcMat32 := gocv.NewMat()
	defer srcMat32.Close()
	srcMat.ConvertTo(&srcMat32, gocv.MatTypeCV32F)

	// Lazily filter the whole image with a kernel the first time a block
	// requests it; most blocks share a handful of dominant orientations.
	filteredByIndex := make(map[int]gocv.Mat)
	defer func() {
		for _, m := range filteredByIndex {
			m.Close()
		}
	}()

	out := fpimage.NewImage(norm.Width, norm.Height)
	block := p.BlockSize
	if block < 1 {
		block = 1
	}

	for by := 0; by < norm.Height; by += block {
		for bx := 0; bx < norm.Width; bx += block {
			y1 := by + block
			if y1 > norm.Height {
				y1 = norm.Height
			}
			x1 := bx + block
			if x1 > norm.Width {
				x1 = norm.Width
			}

			maskSum := 0.0
			cohSum := 0.0
			sinSum := 0.0
			cosSum := 0.0
			count := 0
			for y := by; y < y1; y++ {
				for x := bx; x < x1; x++ {
					maskSum += float64(mask.At(x, y))
					cohSum += float64(coh.At(x, y))
					theta := float64(orient.At(x, y))
					sinSum += math.Sin(2 * theta)
					cosSum += math.Cos(2 * theta)
					count++
				}
			}
			if count == 0 {
				continue
			}
			maskMean := maskSum / float64(count)
			cohMean := cohSum / float64(count)
			if maskMean < p.MaskMeanMin || cohMean < p.CoherenceMin {
				continue
			}

			thetaMean := 0.5 * math.Atan2(sinSum/float64(count), cosSum/float64(count))
			wrapped := math.Mod(thetaMean, math.Pi)
			if wrapped < 0 {
				wrapped += math.Pi
			}
			idx := bank.Index(wrapped)

			filtered, ok := filteredByIndex[idx]
			if !ok {
				filtered = gocv.NewMat()
				gocv.Filter2D(srcMat32, &filtered, -1, bank.Kernels[idx], image.Point{-1, -1}, 0, gocv.BorderDefault)
				filteredByIndex[idx] = filtered
			}

			for y := by; y < y1; y++ {
				for x := bx; x < x1; x++ {
					v := filtered.GetFloatAt(y, x)
					out.Set(x, y, clampToByte(float64(v)))
				}
			}
		}
	}

	normalizeInPlace(out)
	applyMask(out, norm, mask)
	return closeSmall(out, p.ClosingEllipse)
}

func clampToByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// normalizeInPlace rescales out's pixel range to [0, 255].
func normalizeInPlace(out *fpimage.Image) {
	if len(out.Pix) == 0 {
		return
	}
	min, max := out.Pix[0], out.Pix[0]
	for _, v := range out.Pix {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max == min {
		return
	}
	scale := 255.0 / float64(max-min)
	for i, v := range out.Pix {
		out.Pix[i] = clampToByte((float64(v) - float64(min)) * scale)
	}
}

// applyMask restores norm's pixel value at every position outside the ROI
// mask, per spec.md's post-enhancement invariant that non-ROI pixels equal
// the normalized input (within rounding) rather than being blanked out.
func applyMask(out, norm, mask *fpimage.Image) {
	for i := range out.Pix {
		if mask.Pix[i] == 0 {
			out.Pix[i] = norm.Pix[i]
		}
	}
}

func closeSmall(out *fpimage.Image, ellipseSize int) *fpimage.Image {
	if ellipseSize < 1 {
		return out
	}
	m := out.ToMat()
	defer m.Close()
	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Point{X: ellipseSize, Y: ellipseSize})
	defer kernel.Close()
	gocv.MorphologyEx(m, &m, gocv.MorphClose, kernel)
	result, err := fpimage.FromMat(m)
	if err != nil {
		return out
	}
	return result
}
