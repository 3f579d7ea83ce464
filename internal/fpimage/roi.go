package fpimage

import (
	"image"

	"gocv.io/x/gocv"
)

// ROIParams configures the block-variance ridge-region mask.
type ROIParams struct {
	BlockSize        int
	VarianceThresh   float64
	MorphEllipseSize int
}

// DefaultROIParams returns the 16x16 block, variance>20, 7x7 ellipse
// close/open configuration.
func DefaultROIParams() ROIParams {
	return ROIParams{BlockSize: 16, VarianceThresh: 20, MorphEllipseSize: 7}
}

// WithBlockSize overrides the block grid size.
func (p ROIParams) WithBlockSize(size int) ROIParams {
	p.BlockSize = size
	return p
}

// WithVarianceThresh overrides the ridge-bearing variance threshold.
func (p ROIParams) WithVarianceThresh(thresh float64) ROIParams {
	p.VarianceThresh = thresh
	return p
}

// ComputeROIMask partitions img into BlockSize blocks, marks a block
// ridge-bearing when its intensity variance exceeds VarianceThresh, then
// closes then opens the block mask with an ellipse structuring element to
// smooth borders. Follows the same close-then-open idiom as
// internal/via/detector.go::createBrightMask.
func ComputeROIMask(img *Image, p ROIParams) *Image {
	block := p.BlockSize
	if block < 1 {
		block = 1
	}
	mask := NewImage(img.Width, img.Height)

	for by := 0; by < img.Height; by += block {
		for bx := 0; bx < img.Width; bx += block {
			y1 := by + block
			if y1 > img.Height {
				y1 = img.Height
			}
			x1 := bx + block
			if x1 > img.Width {
				x1 = img.Width
			}

			var sum, sqSum float64
			count := 0
			for y := by; y < y1; y++ {
				for x := bx; x < x1; x++ {
					v := float64(img.At(x, y))
					sum += v
					sqSum += v * v
					count++
				}
			}
			if count == 0 {
				continue
			}
			mean := sum / float64(count)
			variance := sqSum/float64(count) - mean*mean

			var fill uint8
			if variance > p.VarianceThresh {
				fill = 255
			}
			for y := by; y < y1; y++ {
				for x := bx; x < x1; x++ {
					mask.Set(x, y, fill)
				}
			}
		}
	}

	m := mask.ToMat()
	defer m.Close()

	ellipseSize := p.MorphEllipseSize
	if ellipseSize < 1 {
		ellipseSize = 1
	}
	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Point{X: ellipseSize, Y: ellipseSize})
	defer kernel.Close()

	gocv.MorphologyEx(m, &m, gocv.MorphClose, kernel)
	gocv.MorphologyEx(m, &m, gocv.MorphOpen, kernel)

	out, err := FromMat(m)
	if err != nil {
		return mask
	}
	return out
}
