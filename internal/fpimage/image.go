// Package fpimage holds the grayscale image type and the per-pixel field
// maps (orientation, coherence) that flow through the enhancement and
// minutiae stages, plus the Mat<->Image conversions and numerical helpers
// they share.
package fpimage

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Image is a dense 8-bit grayscale raster, origin top-left, y growing down.
type Image struct {
	Width, Height int
	Pix           []uint8 // row-major, len == Width*Height
}

// NewImage allocates a zeroed image of the given size.
func NewImage(width, height int) *Image {
	return &Image{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// At returns the pixel value at (x, y).
func (img *Image) At(x, y int) uint8 {
	return img.Pix[y*img.Width+x]
}

// Set writes the pixel value at (x, y).
func (img *Image) Set(x, y int, v uint8) {
	img.Pix[y*img.Width+x] = v
}

// FromMat builds an Image from a single-channel 8-bit gocv.Mat.
func FromMat(m gocv.Mat) (*Image, error) {
	if m.Empty() {
		return nil, fmt.Errorf("fpimage: source mat is empty")
	}
	if m.Channels() != 1 {
		return nil, fmt.Errorf("fpimage: expected single-channel mat, got %d channels", m.Channels())
	}
	rows, cols := m.Rows(), m.Cols()
	img := NewImage(cols, rows)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			img.Set(x, y, m.GetUCharAt(y, x))
		}
	}
	return img, nil
}

// ToMat converts the image to a single-channel 8-bit gocv.Mat the caller
// owns and must Close.
func (img *Image) ToMat() gocv.Mat {
	m := gocv.NewMatWithSize(img.Height, img.Width, gocv.MatTypeCV8U)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			m.SetUCharAt(y, x, img.At(x, y))
		}
	}
	return m
}

// OrientationMap stores the per-pixel orientation field in radians, confined
// to [-pi/2, pi/2): the structure tensor's dominant gradient direction,
// normal to the ridge lines. It is unoriented: theta and theta+pi describe
// the same ridge.
type OrientationMap struct {
	Width, Height int
	Theta         []float32 // row-major, len == Width*Height
}

// NewOrientationMap allocates a zeroed orientation map.
func NewOrientationMap(width, height int) *OrientationMap {
	return &OrientationMap{Width: width, Height: height, Theta: make([]float32, width*height)}
}

// At returns the orientation at (x, y).
func (o *OrientationMap) At(x, y int) float32 {
	return o.Theta[y*o.Width+x]
}

// Set writes the orientation at (x, y).
func (o *OrientationMap) Set(x, y int, v float32) {
	o.Theta[y*o.Width+x] = v
}

// CoherenceMap stores per-pixel structure-tensor coherence in [0, 1].
type CoherenceMap struct {
	Width, Height int
	Coh           []float32 // row-major, len == Width*Height
}

// NewCoherenceMap allocates a zeroed coherence map.
func NewCoherenceMap(width, height int) *CoherenceMap {
	return &CoherenceMap{Width: width, Height: height, Coh: make([]float32, width*height)}
}

// At returns the coherence at (x, y).
func (c *CoherenceMap) At(x, y int) float32 {
	return c.Coh[y*c.Width+x]
}

// Set writes the coherence at (x, y).
func (c *CoherenceMap) Set(x, y int, v float32) {
	c.Coh[y*c.Width+x] = v
}

// Bilinear samples a row-major float32 field of the given dimensions at a
// continuous (x, y), clamping the sample point to the field's bounds. Used
// to attribute orientation and coherence to minutiae located between pixel
// centers.
func Bilinear(field []float32, width, height int, x, y float64) float64 {
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	maxX := float64(width - 1)
	maxY := float64(height - 1)
	if x > maxX {
		x = maxX
	}
	if y > maxY {
		y = maxY
	}

	x0 := int(x)
	y0 := int(y)
	x1 := x0 + 1
	y1 := y0 + 1
	if x1 > width-1 {
		x1 = width - 1
	}
	if y1 > height-1 {
		y1 = height - 1
	}

	fx := x - float64(x0)
	fy := y - float64(y0)

	v00 := float64(field[y0*width+x0])
	v10 := float64(field[y0*width+x1])
	v01 := float64(field[y1*width+x0])
	v11 := float64(field[y1*width+x1])

	top := v00*(1-fx) + v10*fx
	bottom := v01*(1-fx) + v11*fx
	return top*(1-fy) + bottom*fy
}
