package fpimage

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// syntheticRidges builds a small oriented sinusoidal ridge pattern at 2x
// the target resolution, then downsamples it with golang.org/x/image/draw's
// bilinear scaler -- the legitimate home for x/image in this module, since
// the pipeline itself never decodes raw sensor bytes in-process.
func syntheticRidges(width, height int, periodPx float64, angleRad float64) *Image {
	bigW, bigH := width*2, height*2
	src := image.NewGray(image.Rect(0, 0, bigW, bigH))

	cos, sin := math.Cos(angleRad), math.Sin(angleRad)
	for y := 0; y < bigH; y++ {
		for x := 0; x < bigW; x++ {
			// Project (x, y) onto the ridge-normal direction to get a
			// travelling sinusoid oriented at angleRad.
			proj := float64(x)*cos + float64(y)*sin
			v := 128 + 100*math.Sin(2*math.Pi*proj/periodPx)
			src.SetGray(x, y, color.Gray{Y: clampByte(v)})
		}
	}

	dst := image.NewGray(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	out := NewImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out.Set(x, y, dst.GrayAt(x, y).Y)
		}
	}
	return out
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
