package skeleton

import (
	"image"

	"gocv.io/x/gocv"

	"fpmatch/internal/fpimage"
)

// PruneParams configures spur removal.
type PruneParams struct {
	Iterations      int
	MinComponentSize int
}

// DefaultPruneParams returns 3 spur-removal iterations and a 5px minimum
// component size.
func DefaultPruneParams() PruneParams {
	return PruneParams{Iterations: 3, MinComponentSize: 5}
}

// spurKernelValues mirrors original_source/extractor/get_template/skeleton.py's
// leaf-detection convolution: a ridge pixel (worth 10) with exactly one
// ridge neighbour (worth 1 each) sums to 11 under this kernel.
var spurKernelValues = [9]float32{
	1, 1, 1,
	1, 10, 1,
	1, 1, 1,
}

func newSpurKernel() gocv.Mat {
	k := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	for i, v := range spurKernelValues {
		k.SetFloatAt(i/3, i%3, v)
	}
	return k
}

// Prune deletes skeleton endpoints (leaves) for Iterations passes, then
// removes any remaining 8-connected component smaller than MinComponentSize
// pixels via gocv.ConnectedComponentsWithStats.
func Prune(skel *fpimage.Image, p PruneParams) *fpimage.Image {
	out := cloneImage(skel)
	kernel := newSpurKernel()
	defer kernel.Close()

	for i := 0; i < p.Iterations; i++ {
		if !pruneOnce(out, kernel) {
			break
		}
	}

	removeSmallComponents(out, p.MinComponentSize)
	return out
}

func pruneOnce(img *fpimage.Image, kernel gocv.Mat) bool {
	src := gocv.NewMatWithSize(img.Height, img.Width, gocv.MatTypeCV32F)
	defer src.Close()
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if img.At(x, y) != 0 {
				src.SetFloatAt(y, x, 1)
			}
		}
	}

	response := gocv.NewMat()
	defer response.Close()
	gocv.Filter2D(src, &response, -1, kernel, image.Point{-1, -1}, 0, gocv.BorderConstant)

	changed := false
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if img.At(x, y) == 0 {
				continue
			}
			if response.GetFloatAt(y, x) == 11 {
				img.Set(x, y, 0)
				changed = true
			}
		}
	}
	return changed
}

func removeSmallComponents(img *fpimage.Image, minSize int) {
	m := img.ToMat()
	defer m.Close()

	labels := gocv.NewMat()
	defer labels.Close()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()

	const areaCol = 4 // CC_STAT_AREA column in the stats matrix
	numLabels := gocv.ConnectedComponentsWithStats(m, &labels, &stats, &centroids, 8, gocv.MatTypeCV32S, gocv.CCL_DEFAULT)

	for label := 1; label < numLabels; label++ {
		area := stats.GetIntAt(label, areaCol)
		if int(area) >= minSize {
			continue
		}
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				if labels.GetIntAt(y, x) == int32(label) {
					img.Set(x, y, 0)
				}
			}
		}
	}
}

func cloneImage(img *fpimage.Image) *fpimage.Image {
	out := fpimage.NewImage(img.Width, img.Height)
	copy(out.Pix, img.Pix)
	return out
}
