package match

import (
	"math"
	"runtime"
	"sync"

	"fpmatch/internal/minutiae"
)

// bins3D is a flat (x, y, theta) accumulator, x slowest-varying so that a
// linear scan visits cells in the lexicographic (dx, dy, theta) order
// spec.md's tie-break rule requires.
type bins3D struct {
	xBins, yBins, thetaBins []float64
	cells                   []int
}

func newBins3D(xBins, yBins, thetaBins []float64) *bins3D {
	return &bins3D{
		xBins:      xBins,
		yBins:      yBins,
		thetaBins:  thetaBins,
		cells:      make([]int, len(xBins)*len(yBins)*len(thetaBins)),
	}
}

func (b *bins3D) index(ix, iy, it int) int {
	ny, nt := len(b.yBins), len(b.thetaBins)
	return ix*ny*nt + iy*nt + it
}

func (b *bins3D) addFrom(other *bins3D) {
	for i, v := range other.cells {
		b.cells[i] += v
	}
}

// peak scans cells in lexicographic (dx, dy, theta) bin order and returns
// the first cell to reach the maximum vote count, per spec.md's explicit
// "first encountered" tie-break.
func (b *bins3D) peak() (ix, iy, it, votes int) {
	best := -1
	nx, ny, nt := len(b.xBins), len(b.yBins), len(b.thetaBins)
	for x := 0; x < nx; x++ {
		for y := 0; y < ny; y++ {
			for t := 0; t < nt; t++ {
				v := b.cells[b.index(x, y, t)]
				if v > best {
					best = v
					ix, iy, it = x, y, t
				}
			}
		}
	}
	return ix, iy, it, best
}

// numpyArange reproduces numpy.arange(start, stop, step): values
// start, start+step, ... while strictly less than stop.
func numpyArange(start, stop, step float64) []float64 {
	if step == 0 {
		return nil
	}
	var out []float64
	if step > 0 {
		for v := start; v < stop; v += step {
			out = append(out, v)
		}
	} else {
		for v := start; v > stop; v += step {
			out = append(out, v)
		}
	}
	return out
}

// snapIndex returns the index of the bin in an evenly-spaced ascending
// slice nearest to v.
func snapIndex(bins []float64, v float64) int {
	if len(bins) == 0 {
		return 0
	}
	step := bins[1] - bins[0]
	if len(bins) < 2 || step == 0 {
		return 0
	}
	idx := int(math.Round((v - bins[0]) / step))
	if idx < 0 {
		idx = 0
	}
	if idx > len(bins)-1 {
		idx = len(bins) - 1
	}
	return idx
}

// angleDiff returns the minimal distance between two unoriented ridge
// angles (period pi), folded into [0, pi/2].
func angleDiff(a, b float64) float64 {
	d := math.Mod(a-b, math.Pi)
	if d < 0 {
		d += math.Pi
	}
	if d > math.Pi/2 {
		d = math.Pi - d
	}
	return d
}

// houghBins builds the Delta-x / Delta-y / theta bin axes for a probe/gallery
// pair: theta in {-30, ..., 30} step 3 degrees; Delta-x, Delta-y spanning
// the union bounding box of both point sets, step 2px either way.
func houghBins(probe, gallery []minutiae.Minutia, p Params) (xBins, yBins, thetaBins []float64) {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	scan := func(ms []minutiae.Minutia) {
		for _, m := range ms {
			x, y := float64(m.X), float64(m.Y)
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	scan(probe)
	scan(gallery)

	wx := (maxX - minX) + 1
	wy := (maxY - minY) + 1

	xBins = numpyArange(-wx, wx+1, p.DxDyBinStep)
	yBins = numpyArange(-wy, wy+1, p.DxDyBinStep)
	thetaBins = numpyArange(-p.AngleRangeDeg, p.AngleRangeDeg+1, p.AngleStepDeg)
	return
}

// accumulateHough casts votes for every (p, g, theta) triple whose
// orientations are consistent within AngleToleranceDeg, following
// original_source/extractor/verify/matcher.py::_accumulate_hough's bin
// layout. Vote accumulation is parallelized across probe points, one local
// accumulator per worker, summed after sync.WaitGroup -- the same
// partition/accumulate/merge shape as
// internal/via/match.go::findCandidateMatchesParallel.
func accumulateHough(probeMinu, galleryMinu []minu, xBins, yBins, thetaBins []float64, angleToleranceRad float64) *bins3D {
	total := newBins3D(xBins, yBins, thetaBins)
	if len(probeMinu) == 0 || len(galleryMinu) == 0 {
		return total
	}

	numWorkers := runtime.NumCPU()
	if numWorkers < 1 {
		numWorkers = 1
	}
	if numWorkers > len(probeMinu) {
		numWorkers = len(probeMinu)
	}
	chunk := (len(probeMinu) + numWorkers - 1) / numWorkers

	partials := make([]*bins3D, numWorkers)
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		start := w * chunk
		end := start + chunk
		if end > len(probeMinu) {
			end = len(probeMinu)
		}
		if start >= end {
			continue
		}
		local := newBins3D(xBins, yBins, thetaBins)
		partials[w] = local
		wg.Add(1)
		go func(start, end int, local *bins3D) {
			defer wg.Done()
			for pi := start; pi < end; pi++ {
				p := probeMinu[pi]
				for _, g := range galleryMinu {
					for it, thetaDeg := range thetaBins {
						thetaRad := thetaDeg * math.Pi / 180
						if angleDiff(p.angleRad, g.angleRad+thetaRad) > angleToleranceRad {
							continue
						}
						cos, sin := math.Cos(thetaRad), math.Sin(thetaRad)
						gxr := g.cx*cos - g.cy*sin
						gyr := g.cx*sin + g.cy*cos
						dx := p.cx - gxr
						dy := p.cy - gyr

						ix := snapIndex(xBins, dx)
						iy := snapIndex(yBins, dy)
						local.cells[local.index(ix, iy, it)]++
					}
				}
			}
		}(start, end, local)
	}
	wg.Wait()

	for _, local := range partials {
		if local != nil {
			total.addFrom(local)
		}
	}
	return total
}
