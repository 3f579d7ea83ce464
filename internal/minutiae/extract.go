package minutiae

import (
	"math"
	"sort"

	"fpmatch/internal/fpimage"
)

// ExtractParams configures crossing-number extraction and the subsequent
// filtering/NMS/cap pipeline.
type ExtractParams struct {
	Margin        int
	BorderExclude int
	MinQuality    float64
	NMSDistance   float64
	MaxMinutiae   int
}

// DefaultExtractParams returns the spec's margin=8, border=12,
// quality>=0.4, NMS=8px, cap=120 configuration.
func DefaultExtractParams() ExtractParams {
	return ExtractParams{
		Margin:        8,
		BorderExclude: 12,
		MinQuality:    0.4,
		NMSDistance:   8,
		MaxMinutiae:   120,
	}
}

// WithMinQuality overrides the quality cutoff.
func (p ExtractParams) WithMinQuality(q float64) ExtractParams {
	p.MinQuality = q
	return p
}

// WithMaxMinutiae overrides the output cap.
func (p ExtractParams) WithMaxMinutiae(n int) ExtractParams {
	p.MaxMinutiae = n
	return p
}

// Extract scans the skeleton for crossing-number minutiae, attributes each
// candidate an angle/quality sampled (bilinearly) from the orientation and
// coherence maps, filters by border distance and quality, applies
// distance-based non-maximum suppression, and caps the result.
func Extract(skel *fpimage.Image, orient *fpimage.OrientationMap, coh *fpimage.CoherenceMap, p ExtractParams) Template {
	candidates := scanCrossingNumber(skel, orient, coh, p.Margin)
	candidates = filterBorderAndQuality(candidates, skel.Width, skel.Height, p.BorderExclude, p.MinQuality)
	candidates = nonMaxSuppress(candidates, p.NMSDistance)
	candidates = capByQuality(candidates, p.MaxMinutiae)
	return Template{Minutiae: candidates}
}

// scanCrossingNumber walks every pixel at least margin inside the border in
// row-major order (matching internal/via/detector.go::findDistTransformPeaks's
// margin-bounded rows/cols scan), classifying ridge pixels by crossing
// number.
func scanCrossingNumber(skel *fpimage.Image, orient *fpimage.OrientationMap, coh *fpimage.CoherenceMap, margin int) []Minutia {
	w, h := skel.Width, skel.Height
	var out []Minutia

	at := func(x, y int) bool {
		return skel.At(x, y) != 0
	}

	for y := margin; y < h-margin; y++ {
		for x := margin; x < w-margin; x++ {
			if !at(x, y) {
				continue
			}

			p2 := at(x, y-1)
			p3 := at(x+1, y-1)
			p4 := at(x+1, y)
			p5 := at(x+1, y+1)
			p6 := at(x, y+1)
			p7 := at(x-1, y+1)
			p8 := at(x-1, y)
			p9 := at(x-1, y-1)
			cn := crossingNumber([8]bool{p2, p3, p4, p5, p6, p7, p8, p9})

			var kind Kind
			switch cn {
			case 1:
				kind = Ending
			case 3:
				kind = Bifurcation
			default:
				continue
			}

			theta := fpimage.Bilinear(orient.Theta, orient.Width, orient.Height, float64(x), float64(y))
			quality := fpimage.Bilinear(coh.Coh, coh.Width, coh.Height, float64(x), float64(y))
			if quality < 0 {
				quality = 0
			}
			if quality > 1 {
				quality = 1
			}

			angleDeg := math.Mod(theta*180/math.Pi+180, 180)
			if angleDeg < 0 {
				angleDeg += 180
			}

			out = append(out, Minutia{
				X:       x,
				Y:       y,
				Angle:   angleDeg,
				Type:    kind,
				Quality: quality,
			})
		}
	}
	return out
}

func crossingNumber(n [8]bool) int {
	count := 0
	for i := 0; i < 8; i++ {
		cur := n[i]
		next := n[(i+1)%8]
		if !cur && next {
			count++
		}
	}
	return count
}

func filterBorderAndQuality(in []Minutia, w, h, border int, minQuality float64) []Minutia {
	out := make([]Minutia, 0, len(in))
	for _, m := range in {
		if m.X < border || m.X >= w-border || m.Y < border || m.Y >= h-border {
			continue
		}
		if m.Quality < minQuality {
			continue
		}
		out = append(out, m)
	}
	return out
}

// nonMaxSuppress sorts by quality descending and greedily keeps a point
// only if no already-kept point lies within distance, mirroring
// internal/via/detector.go::deduplicateVias's sort-then-greedy-reject shape.
func nonMaxSuppress(in []Minutia, distance float64) []Minutia {
	sorted := make([]Minutia, len(in))
	copy(sorted, in)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Quality > sorted[j].Quality
	})

	var kept []Minutia
	for _, m := range sorted {
		ok := true
		for _, k := range kept {
			dx := float64(m.X - k.X)
			dy := float64(m.Y - k.Y)
			if math.Sqrt(dx*dx+dy*dy) < distance {
				ok = false
				break
			}
		}
		if ok {
			kept = append(kept, m)
		}
	}
	return kept
}

func capByQuality(in []Minutia, max int) []Minutia {
	if max <= 0 || len(in) <= max {
		return in
	}
	sorted := make([]Minutia, len(in))
	copy(sorted, in)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Quality > sorted[j].Quality
	})
	return sorted[:max]
}
