// Package fuse merges minutiae from multiple impressions of the same
// finger into a single template via spatial grid bucketing and circular
// mean aggregation.
package fuse

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/circular"

	"fpmatch/internal/minutiae"
)

// Params configures grid-bucket fusion.
type Params struct {
	GridSize        float64
	MinQuality      float64
	MinBucketMembers int
}

// DefaultParams returns the spec's grid_size=5, quality cutoff 0.35,
// minimum 2-member buckets configuration.
func DefaultParams() Params {
	return Params{GridSize: 5, MinQuality: 0.35, MinBucketMembers: 2}
}

// WithGridSize overrides the bucketing grid size.
func (p Params) WithGridSize(size float64) Params {
	p.GridSize = size
	return p
}

// Debug reports the fusion bookkeeping requested by the external interface.
type Debug struct {
	InputCounts []int
	FusedCount  int
	GridSize    float64
}

type bucketKey struct{ bx, by int }

// Fuse buckets every input minutia by (round(x/grid), round(y/grid)). Each
// bucket with at least MinBucketMembers members contributes one fused
// minutia: mean x/y rounded to the nearest pixel, circular mean angle, mode
// type, mean quality (the bucket is dropped if that mean is below
// MinQuality). Singleton buckets are dropped outright to reduce
// single-impression noise.
func Fuse(templates []minutiae.Template, p Params) (minutiae.Template, Debug) {
	buckets := make(map[bucketKey][]minutiae.Minutia)
	inputCounts := make([]int, len(templates))

	for ti, tmpl := range templates {
		inputCounts[ti] = len(tmpl.Minutiae)
		for _, m := range tmpl.Minutiae {
			key := bucketKey{
				bx: roundInt(float64(m.X) / p.GridSize),
				by: roundInt(float64(m.Y) / p.GridSize),
			}
			buckets[key] = append(buckets[key], m)
		}
	}

	// Stable output order: sort buckets by (bx, by) so repeated runs over
	// the same input are deterministic.
	keys := make([]bucketKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].bx != keys[j].bx {
			return keys[i].bx < keys[j].bx
		}
		return keys[i].by < keys[j].by
	})

	var fused []minutiae.Minutia
	for _, key := range keys {
		members := buckets[key]
		if len(members) < p.MinBucketMembers {
			continue
		}

		var sumX, sumY, sumQ float64
		angles := make([]float64, len(members))
		typeCounts := map[minutiae.Kind]int{}
		typeOrder := make([]minutiae.Kind, 0, 2)
		for i, m := range members {
			sumX += float64(m.X)
			sumY += float64(m.Y)
			sumQ += m.Quality
			angles[i] = m.Angle * math.Pi / 180
			if typeCounts[m.Type] == 0 {
				typeOrder = append(typeOrder, m.Type)
			}
			typeCounts[m.Type]++
		}

		n := float64(len(members))
		meanQ := sumQ / n
		if meanQ < p.MinQuality {
			continue
		}

		meanAngleRad := circular.Mean(angles, nil)
		meanAngleDeg := math.Mod(meanAngleRad*180/math.Pi, 360)
		if meanAngleDeg < 0 {
			meanAngleDeg += 360
		}

		bestType := typeOrder[0]
		for _, t := range typeOrder {
			if typeCounts[t] > typeCounts[bestType] {
				bestType = t
			}
		}

		fused = append(fused, minutiae.Minutia{
			X:       roundInt(sumX / n),
			Y:       roundInt(sumY / n),
			Angle:   meanAngleDeg,
			Type:    bestType,
			Quality: meanQ,
		})
	}

	return minutiae.Template{Minutiae: fused}, Debug{
		InputCounts: inputCounts,
		FusedCount:  len(fused),
		GridSize:    p.GridSize,
	}
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
