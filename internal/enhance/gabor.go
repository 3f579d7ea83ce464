package enhance

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// Bank is a precomputed set of oriented Gabor kernels, one per discretized
// angle i*pi/N for i in [0, N).
type Bank struct {
	Orientations int
	Kernels      []gocv.Mat
}

// BuildBank constructs a Gabor kernel bank. Built once per Enhance call, as
// the teacher repo prefers explicit per-call construction over hidden
// process-wide caches (spec allows hoisting this to a cache keyed by
// parameters without changing semantics; this module does not).
func BuildBank(orientations, ksize int, sigma, lambda, gamma float64) *Bank {
	bank := &Bank{Orientations: orientations, Kernels: make([]gocv.Mat, orientations)}
	for i := 0; i < orientations; i++ {
		theta := float64(i) * math.Pi / float64(orientations)
		bank.Kernels[i] = gocv.GetGaborKernel(
			image.Point{X: ksize, Y: ksize},
			sigma, theta, lambda, gamma, 0, gocv.MatTypeCV32F,
		)
	}
	return bank
}

// Close releases every kernel in the bank.
func (b *Bank) Close() {
	for i := range b.Kernels {
		b.Kernels[i].Close()
	}
}

// Index returns the bank index nearest to a ridge orientation already
// wrapped into [0, pi).
func (b *Bank) Index(thetaWrapped float64) int {
	step := math.Pi / float64(b.Orientations)
	idx := int(math.Round(thetaWrapped/step)) % b.Orientations
	if idx < 0 {
		idx += b.Orientations
	}
	return idx
}
