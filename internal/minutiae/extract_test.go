package minutiae

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fpmatch/internal/fpimage"
)

func TestCrossingNumberEndingAndBifurcation(t *testing.T) {
	// A single neighbour present -> one 0->1 transition -> ending.
	ending := [8]bool{true, false, false, false, false, false, false, false}
	assert.Equal(t, 1, crossingNumber(ending))

	// Three separated neighbours -> three transitions -> bifurcation.
	bifurcation := [8]bool{true, false, true, false, true, false, false, false}
	assert.Equal(t, 3, crossingNumber(bifurcation))

	// A solid run of neighbours -> a single transition -> ending, not a ridge point.
	run := [8]bool{true, true, true, false, false, false, false, false}
	assert.Equal(t, 1, crossingNumber(run))
}

func TestFilterBorderAndQuality(t *testing.T) {
	in := []Minutia{
		{X: 1, Y: 1, Quality: 0.9},  // too close to border
		{X: 20, Y: 20, Quality: 0.1}, // low quality
		{X: 20, Y: 20, Quality: 0.5}, // keep
	}
	out := filterBorderAndQuality(in, 40, 40, 12, 0.4)
	assert.Len(t, out, 1)
	assert.Equal(t, 0.5, out[0].Quality)
}

func TestNonMaxSuppressKeepsHighestQualityAndDrops(t *testing.T) {
	in := []Minutia{
		{X: 10, Y: 10, Quality: 0.9},
		{X: 12, Y: 10, Quality: 0.5}, // within 8px of the first, should be dropped
		{X: 40, Y: 40, Quality: 0.6}, // far away, should survive
	}
	out := nonMaxSuppress(in, 8)
	assert.Len(t, out, 2)
	assert.Equal(t, 0.9, out[0].Quality)
	assert.Equal(t, 0.6, out[1].Quality)
}

func TestCapByQualityTruncatesToStrongest(t *testing.T) {
	in := []Minutia{
		{Quality: 0.1}, {Quality: 0.9}, {Quality: 0.5}, {Quality: 0.7},
	}
	out := capByQuality(in, 2)
	assert.Len(t, out, 2)
	assert.Equal(t, 0.9, out[0].Quality)
	assert.Equal(t, 0.7, out[1].Quality)
}

func TestCapByQualityNoopUnderLimit(t *testing.T) {
	in := []Minutia{{Quality: 0.1}, {Quality: 0.9}}
	out := capByQuality(in, 10)
	assert.Len(t, out, 2)
}

func TestExtractFindsEndingAtLineTerminus(t *testing.T) {
	const w, h = 40, 40
	skel := fpimage.NewImage(w, h)
	for x := 15; x < 25; x++ {
		skel.Set(x, 20, 255)
	}
	orient := fpimage.NewOrientationMap(w, h)
	coh := fpimage.NewCoherenceMap(w, h)
	for i := range coh.Coh {
		coh.Coh[i] = 0.8
	}

	tmpl := Extract(skel, orient, coh, DefaultExtractParams())
	foundEnding := false
	for _, m := range tmpl.Minutiae {
		if m.Type == Ending {
			foundEnding = true
		}
	}
	assert.True(t, foundEnding, "a line terminus should be classified as an ending")
}
