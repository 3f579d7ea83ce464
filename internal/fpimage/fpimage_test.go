package fpimage

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBilinearExactOnGridPoints(t *testing.T) {
	field := []float32{1, 2, 3, 4}
	assert.InDelta(t, 1.0, Bilinear(field, 2, 2, 0, 0), 1e-9)
	assert.InDelta(t, 2.0, Bilinear(field, 2, 2, 1, 0), 1e-9)
	assert.InDelta(t, 4.0, Bilinear(field, 2, 2, 1, 1), 1e-9)
}

func TestBilinearMidpoint(t *testing.T) {
	field := []float32{0, 10, 0, 10}
	assert.InDelta(t, 5.0, Bilinear(field, 2, 2, 0.5, 0), 1e-6)
}

func TestBilinearClampsOutOfBounds(t *testing.T) {
	field := []float32{1, 2, 3, 4}
	assert.InDelta(t, 1.0, Bilinear(field, 2, 2, -5, -5), 1e-9)
	assert.InDelta(t, 4.0, Bilinear(field, 2, 2, 50, 50), 1e-9)
}

func TestNormalizeRescalesMeanAndVariance(t *testing.T) {
	// 16x16 holds every byte value exactly once, so the clipped tails of
	// the mapping are symmetric about the target mean.
	img := NewImage(16, 16)
	for i := range img.Pix {
		img.Pix[i] = uint8(i % 256)
	}

	out := Normalize(img, DefaultNormalizeParams())

	var sum, sqSum float64
	n := float64(len(out.Pix))
	for _, v := range out.Pix {
		sum += float64(v)
	}
	mean := sum / n
	for _, v := range out.Pix {
		d := float64(v) - mean
		sqSum += d * d
	}
	variance := sqSum / n

	assert.InDelta(t, 128, mean, 5)
	assert.InDelta(t, 128*128, variance, 128*128*0.5)
}

func TestNormalizeClipsRange(t *testing.T) {
	img := NewImage(4, 4)
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	img.Pix[0] = 255
	out := Normalize(img, DefaultNormalizeParams())
	for _, v := range out.Pix {
		assert.LessOrEqual(t, int(v), 255)
		assert.GreaterOrEqual(t, int(v), 0)
	}
}

func TestStructureTensorOrientationMatchesSyntheticRidges(t *testing.T) {
	const w, h = 64, 64
	angle := 30.0 * math.Pi / 180
	img := syntheticRidges(w, h, 8, angle)

	orient, coh, err := ComputeStructureTensor(img, DefaultTensorParams())
	require.NoError(t, err)

	// Ridge orientation is perpendicular to the travelling-wave direction
	// and unoriented mod pi; sample the interior away from border effects.
	expected := math.Mod(angle+math.Pi/2, math.Pi)

	var coherentSamples int
	var errSum float64
	for y := 20; y < h-20; y += 4 {
		for x := 20; x < w-20; x += 4 {
			c := float64(coh.At(x, y))
			if c < 0.3 {
				continue
			}
			coherentSamples++
			got := math.Mod(float64(orient.At(x, y))+math.Pi, math.Pi)
			diff := math.Abs(got - expected)
			if diff > math.Pi/2 {
				diff = math.Pi - diff
			}
			errSum += diff
		}
	}
	require.Greater(t, coherentSamples, 0, "expected some coherent samples in a clean synthetic ridge pattern")
	avgErr := errSum / float64(coherentSamples)
	assert.Less(t, avgErr, 20.0*math.Pi/180, "average orientation error should be small on a clean synthetic pattern")
}

func TestCoherenceBounded(t *testing.T) {
	img := syntheticRidges(48, 48, 6, 0.4)
	_, coh, err := ComputeStructureTensor(img, DefaultTensorParams())
	require.NoError(t, err)
	for _, v := range coh.Coh {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}
}

func TestROIMaskMarksVaryingBlocksAndClearsFlatOnes(t *testing.T) {
	img := NewImage(32, 32)
	// Left half: flat (no texture). Right half: high-contrast checkerboard.
	for y := 0; y < 32; y++ {
		for x := 16; x < 32; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, 255)
			}
		}
	}
	mask := ComputeROIMask(img, DefaultROIParams())

	flatSum, texturedSum := 0, 0
	for y := 0; y < 32; y++ {
		flatSum += int(mask.At(4, y))
		texturedSum += int(mask.At(24, y))
	}
	assert.Equal(t, 0, flatSum, "flat region should not be marked as ROI")
	assert.Greater(t, texturedSum, 0, "textured region should be marked as ROI")
}

func TestFromMatRoundTripsDimensions(t *testing.T) {
	img := NewImage(8, 8)
	m := img.ToMat()
	defer m.Close()
	roundtrip, err := FromMat(m)
	require.NoError(t, err)
	assert.Equal(t, img.Width, roundtrip.Width)
	assert.Equal(t, img.Height, roundtrip.Height)
}
