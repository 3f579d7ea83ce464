package skeleton

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpmatch/internal/fpimage"
)

func TestThinSolidBlobHasNoBlock(t *testing.T) {
	img := fpimage.NewImage(40, 40)
	for y := 5; y < 35; y++ {
		for x := 5; x < 35; x++ {
			img.Set(x, y, 255)
		}
	}

	skel := Thin(img)
	assertNo2x2Block(t, skel)
}

func TestThinDiagonalLineStaysThin(t *testing.T) {
	img := fpimage.NewImage(30, 30)
	for i := 3; i < 27; i++ {
		img.Set(i, i, 255)
		img.Set(i, i+1, 255) // 2px-wide diagonal stroke
	}

	skel := Thin(img)
	assertNo2x2Block(t, skel)

	hasRidge := false
	for _, v := range skel.Pix {
		if v != 0 {
			hasRidge = true
			break
		}
	}
	require.True(t, hasRidge, "thinning a real stroke should not erase it entirely")
}

func assertNo2x2Block(t *testing.T, img *fpimage.Image) {
	t.Helper()
	for y := 0; y < img.Height-1; y++ {
		for x := 0; x < img.Width-1; x++ {
			block := img.At(x, y) != 0 && img.At(x+1, y) != 0 && img.At(x, y+1) != 0 && img.At(x+1, y+1) != 0
			assert.False(t, block, "found a 2x2 ridge block at (%d,%d)", x, y)
		}
	}
}

func TestPruneRemovesShortSpur(t *testing.T) {
	img := fpimage.NewImage(20, 20)
	// A diagonal line with a single-pixel spur hanging off it; the spur
	// touches only (10,10), so it has exactly one 8-neighbour.
	for x := 2; x < 18; x++ {
		img.Set(x, x, 255)
	}
	img.Set(11, 9, 255) // spur

	out := Prune(img, DefaultPruneParams())
	assert.Equal(t, uint8(0), out.At(11, 9), "single-pixel spur should be pruned")
	assert.Equal(t, uint8(255), out.At(5, 5), "main ridge should survive pruning")
}

func TestPruneRemovesSmallComponent(t *testing.T) {
	img := fpimage.NewImage(20, 20)
	img.Set(2, 2, 255)
	img.Set(3, 2, 255) // 2px isolated speck, smaller than MinComponentSize

	out := Prune(img, DefaultPruneParams())
	assert.Equal(t, uint8(0), out.At(2, 2))
	assert.Equal(t, uint8(0), out.At(3, 2))
}

func TestBinarizeProducesBinaryImage(t *testing.T) {
	img := fpimage.NewImage(64, 64)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if (x/8+y/8)%2 == 0 {
				img.Set(x, y, 200)
			} else {
				img.Set(x, y, 50)
			}
		}
	}
	out := Binarize(img, DefaultBinarizeParams())
	for _, v := range out.Pix {
		assert.True(t, v == 0 || v == 255)
	}
}
