package match

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpmatch/pkg/geometry"
)

func TestRefineRigidRecoversKnownRotationAndTranslation(t *testing.T) {
	src := []geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}}

	theta := math.Pi / 6
	cos, sin := math.Cos(theta), math.Sin(theta)
	tx, ty := 5.0, -3.0

	dst := make([]geometry.Point2D, len(src))
	for i, p := range src {
		dst[i] = geometry.Point2D{
			X: cos*p.X - sin*p.Y + tx,
			Y: sin*p.X + cos*p.Y + ty,
		}
	}

	transform, ok := refineRigid(src, dst)
	require.True(t, ok)
	assert.InDelta(t, cos, transform.A, 1e-6)
	assert.InDelta(t, -sin, transform.B, 1e-6)
	assert.InDelta(t, sin, transform.C, 1e-6)
	assert.InDelta(t, cos, transform.D, 1e-6)
	assert.InDelta(t, tx, transform.TX, 1e-6)
	assert.InDelta(t, ty, transform.TY, 1e-6)
}

func TestRefineRigidRejectsTooFewPoints(t *testing.T) {
	_, ok := refineRigid([]geometry.Point2D{{X: 0, Y: 0}}, []geometry.Point2D{{X: 1, Y: 1}})
	assert.False(t, ok)
}

func TestRefineAffineLeastSquaresRecoversScale(t *testing.T) {
	src := []geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}}
	dst := make([]geometry.Point2D, len(src))
	for i, p := range src {
		dst[i] = geometry.Point2D{X: 2*p.X + 1, Y: 2*p.Y - 1}
	}

	transform, ok := refineAffineLeastSquares(src, dst)
	require.True(t, ok)
	assert.InDelta(t, 2.0, transform.A, 1e-6)
	assert.InDelta(t, 0.0, transform.B, 1e-6)
	assert.InDelta(t, 1.0, transform.TX, 1e-6)
	assert.InDelta(t, 2.0, transform.D, 1e-6)
	assert.InDelta(t, -1.0, transform.TY, 1e-6)
}

func TestRefineAffineLeastSquaresRejectsTooFewPoints(t *testing.T) {
	_, ok := refineAffineLeastSquares(
		[]geometry.Point2D{{X: 0, Y: 0}, {X: 1, Y: 1}},
		[]geometry.Point2D{{X: 0, Y: 0}, {X: 1, Y: 1}},
	)
	assert.False(t, ok)
}
