package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpmatch/internal/fpimage"
	"fpmatch/internal/identify"
	"fpmatch/internal/minutiae"
)

func TestExtractRejectsWrongShape(t *testing.T) {
	img := fpimage.NewImage(100, 100)
	res := Extract(img)
	assert.False(t, res.OK)
	assert.Equal(t, ReasonInputShape, res.Reason)
}

func TestExtractAcceptsBothCanonicalOrientations(t *testing.T) {
	assert.True(t, validShape(fpimage.NewImage(CanonicalWidth, CanonicalHeight)))
	assert.True(t, validShape(fpimage.NewImage(CanonicalHeight, CanonicalWidth)))
	assert.False(t, validShape(fpimage.NewImage(CanonicalWidth, CanonicalWidth)))
}

func TestExtractBlankImageReportsLowQuality(t *testing.T) {
	img := fpimage.NewImage(CanonicalWidth, CanonicalHeight)
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	res := Extract(img)
	assert.False(t, res.OK)
	assert.Equal(t, ReasonLowQuality, res.Reason)
	assert.Less(t, res.MinutiaeCount, MinMinutiae)
}

func TestFuseDelegatesToFusePackage(t *testing.T) {
	templates := []minutiae.Template{
		{Minutiae: []minutiae.Minutia{{X: 10, Y: 10, Angle: 0, Type: minutiae.Ending, Quality: 0.9}}},
		{Minutiae: []minutiae.Minutia{{X: 11, Y: 9, Angle: 0, Type: minutiae.Ending, Quality: 0.9}}},
	}
	res := Fuse(templates)
	assert.Len(t, res.Fused.Minutiae, 1)
	assert.Equal(t, 1, res.Debug.FusedCount)
}

func TestVerifyKOfReportsEmptyInputWhenNoTemplates(t *testing.T) {
	probe := minutiae.Template{Minutiae: []minutiae.Minutia{{X: 1, Y: 1, Angle: 0, Type: minutiae.Ending, Quality: 0.9}}}
	res := VerifyKOf(ProbeInput{Minutiae: &probe}, nil)
	assert.False(t, res.OK)
	assert.Equal(t, ReasonEmptyInput, res.Reason)
}

func TestVerifyKOfReportsEmptyInputWhenProbeEmptyAndNoImage(t *testing.T) {
	res := VerifyKOf(ProbeInput{}, []identify.GalleryEntry{
		{ID: "a", Template: minutiae.Template{Minutiae: []minutiae.Minutia{{X: 1, Y: 1}}}},
	})
	assert.False(t, res.OK)
	assert.Equal(t, ReasonEmptyInput, res.Reason)
}

func TestVerifyKOfAcceptsSelfMatchedTemplate(t *testing.T) {
	probe := minutiae.Template{Minutiae: []minutiae.Minutia{
		{X: 30, Y: 40, Angle: 10, Type: minutiae.Ending, Quality: 0.9},
		{X: 80, Y: 60, Angle: 50, Type: minutiae.Bifurcation, Quality: 0.8},
		{X: 120, Y: 150, Angle: 90, Type: minutiae.Ending, Quality: 0.7},
		{X: 200, Y: 90, Angle: 130, Type: minutiae.Bifurcation, Quality: 0.85},
		{X: 60, Y: 200, Angle: 30, Type: minutiae.Ending, Quality: 0.75},
		{X: 140, Y: 220, Angle: 70, Type: minutiae.Ending, Quality: 0.78},
		{X: 170, Y: 30, Angle: 160, Type: minutiae.Bifurcation, Quality: 0.72},
		{X: 20, Y: 120, Angle: 5, Type: minutiae.Ending, Quality: 0.68},
		{X: 250, Y: 180, Angle: 100, Type: minutiae.Bifurcation, Quality: 0.82},
		{X: 90, Y: 10, Angle: 40, Type: minutiae.Ending, Quality: 0.77},
	}}
	res := VerifyKOf(ProbeInput{Minutiae: &probe}, []identify.GalleryEntry{
		{ID: "enrolled", Template: probe},
	})
	require.True(t, res.OK)
	assert.True(t, res.Accepted)
	assert.Equal(t, "enrolled", res.Best.ID)
}

func TestIdentifyReportsEmptyInputForEmptyProbe(t *testing.T) {
	res := Identify(minutiae.Template{}, []identify.GalleryEntry{
		{ID: "a", Template: minutiae.Template{Minutiae: []minutiae.Minutia{{X: 1, Y: 1}}}},
	})
	assert.False(t, res.OK)
	assert.Equal(t, ReasonEmptyInput, res.Reason)
}

func TestIdentifyOKWithNonEmptyProbe(t *testing.T) {
	probe := minutiae.Template{Minutiae: []minutiae.Minutia{{X: 1, Y: 1, Angle: 0, Type: minutiae.Ending, Quality: 0.9}}}
	res := Identify(probe, nil)
	assert.True(t, res.OK)
	assert.Nil(t, res.Decision.Best)
}
