package pipeline

import (
	"fmt"

	"fpmatch/internal/enhance"
	"fpmatch/internal/fpimage"
	"fpmatch/internal/fuse"
	"fpmatch/internal/identify"
	"fpmatch/internal/minutiae"
	"fpmatch/internal/skeleton"
)

// CanonicalWidth and CanonicalHeight are the sensor's fixed output shape
// after external pre-rotation (354x296: H=354, W=296).
const (
	CanonicalWidth  = 296
	CanonicalHeight = 354

	// MinMinutiae is the low_quality floor from spec.md's extract operation.
	MinMinutiae = 20
)

// ExtractResult is the wire envelope for the extract operation.
type ExtractResult struct {
	OK            bool
	Reason        Reason
	Error         string
	MinutiaeCount int
	Minutiae      []minutiae.Minutia
}

// Extract runs the full image-to-template pipeline: normalize, estimate
// orientation/coherence, build the ROI mask, enhance with the Gabor bank,
// binarize and thin to a skeleton, prune spurs, then extract minutiae.
// Accepts only the canonical 354x296 (or pre-rotation 296x354) shape; any
// other shape is a fatal input_shape error. Fewer than MinMinutiae
// extracted minutiae is reported as ok=false/low_quality rather than an
// error.
func Extract(img *fpimage.Image) ExtractResult {
	if !validShape(img) {
		return ExtractResult{OK: false, Reason: ReasonInputShape, Error: "image must be 354x296 or 296x354"}
	}

	norm := fpimage.Normalize(img, fpimage.DefaultNormalizeParams())
	orient, coh, err := fpimage.ComputeStructureTensor(norm, fpimage.DefaultTensorParams())
	if err != nil {
		return ExtractResult{OK: false, Reason: ReasonInternal, Error: fmt.Sprintf("structure tensor: %v", err)}
	}
	roi := fpimage.ComputeROIMask(norm, fpimage.DefaultROIParams())

	enhanced := enhance.Enhance(norm, orient, coh, roi, enhance.DefaultParams())

	binary := skeleton.Binarize(enhanced, skeleton.DefaultBinarizeParams())
	skel := skeleton.Thin(binary)
	pruned := skeleton.Prune(skel, skeleton.DefaultPruneParams())

	tmpl := minutiae.Extract(pruned, orient, coh, minutiae.DefaultExtractParams())

	if len(tmpl.Minutiae) < MinMinutiae {
		return ExtractResult{
			OK:            false,
			Reason:        ReasonLowQuality,
			Error:         "low_quality",
			MinutiaeCount: len(tmpl.Minutiae),
			Minutiae:      tmpl.Minutiae,
		}
	}

	return ExtractResult{
		OK:            true,
		MinutiaeCount: len(tmpl.Minutiae),
		Minutiae:      tmpl.Minutiae,
	}
}

func validShape(img *fpimage.Image) bool {
	if img.Width == CanonicalWidth && img.Height == CanonicalHeight {
		return true
	}
	if img.Width == CanonicalHeight && img.Height == CanonicalWidth {
		return true
	}
	return false
}

// FuseResult is the wire envelope for the fuse operation.
type FuseResult struct {
	Fused minutiae.Template
	Debug fuse.Debug
}

// Fuse merges multiple enrolment templates of the same finger into one.
func Fuse(templates []minutiae.Template) FuseResult {
	fused, debug := fuse.Fuse(templates, fuse.DefaultParams())
	return FuseResult{Fused: fused, Debug: debug}
}

// ProbeInput supplies either a pre-extracted template or a raw image for
// verify_k_of; when Minutiae is nil, Extract is invoked on Image first.
type ProbeInput struct {
	Image    *fpimage.Image
	Minutiae *minutiae.Template
}

// VerifyThresholds reports the acceptance thresholds applied.
type VerifyThresholds struct {
	Inliers int
	Score   float64
}

// VerifyKOfResult is the wire envelope for the verify_k_of operation.
type VerifyKOfResult struct {
	OK         bool
	Reason     Reason
	Error      string
	Accepted   bool
	Best       identify.Candidate
	All        []identify.Candidate
	Thresholds VerifyThresholds
}

// VerifyKOf accepts a probe against up to K enrolment templates of the same
// finger, used after a 3-impression enrolment flow.
func VerifyKOf(probe ProbeInput, templates []identify.GalleryEntry) VerifyKOfResult {
	p := identify.DefaultVerifyParams()
	thresholds := VerifyThresholds{Inliers: p.InliersThresh, Score: p.ScoreThresh}

	probeTmpl, reason, errMsg := resolveProbe(probe)
	if reason != ReasonNone {
		return VerifyKOfResult{OK: false, Reason: reason, Error: errMsg, Thresholds: thresholds}
	}
	if len(probeTmpl.Minutiae) == 0 || len(templates) == 0 {
		return VerifyKOfResult{OK: false, Reason: ReasonEmptyInput, Error: "empty_input", Thresholds: thresholds}
	}

	result := identify.VerifyKOf(probeTmpl, templates, p)
	return VerifyKOfResult{
		OK:         true,
		Accepted:   result.Accepted,
		Best:       result.Best,
		All:        result.All,
		Thresholds: thresholds,
	}
}

// IdentifyResult is the wire envelope for the identify operation.
type IdentifyResult struct {
	OK       bool
	Reason   Reason
	Error    string
	Decision identify.Decision
}

// Identify performs 1-to-N identification of a probe template against a
// gallery, applying the score/inlier/rotation-gate/margin accept policy.
func Identify(probeMinutiae minutiae.Template, gallery []identify.GalleryEntry) IdentifyResult {
	if len(probeMinutiae.Minutiae) == 0 {
		return IdentifyResult{OK: false, Reason: ReasonEmptyInput, Error: "probe_empty"}
	}

	decision := identify.Identify(probeMinutiae, gallery, identify.DefaultParams())
	return IdentifyResult{OK: true, Decision: decision}
}

func resolveProbe(p ProbeInput) (minutiae.Template, Reason, string) {
	if p.Minutiae != nil {
		return *p.Minutiae, ReasonNone, ""
	}
	if p.Image == nil {
		return minutiae.Template{}, ReasonEmptyInput, "empty_input"
	}

	extractResult := Extract(p.Image)
	if !extractResult.OK {
		return minutiae.Template{}, extractResult.Reason, extractResult.Error
	}
	return minutiae.Template{Minutiae: extractResult.Minutiae}, ReasonNone, ""
}
