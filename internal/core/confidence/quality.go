package confidence

import (
	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

// Thresholds that turn quality metrics into failure reasons.
const (
	blurThreshold   = 0.7
	glareThreshold  = 0.08
	darkThreshold   = 0.25
	brightThreshold = 0.92
	minShortSide    = 600
	minMegapixels   = 0.5
	maxSkewDegrees  = 10.0
)

func lowResolution(q entity.QualityMetrics) bool {
	short := q.Width
	if q.Height < short {
		short = q.Height
	}
	return short < minShortSide || q.Megapixels < minMegapixels
}

// QualityIssues lists the failure reasons implied by q, in enum order.
func QualityIssues(q entity.QualityMetrics) []constants.FailureReason {
	if !q.Measured {
		return nil
	}
	var out []constants.FailureReason
	if q.Blur > blurThreshold {
		out = append(out, constants.FailureTooBlurry)
	}
	if q.Glare > glareThreshold {
		out = append(out, constants.FailureGlareDetected)
	}
	if !q.DocumentBoundaryDetected {
		out = append(out, constants.FailureBoundaryNotDetected)
	}
	if lowResolution(q) {
		out = append(out, constants.FailureLowResolution)
	}
	if q.SkewDegrees > maxSkewDegrees || q.SkewDegrees < -maxSkewDegrees {
		out = append(out, constants.FailureSkewTooSevere)
	}
	if q.Brightness < darkThreshold {
		out = append(out, constants.FailureImageTooDark)
	}
	if q.Brightness > brightThreshold {
		out = append(out, constants.FailureImageTooBright)
	}
	return out
}
