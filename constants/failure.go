package constants

import "strings"

// FailureReason is the closed set of reasons a pipeline run can record.
// Values are stored verbatim in run records.
type FailureReason string

const (
	FailureTooBlurry            FailureReason = "too_blurry"
	FailureGlareDetected        FailureReason = "glare_detected"
	FailureBoundaryNotDetected  FailureReason = "document_boundary_not_detected"
	FailureLowResolution        FailureReason = "low_resolution"
	FailureNoText               FailureReason = "no_supported_text_detected"
	FailureTotalsNotFound       FailureReason = "totals_not_found"
	FailureLineItemsNotDetected FailureReason = "line_items_not_detected"
	FailureParsingAmbiguous     FailureReason = "parsing_ambiguous"
	FailureSkewTooSevere        FailureReason = "skew_too_severe"
	FailureImageTooDark         FailureReason = "image_too_dark"
	FailureImageTooBright       FailureReason = "image_too_bright"
	FailureUnsupportedFormat    FailureReason = "unsupported_format"
	FailureProcessingError      FailureReason = "processing_error"
)

var allFailureReasons = []FailureReason{
	FailureTooBlurry,
	FailureGlareDetected,
	FailureBoundaryNotDetected,
	FailureLowResolution,
	FailureNoText,
	FailureTotalsNotFound,
	FailureLineItemsNotDetected,
	FailureParsingAmbiguous,
	FailureSkewTooSevere,
	FailureImageTooDark,
	FailureImageTooBright,
	FailureUnsupportedFormat,
	FailureProcessingError,
}

// FailureReasons returns every known reason in declaration order.
func FailureReasons() []FailureReason {
	out := make([]FailureReason, len(allFailureReasons))
	copy(out, allFailureReasons)
	return out
}

func (r FailureReason) Valid() bool {
	for _, known := range allFailureReasons {
		if r == known {
			return true
		}
	}
	return false
}

// Critical reports whether the reason describes an image problem severe
// enough to make recognition unreliable. Critical issues are recorded but
// never stop the pipeline.
func (r FailureReason) Critical() bool {
	switch r {
	case FailureTooBlurry, FailureLowResolution, FailureImageTooDark, FailureImageTooBright, FailureSkewTooSevere:
		return true
	}
	return false
}

// JoinFailureReasons renders reasons the way run records store them.
func JoinFailureReasons(reasons []FailureReason) string {
	parts := make([]string, 0, len(reasons))
	for _, r := range reasons {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, ",")
}

// ParseFailureReasons is the inverse of JoinFailureReasons. Unknown values are dropped.
func ParseFailureReasons(s string) []FailureReason {
	var out []FailureReason
	for _, part := range strings.Split(s, ",") {
		r := FailureReason(strings.TrimSpace(part))
		if r.Valid() {
			out = append(out, r)
		}
	}
	return out
}
