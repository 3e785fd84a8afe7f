package confidence

import "github.com/joseph-ayodele/invoice-extractor/constants"

var tipsByReason = map[constants.FailureReason]string{
	constants.FailureTooBlurry:            "Hold the camera steady and tap to focus before taking the photo.",
	constants.FailureGlareDetected:        "Avoid direct light on the page; tilt the document or turn off the flash.",
	constants.FailureBoundaryNotDetected:  "Place the invoice on a contrasting surface with all four edges visible.",
	constants.FailureLowResolution:        "Move closer or use a higher camera resolution so the text fills the frame.",
	constants.FailureNoText:               "Make sure the photo shows the invoice text, or upload the original PDF.",
	constants.FailureTotalsNotFound:       "Include the bottom of the invoice where the total is printed.",
	constants.FailureLineItemsNotDetected: "Capture the full item table, or enter the items manually.",
	constants.FailureParsingAmbiguous:     "Please review the extracted total and items; they did not fully agree.",
	constants.FailureSkewTooSevere:        "Photograph the invoice straight on rather than at an angle.",
	constants.FailureImageTooDark:         "Retake the photo in better light.",
	constants.FailureImageTooBright:       "Reduce the lighting or move away from bright light sources.",
	constants.FailureUnsupportedFormat:    "Upload a PDF, JPEG, PNG or HEIC file.",
	constants.FailureProcessingError:      "Something went wrong while reading this invoice. Try again or enter it manually.",
}

// Tips maps failure reasons to remediation advice, deduplicated and in the
// canonical reason order.
func Tips(reasons []constants.FailureReason) []string {
	present := make(map[constants.FailureReason]bool, len(reasons))
	for _, r := range reasons {
		present[r] = true
	}
	var out []string
	for _, r := range constants.FailureReasons() {
		if present[r] {
			out = append(out, tipsByReason[r])
		}
	}
	return out
}

// Recommendation is the caller-facing next step for a status tier.
func Recommendation(status constants.ConfidenceStatus) string {
	switch status {
	case constants.StatusSuccess:
		return "no review needed"
	case constants.StatusNeedsReview:
		return "review the extracted fields before saving"
	default:
		return "retake the photo or enter the invoice manually"
	}
}
