// Package confidence fuses recognition, image quality, extraction
// completeness and cross-field validation into one trust score.
package confidence

import (
	"math"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

const (
	weightRecognition = 0.25
	weightQuality     = 0.15
	weightExtraction  = 0.35
	weightValidation  = 0.25

	agreementBonus      = 0.05
	agreementScoreFloor = 80.0

	highTotalCents = 10000
)

// extraction completeness weights
var completenessWeights = []struct {
	field  string
	weight float64
	has    func(entity.ExtractionResult) bool
}{
	{"vendor", 0.20, func(r entity.ExtractionResult) bool { return r.Vendor != "" }},
	{"date", 0.15, func(r entity.ExtractionResult) bool { return r.Date != "" }},
	{"total", 0.35, func(r entity.ExtractionResult) bool { return r.Totals.Total != nil }},
	{"line_items", 0.20, func(r entity.ExtractionResult) bool { return len(r.LineItems) > 0 }},
	{"invoice_number", 0.10, func(r entity.ExtractionResult) bool { return r.InvoiceNumber != "" }},
}

// Input is everything the scorer needs. ArbitrationConfidence is 0..100, or
// negative when arbitration produced no total.
type Input struct {
	RecognitionConfidence float64
	Quality               entity.QualityMetrics
	Extraction            entity.ExtractionResult
	ArbitrationConfidence int
	MathMismatch          bool
	Attempts              []entity.Attempt
}

// Score is a pure function of in.
func Score(in Input) entity.ConfidenceScore {
	recognition := clamp01(in.RecognitionConfidence)
	quality := QualityScore(in.Quality)
	extraction := ExtractionScore(in.Extraction)
	validation := ValidationScore(in.Extraction, in.MathMismatch)

	bonus := 0.0
	if agreeingAttempts(in.Attempts) >= 2 {
		bonus = agreementBonus
	}

	overall := weightRecognition*recognition +
		weightQuality*quality +
		weightExtraction*extraction +
		weightValidation*validation +
		bonus
	overall = round3(clamp01(overall))

	return entity.ConfidenceScore{
		OverallScore:     overall,
		Fields:           fieldScores(in, recognition),
		RecognitionScore: round3(recognition),
		QualityScore:     round3(quality),
		ExtractionScore:  round3(extraction),
		ValidationScore:  round3(validation),
		AgreementBonus:   bonus,
		Status:           StatusFor(overall),
		Breakdown: map[string]float64{
			"recognition": round3(weightRecognition * recognition),
			"quality":     round3(weightQuality * quality),
			"extraction":  round3(weightExtraction * extraction),
			"validation":  round3(weightValidation * validation),
			"agreement":   bonus,
		},
	}
}

// QualityScore penalizes blur, glare, bad exposure and low resolution and
// rewards contrast and a detected document boundary. Unmeasured inputs score 1.
func QualityScore(q entity.QualityMetrics) float64 {
	if !q.Measured {
		return 1
	}
	s := 1.0
	s -= 0.35 * clamp01(q.Blur)
	s -= math.Min(0.25, 2*q.Glare)
	if q.Brightness < darkThreshold || q.Brightness > brightThreshold {
		s -= 0.15
	}
	if lowResolution(q) {
		s -= 0.2
	}
	s += 0.1 * clamp01(q.Contrast)
	if q.DocumentBoundaryDetected {
		s += 0.05
	}
	return clamp01(s)
}

// ExtractionScore is the weighted presence of the key fields.
func ExtractionScore(r entity.ExtractionResult) float64 {
	s := 0.0
	for _, w := range completenessWeights {
		if w.has(r) {
			s += w.weight
		}
	}
	return clamp01(s)
}

// ValidationScore penalizes ambiguity, a missing total, a large total with no
// items, and totals that do not reconcile.
func ValidationScore(r entity.ExtractionResult, mathMismatch bool) float64 {
	s := 1.0
	if r.Ambiguous {
		s -= 0.3
	}
	if r.Totals.Total == nil {
		s -= 0.5
	} else if *r.Totals.Total > highTotalCents && len(r.LineItems) == 0 {
		s -= 0.2
	}
	if mathMismatch {
		s -= 0.15
	}
	return clamp01(s)
}

func fieldScores(in Input, recognition float64) entity.FieldConfidence {
	r := in.Extraction
	var f entity.FieldConfidence
	if r.Vendor != "" {
		f.Vendor = 0.5 + 0.5*recognition
	}
	if r.Date != "" {
		f.Date = 0.5 + 0.5*recognition
	}
	if r.Totals.Total != nil {
		if in.ArbitrationConfidence >= 0 {
			f.Total = 0.3*recognition + 0.7*float64(in.ArbitrationConfidence)/100
		} else {
			f.Total = 0.5 * recognition
		}
	}
	if len(r.LineItems) > 0 {
		if r.Ambiguous {
			f.LineItems = 0.4
		} else {
			f.LineItems = 0.7 + 0.3*recognition
		}
	}
	f.Vendor, f.Date, f.Total, f.LineItems = round3(f.Vendor), round3(f.Date), round3(clamp01(f.Total)), round3(f.LineItems)
	return f
}

func agreeingAttempts(attempts []entity.Attempt) int {
	n := 0
	for _, a := range attempts {
		if !a.Failed && a.Score >= agreementScoreFloor {
			n++
		}
	}
	return n
}

// StatusFor maps an overall score onto the review tiers.
func StatusFor(overall float64) constants.ConfidenceStatus {
	switch {
	case overall >= constants.SuccessThreshold:
		return constants.StatusSuccess
	case overall >= constants.NeedsReviewThreshold:
		return constants.StatusNeedsReview
	default:
		return constants.StatusLowConfidence
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
