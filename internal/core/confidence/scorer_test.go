package confidence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/money"
)

func completeExtraction() entity.ExtractionResult {
	return entity.ExtractionResult{
		Vendor:        "Acme Supply Co",
		Date:          "2024-03-14",
		InvoiceNumber: "INV-1",
		Totals:        entity.Totals{Total: money.Ptr(24500)},
		LineItems:     []entity.LineItem{{Description: "Widgets", Quantity: 1, TotalCents: 24500}},
	}
}

func TestScoreCompleteTextInvoice(t *testing.T) {
	score := Score(Input{
		RecognitionConfidence: 0.9,
		Extraction:            completeExtraction(),
		ArbitrationConfidence: 100,
	})

	assert.InDelta(t, 0.975, score.OverallScore, 1e-9)
	assert.Equal(t, constants.StatusSuccess, score.Status)
	assert.Equal(t, 1.0, score.QualityScore)
	assert.Equal(t, 1.0, score.ExtractionScore)
	assert.Equal(t, 1.0, score.ValidationScore)
	assert.Zero(t, score.AgreementBonus)
	assert.InDelta(t, 0.97, score.Fields.Total, 1e-9)
}

func TestScoreAgreementBonusIsClamped(t *testing.T) {
	score := Score(Input{
		RecognitionConfidence: 0.9,
		Extraction:            completeExtraction(),
		ArbitrationConfidence: 100,
		Attempts: []entity.Attempt{
			{Score: 90},
			{Score: 85},
			{Score: 95, Failed: true},
		},
	})

	assert.Equal(t, agreementBonus, score.AgreementBonus)
	assert.Equal(t, 1.0, score.OverallScore)
}

func TestScoreEmptyExtraction(t *testing.T) {
	score := Score(Input{RecognitionConfidence: 0.5, ArbitrationConfidence: -1})

	assert.InDelta(t, 0.4, score.OverallScore, 1e-9)
	assert.Equal(t, constants.StatusLowConfidence, score.Status)
	assert.Zero(t, score.Fields.Total)
	assert.Zero(t, score.Fields.Vendor)
}

func TestScoreIsBounded(t *testing.T) {
	score := Score(Input{RecognitionConfidence: 7, Quality: entity.QualityMetrics{Measured: true, Blur: 5, Glare: 3}})
	assert.GreaterOrEqual(t, score.OverallScore, 0.0)
	assert.LessOrEqual(t, score.OverallScore, 1.0)
	assert.Equal(t, 1.0, score.RecognitionScore)
}

func TestValidationScore(t *testing.T) {
	r := completeExtraction()
	assert.Equal(t, 1.0, ValidationScore(r, false))
	assert.InDelta(t, 0.85, ValidationScore(r, true), 1e-9)

	r.Ambiguous = true
	assert.InDelta(t, 0.7, ValidationScore(r, false), 1e-9)

	r.Ambiguous = false
	r.LineItems = nil
	assert.InDelta(t, 0.8, ValidationScore(r, false), 1e-9, "large total with no items")

	r.Totals.Total = nil
	assert.InDelta(t, 0.5, ValidationScore(r, false), 1e-9)
}

func TestQualityScoreAndIssues(t *testing.T) {
	poor := entity.QualityMetrics{
		Measured:   true,
		Blur:       1,
		Glare:      0.5,
		Brightness: 0.1,
		Width:      100,
		Height:     100,
		Megapixels: 0.01,
	}
	assert.InDelta(t, 0.05, QualityScore(poor), 1e-9)
	assert.Equal(t, []constants.FailureReason{
		constants.FailureTooBlurry,
		constants.FailureGlareDetected,
		constants.FailureBoundaryNotDetected,
		constants.FailureLowResolution,
		constants.FailureImageTooDark,
	}, QualityIssues(poor))

	good := entity.QualityMetrics{
		Measured:                 true,
		Blur:                     0.1,
		Brightness:               0.7,
		Contrast:                 0.5,
		Width:                    1700,
		Height:                   2200,
		Megapixels:               3.74,
		SkewDegrees:              -12,
		DocumentBoundaryDetected: true,
	}
	assert.Equal(t, []constants.FailureReason{constants.FailureSkewTooSevere}, QualityIssues(good))
	assert.Empty(t, QualityIssues(entity.QualityMetrics{}))
	assert.Equal(t, 1.0, QualityScore(entity.QualityMetrics{}))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, constants.StatusSuccess, StatusFor(0.8))
	assert.Equal(t, constants.StatusNeedsReview, StatusFor(0.79))
	assert.Equal(t, constants.StatusNeedsReview, StatusFor(0.5))
	assert.Equal(t, constants.StatusLowConfidence, StatusFor(0.49))
}

func TestTips(t *testing.T) {
	tips := Tips([]constants.FailureReason{
		constants.FailureParsingAmbiguous,
		constants.FailureTooBlurry,
		constants.FailureTooBlurry,
	})
	assert.Equal(t, []string{
		tipsByReason[constants.FailureTooBlurry],
		tipsByReason[constants.FailureParsingAmbiguous],
	}, tips)
	assert.Empty(t, Tips(nil))

	for _, r := range constants.FailureReasons() {
		assert.NotEmpty(t, tipsByReason[r], r)
	}
	assert.NotEqual(t, Recommendation(constants.StatusSuccess), Recommendation(constants.StatusLowConfidence))
}
