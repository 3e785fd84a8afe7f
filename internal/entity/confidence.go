package entity

import "github.com/joseph-ayodele/invoice-extractor/constants"

type FieldConfidence struct {
	Vendor    float64 `json:"vendor"`
	Date      float64 `json:"date"`
	Total     float64 `json:"total"`
	LineItems float64 `json:"lineItems"`
}

// ConfidenceScore fuses every trust signal into one overall score in [0,1].
type ConfidenceScore struct {
	OverallScore     float64                    `json:"overallScore"`
	Fields           FieldConfidence            `json:"fields"`
	RecognitionScore float64                    `json:"recognitionScore"`
	QualityScore     float64                    `json:"qualityScore"`
	ExtractionScore  float64                    `json:"extractionScore"`
	ValidationScore  float64                    `json:"validationScore"`
	AgreementBonus   float64                    `json:"agreementBonus"`
	Status           constants.ConfidenceStatus `json:"status"`
	Breakdown        map[string]float64         `json:"breakdown"`
}
