package constants

// ConfidenceStatus is the three-tier review mapping for an overall score.
type ConfidenceStatus string

const (
	StatusSuccess       ConfidenceStatus = "success"        // no review needed
	StatusNeedsReview   ConfidenceStatus = "needs_review"   // human should confirm
	StatusLowConfidence ConfidenceStatus = "low_confidence" // retake or manual entry
)

const (
	SuccessThreshold     = 0.8
	NeedsReviewThreshold = 0.5
	// OKThreshold is the minimum overall score for a result to be reported ok.
	OKThreshold = 0.4
)

// RunStage is the furthest pipeline stage a run reached. Stored in run records.
type RunStage string

const (
	StageIntake      RunStage = "INTAKE"
	StageRecognition RunStage = "RECOGNITION"
	StageExtraction  RunStage = "EXTRACTION"
	StageArbitration RunStage = "ARBITRATION"
	StageScoring     RunStage = "SCORING"
	StageComplete    RunStage = "COMPLETE"
)
