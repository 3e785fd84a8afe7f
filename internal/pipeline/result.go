package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/arbiter"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/confidence"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

// Result is the caller-facing outcome of one run.
type Result struct {
	RunID            uuid.UUID                 `json:"runId"`
	OK               bool                      `json:"ok"`
	Extracted        entity.ExtractionResult   `json:"extracted"`
	Confidence       entity.ConfidenceScore    `json:"confidence"`
	Quality          entity.QualityMetrics     `json:"quality"`
	Attempts         []entity.Attempt          `json:"attempts"`
	FailureReasons   []constants.FailureReason `json:"failureReasons"`
	ProcessingTimeMs int64                     `json:"processingTimeMs"`
	Tips             []string                  `json:"tips,omitempty"`
	Recommendation   string                    `json:"recommendation"`
	Arbitration      *arbiter.Result           `json:"arbitration,omitempty"`
	Error            string                    `json:"error,omitempty"`
}

// runState accumulates one run. It is owned by a single goroutine.
type runState struct {
	id      uuid.UUID
	started time.Time
	stage   constants.RunStage

	filename  string
	vendorKey string
	format    constants.SourceFormat
	mime      string
	size      int64
	sha256    string

	quality               entity.QualityMetrics
	recognitionConfidence float64
	attempts              []entity.Attempt
	bestVariant           string
	bestEngine            string

	extracted   entity.ExtractionResult
	arbitration *arbiter.Result
	overridden  bool
	confidence  entity.ConfidenceScore
	scored      bool

	reasons []constants.FailureReason
	halted  bool
	errMsg  string
}

func newRunState(in Input, now time.Time) *runState {
	return &runState{
		id:        uuid.New(),
		started:   now,
		stage:     constants.StageIntake,
		filename:  in.Filename,
		vendorKey: in.VendorKey,
		mime:      in.MimeType,
		size:      in.FileSize,
		extracted: entity.ExtractionResult{LineItems: []entity.LineItem{}, Currency: "USD"},
	}
}

func (s *runState) addReason(r constants.FailureReason) {
	for _, have := range s.reasons {
		if have == r {
			return
		}
	}
	s.reasons = append(s.reasons, r)
}

// fail records a halting failure. The first message wins.
func (s *runState) fail(r constants.FailureReason, msg string) {
	s.addReason(r)
	s.halted = true
	if s.errMsg == "" {
		s.errMsg = msg
	}
}

func (s *runState) result(okThreshold float64, elapsedMs int64) Result {
	score := s.confidence
	if !s.scored {
		score = entity.ConfidenceScore{Status: constants.StatusLowConfidence, Breakdown: map[string]float64{}}
	}
	reasons := s.reasons
	if reasons == nil {
		reasons = []constants.FailureReason{}
	}
	attempts := s.attempts
	if attempts == nil {
		attempts = []entity.Attempt{}
	}
	return Result{
		RunID:            s.id,
		OK:               s.scored && !s.halted && score.OverallScore >= okThreshold,
		Extracted:        s.extracted,
		Confidence:       score,
		Quality:          s.quality,
		Attempts:         attempts,
		FailureReasons:   reasons,
		ProcessingTimeMs: elapsedMs,
		Tips:             confidence.Tips(reasons),
		Recommendation:   confidence.Recommendation(score.Status),
		Arbitration:      s.arbitration,
		Error:            s.errMsg,
	}
}

// record flattens the run into its persisted form.
func (s *runState) record(res Result) entity.PipelineRun {
	run := entity.PipelineRun{
		ID:                    s.id,
		CreatedAt:             s.started.UTC(),
		Filename:              s.filename,
		MimeType:              s.mime,
		FileSize:              s.size,
		SourceFormat:          string(s.format),
		SHA256:                s.sha256,
		VendorKey:             s.vendorKey,
		Stage:                 string(s.stage),
		Quality:               s.quality,
		RecognitionConfidence: s.recognitionConfidence,
		AttemptCount:          len(s.attempts),
		BestVariant:           s.bestVariant,
		BestEngine:            s.bestEngine,
		Vendor:                res.Extracted.Vendor,
		InvoiceDate:           res.Extracted.Date,
		LineItemCount:         len(res.Extracted.LineItems),
		TotalOverridden:       s.overridden,
		OverallScore:          res.Confidence.OverallScore,
		RecognitionScore:      res.Confidence.RecognitionScore,
		QualityScore:          res.Confidence.QualityScore,
		ExtractionScore:       res.Confidence.ExtractionScore,
		ValidationScore:       res.Confidence.ValidationScore,
		FieldVendor:           res.Confidence.Fields.Vendor,
		FieldDate:             res.Confidence.Fields.Date,
		FieldTotal:            res.Confidence.Fields.Total,
		FieldLineItems:        res.Confidence.Fields.LineItems,
		OK:                    res.OK,
		Status:                string(res.Confidence.Status),
		FailureReasons:        constants.JoinFailureReasons(res.FailureReasons),
		ErrorMessage:          s.errMsg,
		ProcessingMs:          res.ProcessingTimeMs,
	}
	if t := res.Extracted.Totals.Total; t != nil {
		v := *t
		run.TotalCents = &v
	}
	if s.arbitration != nil {
		run.ArbitrationConfidence = s.arbitration.Confidence
	}
	return run
}
