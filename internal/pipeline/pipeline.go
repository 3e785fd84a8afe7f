// Package pipeline runs one document from bytes or text to a scored
// extraction result, writing exactly one run record per invocation.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/arbiter"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/confidence"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/fields"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/textnorm"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
)

// textLayerConfidence is the recognition confidence given to text that did
// not come through OCR (caller text, PDF text layer).
const textLayerConfidence = 0.95

// Recognizer is the image → transcript search. *ocr.Recognizer satisfies it.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (ocr.Outcome, error)
}

// RunRecorder persists the observability record of a run. Record is
// called exactly once per Run; its error is logged and swallowed.
type RunRecorder interface {
	Record(ctx context.Context, run entity.PipelineRun) error
}

// NopRecorder discards run records.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, entity.PipelineRun) error { return nil }

// Limits are the intake gates.
type Limits struct {
	MinInputBytes      int64
	MaxInputBytes      int64
	MinTranscriptChars int
	PDFMinTextChars    int
}

func DefaultLimits() Limits {
	return Limits{
		MinInputBytes:      100,
		MaxInputBytes:      25 << 20,
		MinTranscriptChars: 20,
		PDFMinTextChars:    40,
	}
}

// Pipeline is safe for concurrent use; each Run keeps its state local.
type Pipeline struct {
	recognizer  Recognizer
	recorder    RunRecorder
	limits      Limits
	okThreshold float64
	logger      *slog.Logger
	now         func() time.Time
}

type Option func(*Pipeline)

func WithRecorder(r RunRecorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

func WithLimits(l Limits) Option {
	return func(p *Pipeline) { p.limits = l }
}

func WithOKThreshold(t float64) Option {
	return func(p *Pipeline) {
		if t > 0 {
			p.okThreshold = t
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New builds a pipeline. recognizer may be nil, in which case images and
// scanned PDFs fail with no_supported_text_detected.
func New(recognizer Recognizer, opts ...Option) *Pipeline {
	p := &Pipeline{
		recognizer:  recognizer,
		recorder:    NopRecorder{},
		limits:      DefaultLimits(),
		okThreshold: constants.OKThreshold,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run never returns an error: every failure lands in FailureReasons, and a
// panic anywhere in processing becomes processing_error.
func (p *Pipeline) Run(ctx context.Context, in Input) (res Result) {
	st := newRunState(in, p.now())
	ctx = common.WithRunID(ctx, st.id.String())
	logger := common.LoggerFrom(ctx, p.logger)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("pipeline.panic", "panic", r, "stack", string(debug.Stack()))
			st.fail(constants.FailureProcessingError, fmt.Sprintf("internal error: %v", r))
		}
		res = st.result(p.okThreshold, p.now().Sub(st.started).Milliseconds())
		p.record(ctx, logger, st.record(res))
		logger.Info("pipeline.done",
			"ok", res.OK,
			"stage", st.stage,
			"overall", res.Confidence.OverallScore,
			"failure_reasons", constants.JoinFailureReasons(res.FailureReasons),
			"duration_ms", res.ProcessingTimeMs)
	}()

	p.process(ctx, logger, st, in)
	return res
}

func (p *Pipeline) process(ctx context.Context, logger *slog.Logger, st *runState, in Input) {
	transcript, ok := p.intake(ctx, logger, st, in)
	if !ok {
		return
	}
	if n := len(strings.TrimSpace(transcript)); n < p.limits.MinTranscriptChars {
		st.fail(constants.FailureNoText, fmt.Sprintf("transcript has %d characters, need %d", n, p.limits.MinTranscriptChars))
		return
	}

	st.stage = constants.StageExtraction
	text := textnorm.Normalize(transcript)
	extracted := fields.Extract(text)

	st.stage = constants.StageArbitration
	arb := arbiter.Arbitrate(arbiter.Input{
		Text:             text,
		ParserTotalCents: extracted.Totals.Total,
		LineItemSumCents: extracted.LineItemSum(),
		VendorKey:        in.VendorKey,
	})
	st.arbitration = &arb
	if arb.ShouldOverride && arb.TotalCents != nil {
		extracted = extracted.WithTotal(*arb.TotalCents,
			fmt.Sprintf("total set by arbitration (confidence %d): %s", arb.Confidence, arb.OverrideReason))
		st.overridden = true
		logger.Debug("pipeline.arbitration.override", "total_cents", *arb.TotalCents, "confidence", arb.Confidence)
	}
	st.extracted = extracted

	if extracted.Totals.Total == nil {
		st.addReason(constants.FailureTotalsNotFound)
	}
	if len(extracted.LineItems) == 0 {
		st.addReason(constants.FailureLineItemsNotDetected)
	}
	if extracted.Ambiguous {
		st.addReason(constants.FailureParsingAmbiguous)
	}

	st.stage = constants.StageScoring
	arbConf := -1
	if arb.TotalCents != nil {
		arbConf = arb.Confidence
	}
	st.confidence = confidence.Score(confidence.Input{
		RecognitionConfidence: st.recognitionConfidence,
		Quality:               st.quality,
		Extraction:            extracted,
		ArbitrationConfidence: arbConf,
		MathMismatch:          arb.MathValidation.Status == arbiter.MathMismatch,
		Attempts:              st.attempts,
	})
	st.scored = true
	st.stage = constants.StageComplete
}

// intake turns the input into a transcript. ok is false when the run has
// already failed.
func (p *Pipeline) intake(ctx context.Context, logger *slog.Logger, st *runState, in Input) (string, bool) {
	if !in.hasBytes() {
		if strings.TrimSpace(in.Text) == "" {
			st.fail(constants.FailureUnsupportedFormat, "input has neither bytes nor text")
			return "", false
		}
		st.format = constants.FormatText
		st.mime = "text/plain"
		st.size = int64(len(in.Text))
		st.recognitionConfidence = textLayerConfidence
		return in.Text, true
	}

	doc, err := loadDocument(in, p.limits)
	if err != nil {
		logger.Warn("pipeline.intake.rejected", "file", in.Filename, "error", err)
		st.fail(constants.FailureUnsupportedFormat, err.Error())
		return "", false
	}
	st.format, st.mime, st.size, st.sha256 = doc.format, doc.mime, int64(len(doc.data)), doc.sha256

	switch doc.format {
	case constants.FormatText:
		st.recognitionConfidence = textLayerConfidence
		return string(doc.data), true

	case constants.FormatPDF:
		pages, err := ocr.PDFPageCount(doc.data)
		if err != nil {
			st.fail(constants.FailureUnsupportedFormat, err.Error())
			return "", false
		}
		text, err := ocr.ExtractPDFText(doc.data)
		if err != nil {
			logger.Warn("pipeline.pdf.text_layer_failed", "pages", pages, "error", err)
		}
		if len(strings.TrimSpace(text)) >= p.limits.PDFMinTextChars {
			logger.Debug("pipeline.pdf.text_layer", "pages", pages, "chars", len(text))
			st.recognitionConfidence = textLayerConfidence
			return text, true
		}
		img, err := ocr.RenderPDFPage(doc.data, 0)
		if err != nil {
			st.fail(constants.FailureUnsupportedFormat, err.Error())
			return "", false
		}
		return p.recognize(ctx, logger, st, img)

	default:
		img, err := ocr.DecodeImage(doc.data, doc.mime)
		if err != nil {
			st.fail(constants.FailureUnsupportedFormat, err.Error())
			return "", false
		}
		return p.recognize(ctx, logger, st, img)
	}
}

func (p *Pipeline) recognize(ctx context.Context, logger *slog.Logger, st *runState, img image.Image) (string, bool) {
	st.quality = ocr.MeasureQuality(img)
	for _, issue := range confidence.QualityIssues(st.quality) {
		st.addReason(issue)
	}
	if len(st.reasons) > 0 {
		logger.Info("pipeline.quality.issues", "failure_reasons", constants.JoinFailureReasons(st.reasons))
	}

	st.stage = constants.StageRecognition
	if p.recognizer == nil {
		st.fail(constants.FailureNoText, "no recognition engine configured")
		return "", false
	}
	out, err := p.recognizer.Recognize(ctx, img)
	st.attempts = out.Attempts
	st.bestVariant, st.bestEngine = out.BestVariant, out.BestEngine
	if err != nil {
		st.fail(constants.FailureNoText, err.Error())
		return "", false
	}
	st.recognitionConfidence = out.Confidence
	return out.Text, true
}

func (p *Pipeline) record(ctx context.Context, logger *slog.Logger, run entity.PipelineRun) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("pipeline.record.panic", "panic", r)
		}
	}()
	if err := p.recorder.Record(context.WithoutCancel(ctx), run); err != nil {
		logger.Error("pipeline.record.failed", "error", err)
	}
}
