package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

// RecognizerConfig bounds the variant × engine × mode search.
type RecognizerConfig struct {
	Modes          []PageSegMode
	AttemptTimeout time.Duration
	EarlyExitScore float64
	MaxVariants    int
	TempDir        string
	Language       string
}

// Outcome is the best transcript found plus the log of every attempt.
type Outcome struct {
	Text        string
	Confidence  float64
	Score       float64
	BestVariant string
	BestEngine  string
	BestMode    string
	Attempts    []entity.Attempt
	EarlyExit   bool
}

// Recognizer runs image variants through engines and keeps the
// best-scoring transcript.
type Recognizer struct {
	engines []RecognitionEngine
	cfg     RecognizerConfig
	logger  *slog.Logger
}

func NewRecognizer(engines []RecognitionEngine, cfg RecognizerConfig, logger *slog.Logger) *Recognizer {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Modes) == 0 {
		cfg.Modes = DefaultModes
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 20 * time.Second
	}
	if cfg.EarlyExitScore <= 0 {
		cfg.EarlyExitScore = 85
	}
	if cfg.MaxVariants <= 0 {
		cfg.MaxVariants = 4
	}
	return &Recognizer{engines: engines, cfg: cfg, logger: logger}
}

// Recognize tries variants in preference order and, for each, every engine
// under every mode it supports. It stops at the first attempt scoring at
// least EarlyExitScore. A failed attempt is logged and skipped. An error is
// returned only when no attempt produced a transcript.
func (r *Recognizer) Recognize(ctx context.Context, img image.Image) (Outcome, error) {
	var out Outcome
	if len(r.engines) == 0 {
		return out, common.NewAppError("NO_ENGINES", "no recognition engines configured", common.ErrEngineUnavailable)
	}

	dir, err := os.MkdirTemp(r.cfg.TempDir, "invoice-ocr-*")
	if err != nil {
		return out, fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			r.logger.Warn("failed to remove temp dir", "dir", dir, "error", err)
		}
	}()

	variants := BuildVariants(img, r.cfg.MaxVariants)
	found := false
	var lastErr error

search:
	for _, v := range variants {
		path := filepath.Join(dir, v.Name+".png")
		if err := imaging.Save(v.Image, path); err != nil {
			r.logger.Warn("variant write failed", "variant", v.Name, "error", err)
			lastErr = err
			continue
		}
		for _, engine := range r.engines {
			modes := r.cfg.Modes
			if !supportsSegmentation(engine) {
				modes = modes[:1]
			}
			for _, mode := range modes {
				if err := ctx.Err(); err != nil {
					return out, err
				}
				attempt, tr, err := r.attempt(ctx, engine, v.Name, path, mode)
				out.Attempts = append(out.Attempts, attempt)
				if err != nil {
					lastErr = err
					continue
				}
				if !found || attempt.Score > out.Score {
					found = true
					out.Text = tr.Text
					out.Confidence = tr.Confidence
					out.Score = attempt.Score
					out.BestVariant = v.Name
					out.BestEngine = engine.Name()
					out.BestMode = attempt.Mode
				}
				if attempt.Score >= r.cfg.EarlyExitScore {
					out.EarlyExit = true
					break search
				}
			}
		}
	}

	if !found {
		return out, common.NewAppError("RECOGNITION_FAILED", fmt.Sprintf("all %d recognition attempts failed", len(out.Attempts)), errors.Join(common.ErrEngineUnavailable, lastErr))
	}
	r.logger.Info("recognition complete",
		"attempts", len(out.Attempts),
		"best_variant", out.BestVariant,
		"best_engine", out.BestEngine,
		"best_mode", out.BestMode,
		"score", out.Score,
		"early_exit", out.EarlyExit)
	return out, nil
}

type recognizeResult struct {
	tr  Transcript
	err error
}

func (r *Recognizer) attempt(ctx context.Context, engine RecognitionEngine, variant, path string, mode PageSegMode) (entity.Attempt, Transcript, error) {
	a := entity.Attempt{VariantName: variant, Engine: engine.Name()}
	if supportsSegmentation(engine) {
		a.Mode = mode.String()
	}

	actx, cancel := context.WithTimeout(ctx, r.cfg.AttemptTimeout)
	defer cancel()

	start := time.Now()
	ch := make(chan recognizeResult, 1)
	go func() {
		tr, err := engine.Recognize(actx, Request{ImagePath: path, Mode: mode, Language: r.cfg.Language})
		ch <- recognizeResult{tr: tr, err: err}
	}()

	var res recognizeResult
	select {
	case res = <-ch:
	case <-actx.Done():
		res.err = actx.Err()
	}
	if res.err != nil && ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
		res.err = fmt.Errorf("attempt timed out after %s: %w", r.cfg.AttemptTimeout, context.DeadlineExceeded)
	}
	a.DurationMs = time.Since(start).Milliseconds()

	if res.err == nil && strings.TrimSpace(res.tr.Text) == "" {
		res.err = common.ErrNoText
	}
	if res.err != nil {
		a.Failed = true
		a.Notes = []string{res.err.Error()}
		r.logger.Warn("recognition attempt failed",
			"variant", variant, "engine", a.Engine, "mode", a.Mode, "error", res.err)
		return a, Transcript{}, res.err
	}

	a.Confidence = res.tr.Confidence
	a.Score, a.Notes = CompositeScore(res.tr.Text, res.tr.Confidence)
	r.logger.Debug("recognition attempt",
		"variant", variant, "engine", a.Engine, "mode", a.Mode,
		"score", a.Score, "duration_ms", a.DurationMs)
	return a, res.tr, nil
}
