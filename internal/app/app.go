// Package app assembles the run store, recognition engines and pipeline
// from configuration for the binaries.
package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

// App owns everything that needs closing.
type App struct {
	Config   *common.Config
	Store    repository.RunStore
	Pipeline *pipeline.Pipeline
	Logger   *slog.Logger

	closers []io.Closer
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(cfg common.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(os.Stderr, opts)
	} else {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(h)
}

// New opens the run store and builds the configured engines.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	store, err := repository.OpenRunStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, common.WrapError(err, "open run store")
	}
	a := &App{Config: cfg, Store: store, Logger: logger, closers: []io.Closer{store}}

	engines, err := ocr.NewRegistry().Build(cfg.OCR.Engines, EngineConfig(cfg), logger)
	if err != nil {
		a.Close()
		return nil, common.WrapError(err, "build recognition engines")
	}
	for _, e := range engines {
		if c, ok := e.(io.Closer); ok {
			a.closers = append(a.closers, c)
		}
	}
	logger.Info("recognition engines ready", "engines", cfg.OCR.Engines)

	recognizer := ocr.NewRecognizer(engines, ocr.RecognizerConfig{
		AttemptTimeout: cfg.OCR.AttemptTimeout,
		EarlyExitScore: cfg.OCR.EarlyExitScore,
		MaxVariants:    cfg.OCR.MaxVariants,
		TempDir:        cfg.OCR.TempDir,
		Language:       cfg.OCR.Language,
	}, logger)

	a.Pipeline = pipeline.New(recognizer,
		pipeline.WithRecorder(store),
		pipeline.WithLogger(logger),
		pipeline.WithOKThreshold(cfg.Pipeline.OKThreshold),
		pipeline.WithLimits(pipeline.Limits{
			MinInputBytes:      int64(cfg.Pipeline.MinInputBytes),
			MaxInputBytes:      cfg.Pipeline.MaxInputBytes,
			MinTranscriptChars: cfg.Pipeline.MinTranscriptChars,
			PDFMinTextChars:    cfg.Pipeline.PDFMinTextChars,
		}),
	)
	return a, nil
}

func EngineConfig(cfg *common.Config) ocr.EngineConfig {
	return ocr.EngineConfig{
		TesseractPath: cfg.OCR.TesseractPath,
		TessdataDir:   cfg.OCR.TessdataDir,
		Language:      cfg.OCR.Language,
		OEM:           cfg.OCR.OEM,
		AzureEndpoint: cfg.Azure.Endpoint,
		AzureKey:      cfg.Azure.APIKey,
		GeminiKey:     cfg.Gemini.APIKey,
		GeminiModel:   cfg.Gemini.Model,
	}
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.Logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
