//go:build gosseract

package ocr

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/otiai10/gosseract/v2"
)

func init() {
	registerBuiltin("gosseract", func(cfg EngineConfig, logger *slog.Logger) (RecognitionEngine, error) {
		return NewGosseract(cfg, logger), nil
	})
}

// Gosseract runs tesseract in-process through libtesseract. Build with
// -tags gosseract; requires the tesseract and leptonica headers.
type Gosseract struct {
	tessdataDir string
	language    string
	logger      *slog.Logger
}

func NewGosseract(cfg EngineConfig, logger *slog.Logger) *Gosseract {
	if logger == nil {
		logger = slog.Default()
	}
	lang := cfg.Language
	if lang == "" {
		lang = "eng"
	}
	return &Gosseract{tessdataDir: cfg.TessdataDir, language: lang, logger: logger}
}

func (g *Gosseract) Name() string { return "gosseract" }

func (g *Gosseract) SupportsSegmentation() bool { return true }

func (g *Gosseract) Recognize(ctx context.Context, req Request) (Transcript, error) {
	if err := ctx.Err(); err != nil {
		return Transcript{}, err
	}
	client := gosseract.NewClient()
	defer client.Close()

	if g.tessdataDir != "" {
		client.SetTessdataPrefix(g.tessdataDir)
	}
	lang := req.Language
	if lang == "" {
		lang = g.language
	}
	if err := client.SetLanguage(lang); err != nil {
		return Transcript{}, fmt.Errorf("gosseract language: %w", err)
	}
	if req.Mode > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(req.Mode)); err != nil {
			return Transcript{}, fmt.Errorf("gosseract psm: %w", err)
		}
	}
	if err := client.SetImage(req.ImagePath); err != nil {
		return Transcript{}, fmt.Errorf("gosseract image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return Transcript{}, fmt.Errorf("gosseract text: %w", err)
	}

	tr := Transcript{Text: text}
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		g.logger.Warn("gosseract word confidences unavailable", "error", err)
		tr.Confidence = textQuality(text)
		return tr, nil
	}
	var sum float64
	for _, box := range boxes {
		sum += box.Confidence
	}
	if len(boxes) > 0 {
		tr.Confidence = sum / float64(len(boxes)) / 100
	}
	return tr, nil
}
