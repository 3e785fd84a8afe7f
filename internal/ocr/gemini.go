package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

func init() {
	registerBuiltin("gemini", func(cfg EngineConfig, logger *slog.Logger) (RecognitionEngine, error) {
		return NewGemini(context.Background(), cfg.GeminiKey, cfg.GeminiModel, logger)
	})
}

const transcribePrompt = `Transcribe all text in this invoice image exactly as printed.
Keep the original line breaks and the left-to-right order of columns.
Do not summarize, translate, correct or add anything.
Output plain text only, without markdown.`

// Gemini uses a multimodal model as a transcriber.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger *slog.Logger
}

func NewGemini(ctx context.Context, apiKey, modelName string, logger *slog.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	if logger == nil {
		logger = slog.Default()
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)
	return &Gemini{client: client, model: model, logger: logger}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Recognize(ctx context.Context, req Request) (Transcript, error) {
	data, err := os.ReadFile(req.ImagePath)
	if err != nil {
		return Transcript{}, fmt.Errorf("reading variant: %w", err)
	}
	// variants are always written as PNG
	resp, err := g.model.GenerateContent(ctx, genai.ImageData("png", data), genai.Text(transcribePrompt))
	if err != nil {
		return Transcript{}, fmt.Errorf("generating content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Transcript{}, fmt.Errorf("no response from gemini")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	text := strings.TrimSpace(b.String())
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return Transcript{Text: text, Confidence: textQuality(text)}, nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}
