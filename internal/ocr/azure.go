package ocr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/Azure/go-autorest/autorest"
)

func init() {
	registerBuiltin("azure", func(cfg EngineConfig, logger *slog.Logger) (RecognitionEngine, error) {
		return NewAzureVision(cfg.AzureEndpoint, cfg.AzureKey, logger)
	})
}

// AzureVision calls the Azure Computer Vision printed-text OCR endpoint.
// The service picks its own layout, so segmentation modes do not apply.
type AzureVision struct {
	client *computervision.BaseClient
	logger *slog.Logger
}

func NewAzureVision(endpoint, apiKey string, logger *slog.Logger) (*AzureVision, error) {
	if endpoint == "" || apiKey == "" {
		return nil, fmt.Errorf("azure vision endpoint and key are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	client := computervision.New(endpoint)
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(apiKey)
	return &AzureVision{client: &client, logger: logger}, nil
}

func (a *AzureVision) Name() string { return "azure" }

func (a *AzureVision) Recognize(ctx context.Context, req Request) (Transcript, error) {
	data, err := os.ReadFile(req.ImagePath)
	if err != nil {
		return Transcript{}, fmt.Errorf("reading variant: %w", err)
	}
	result, err := a.client.RecognizePrintedTextInStream(ctx, true, io.NopCloser(bytes.NewReader(data)), computervision.OcrLanguages(computervision.En))
	if err != nil {
		return Transcript{}, fmt.Errorf("azure recognize: %w", err)
	}
	text := azureLines(result)
	// the printed-text API reports no per-word confidence
	return Transcript{Text: text, Confidence: textQuality(text)}, nil
}

func azureLines(result computervision.OcrResult) string {
	if result.Regions == nil {
		return ""
	}
	var b strings.Builder
	for _, region := range *result.Regions {
		if region.Lines == nil {
			continue
		}
		for _, line := range *region.Lines {
			if line.Words == nil {
				continue
			}
			words := make([]string, 0, len(*line.Words))
			for _, w := range *line.Words {
				if w.Text != nil {
					words = append(words, *w.Text)
				}
			}
			b.WriteString(strings.Join(words, " "))
			b.WriteByte('\n')
		}
	}
	return b.String()
}
