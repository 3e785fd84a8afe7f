package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

func init() {
	registerBuiltin("tesseract", func(cfg EngineConfig, logger *slog.Logger) (RecognitionEngine, error) {
		return NewTesseractCLI(cfg, logger), nil
	})
}

// TesseractCLI shells out to the tesseract binary and reads its TSV output,
// which carries both the words and their confidences.
type TesseractCLI struct {
	bin         string
	tessdataDir string
	language    string
	oem         int
	runner      Runner
	logger      *slog.Logger
}

func NewTesseractCLI(cfg EngineConfig, logger *slog.Logger) *TesseractCLI {
	if logger == nil {
		logger = slog.Default()
	}
	t := &TesseractCLI{
		bin:         cfg.TesseractPath,
		tessdataDir: cfg.TessdataDir,
		language:    cfg.Language,
		oem:         cfg.OEM,
		runner:      cfg.Runner,
		logger:      logger,
	}
	if t.bin == "" {
		t.bin = "tesseract"
	}
	if t.language == "" {
		t.language = "eng"
	}
	if t.runner == nil {
		t.runner = ExecRunner{Logger: logger}
	}
	return t
}

func (t *TesseractCLI) Name() string { return "tesseract" }

func (t *TesseractCLI) SupportsSegmentation() bool { return true }

func (t *TesseractCLI) Recognize(ctx context.Context, req Request) (Transcript, error) {
	lang := req.Language
	if lang == "" {
		lang = t.language
	}
	// tesseract <file> stdout -l <lang> --psm N [--oem N] [--tessdata-dir D] tsv
	args := []string{req.ImagePath, "stdout", "-l", lang}
	if req.Mode > 0 {
		args = append(args, "--psm", strconv.Itoa(int(req.Mode)))
	}
	if t.oem > 0 {
		args = append(args, "--oem", strconv.Itoa(t.oem))
	}
	if t.tessdataDir != "" {
		args = append(args, "--tessdata-dir", t.tessdataDir)
	}
	args = append(args, "tsv")

	res, err := t.runner.Run(ctx, Command{Name: t.bin, Args: args})
	if err != nil {
		return Transcript{}, fmt.Errorf("tesseract psm %d: %w: %s", req.Mode, err, stderrTail(res.Stderr, 512))
	}
	tr := ParseTSV(string(res.Stdout))
	t.logger.Debug("tesseract transcript", "psm", int(req.Mode), "chars", len(tr.Text), "confidence", tr.Confidence)
	return tr, nil
}

// tsv columns: level page_num block_num par_num line_num word_num left top width height conf text
const tsvColumns = 12

// ParseTSV rebuilds line-broken text from tesseract TSV and averages the word
// confidences, skipping the -1 rows that mark layout elements.
func ParseTSV(tsv string) Transcript {
	var (
		b        strings.Builder
		sum, n   float64
		lastLine string
		lastPage string
		wordsOut int
	)
	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || ln == "" {
			continue // header
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < tsvColumns {
			continue
		}
		conf, err := strconv.ParseFloat(cols[10], 64)
		if err != nil || conf < 0 {
			continue
		}
		word := strings.Join(cols[11:], "\t")
		if strings.TrimSpace(word) == "" {
			continue
		}
		lineKey := cols[1] + "." + cols[2] + "." + cols[3] + "." + cols[4]
		switch {
		case wordsOut == 0:
		case cols[1] != lastPage:
			b.WriteString("\f\n")
		case lineKey != lastLine:
			b.WriteByte('\n')
		default:
			b.WriteByte(' ')
		}
		b.WriteString(word)
		lastLine, lastPage = lineKey, cols[1]
		wordsOut++
		sum += conf
		n++
	}
	tr := Transcript{Text: b.String()}
	if n > 0 {
		tr.Confidence = sum / n / 100
	}
	return tr
}
