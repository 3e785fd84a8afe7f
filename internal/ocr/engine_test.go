package ocr

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
)

type stubRunner struct {
	stdout string
	stderr string
	err    error
	calls  [][]string
}

func (s *stubRunner) Run(_ context.Context, cmd Command) (CommandResult, error) {
	s.calls = append(s.calls, append([]string{cmd.Name}, cmd.Args...))
	return CommandResult{Stdout: []byte(s.stdout), Stderr: []byte(s.stderr)}, s.err
}

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t100\t100\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t0\t0\t10\t10\t90\tAcme\n" +
	"5\t1\t1\t1\t1\t2\t0\t0\t10\t10\t80\tSupply\n" +
	"5\t1\t1\t1\t2\t1\t0\t0\t10\t10\t70\tTotal\n" +
	"5\t1\t1\t1\t2\t2\t0\t0\t10\t10\t60\t$5.00\n" +
	"5\t2\t1\t1\t1\t1\t0\t0\t10\t10\t100\tThanks\n"

func TestParseTSV(t *testing.T) {
	tr := ParseTSV(sampleTSV)

	assert.Equal(t, "Acme Supply\nTotal $5.00\f\nThanks", tr.Text)
	assert.InDelta(t, 0.8, tr.Confidence, 1e-9)
	assert.Equal(t, Transcript{}, ParseTSV("header only\n"))
}

func TestTesseractCLIArgs(t *testing.T) {
	runner := &stubRunner{stdout: sampleTSV}
	engine := NewTesseractCLI(EngineConfig{TessdataDir: "/tess", OEM: 1, Runner: runner}, nil)

	tr, err := engine.Recognize(context.Background(), Request{ImagePath: "/tmp/x.png", Mode: ModeSparse})
	require.NoError(t, err)
	assert.Contains(t, tr.Text, "Acme Supply")
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{
		"tesseract", "/tmp/x.png", "stdout", "-l", "eng",
		"--psm", "11", "--oem", "1", "--tessdata-dir", "/tess", "tsv",
	}, runner.calls[0])
	assert.True(t, engine.SupportsSegmentation())
}

func TestTesseractCLIFailure(t *testing.T) {
	runner := &stubRunner{stderr: "Error opening data file", err: errors.New("exit status 1")}
	engine := NewTesseractCLI(EngineConfig{Runner: runner}, nil)

	_, err := engine.Recognize(context.Background(), Request{ImagePath: "x.png", Mode: ModeAuto})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Error opening data file")
}

func TestCompositeScore(t *testing.T) {
	invoice := "ACME SUPPLY\nInvoice 1001 Date 03/14/2024\nSubtotal 100.00\nTax 8.50\nTotal Amount Due 108.50"
	good, notes := CompositeScore(invoice, 0.9)
	assert.Empty(t, notes)
	assert.InDelta(t, 54+15+15+5, good, 1e-9)

	noise, notes := CompositeScore("~~ ## %% ^^ ** !!", 0.9)
	assert.Less(t, noise, good)
	assert.Contains(t, notes, "gibberish: low alphanumeric ratio")

	_, notes = CompositeScore("aaaaaaaaaa total", 0.5)
	assert.Contains(t, notes, "repetition artifacts")

	capped, _ := CompositeScore(invoice, 5)
	assert.LessOrEqual(t, capped, 100.0)
}

func TestRepeatedLinesAreArtifacts(t *testing.T) {
	text := strings.Repeat("TOTAL 5.00\n", 4) + "Acme"
	assert.True(t, hasRepetitionArtifacts(text))
	assert.False(t, hasRepetitionArtifacts("one line\nanother line\nthird line\nfourth line"))
}

func TestTextQuality(t *testing.T) {
	assert.Zero(t, textQuality("  "))
	rich := textQuality("Invoice date 03/14/2024 total $5.00 paid with thanks from every single customer here today")
	poor := textQuality("lorem")
	assert.Greater(t, rich, poor)
	assert.LessOrEqual(t, rich, 1.0)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Contains(t, r.Names(), "tesseract")

	r.Register("fake", func(EngineConfig, *slog.Logger) (RecognitionEngine, error) {
		return &fakeEngine{name: "fake"}, nil
	})
	engines, err := r.Build([]string{"fake", "tesseract"}, EngineConfig{}, nil)
	require.NoError(t, err)
	require.Len(t, engines, 2)
	assert.Equal(t, "fake", engines[0].Name())
	assert.Equal(t, "tesseract", engines[1].Name())

	_, err = r.Build([]string{"nope"}, EngineConfig{}, nil)
	assert.ErrorIs(t, err, common.ErrEngineUnavailable)

	r.Register("broken", func(EngineConfig, *slog.Logger) (RecognitionEngine, error) {
		return nil, errors.New("missing key")
	})
	_, err = r.Build([]string{"broken"}, EngineConfig{}, nil)
	assert.ErrorContains(t, err, "building engine broken")
}

func TestPageSegModeString(t *testing.T) {
	assert.Equal(t, "uniform_block", ModeUniformBlock.String())
	assert.Equal(t, "psm_13", PageSegMode(13).String())
}

func TestAzureLines(t *testing.T) {
	word := func(s string) computervision.OcrWord { return computervision.OcrWord{Text: &s} }
	lines := []computervision.OcrLine{
		{Words: &[]computervision.OcrWord{word("Total"), word("$5.00")}},
		{Words: nil},
		{Words: &[]computervision.OcrWord{word("Thanks")}},
	}
	result := computervision.OcrResult{Regions: &[]computervision.OcrRegion{{Lines: &lines}}}

	assert.Equal(t, "Total $5.00\nThanks\n", azureLines(result))
	assert.Empty(t, azureLines(computervision.OcrResult{}))

	_, err := NewAzureVision("", "key", nil)
	assert.Error(t, err)
}
