package ocr

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
)

// DecodeImage decodes raster bytes, applying EXIF orientation. HEIC/HEIF
// goes through a dedicated decoder.
func DecodeImage(data []byte, mimeType string) (image.Image, error) {
	switch strings.ToLower(mimeType) {
	case "image/heic", "image/heif":
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, formatError("DECODE_FAILED", "cannot decode heic image", err)
		}
		return img, nil
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, formatError("DECODE_FAILED", "cannot decode image", err)
	}
	return img, nil
}

// PDFPageCount validates the document structure and returns its page count.
func PDFPageCount(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return 0, formatError("PDF_INVALID", "cannot read pdf", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, formatError("PDF_INVALID", "cannot count pdf pages", err)
	}
	return ctx.PageCount, nil
}

// ExtractPDFText returns the embedded text layer with pages separated by a
// form feed. Rows are rebuilt from positioned words.
func ExtractPDFText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", formatError("PDF_INVALID", "cannot open pdf", err)
	}
	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		var sb strings.Builder
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, w := range row.Content {
				if s := strings.TrimSpace(w.S); s != "" {
					words = append(words, s)
				}
			}
			if len(words) > 0 {
				sb.WriteString(strings.Join(words, " "))
				sb.WriteByte('\n')
			}
		}
		pages = append(pages, sb.String())
	}
	return strings.Join(pages, "\f"), nil
}

// RenderPDFPage rasterizes one zero-based page for OCR.
func RenderPDFPage(data []byte, page int) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, formatError("PDF_RENDER_FAILED", "cannot open pdf for rendering", err)
	}
	defer doc.Close()
	if page < 0 || page >= doc.NumPage() {
		return nil, common.InvalidArgumentErrorf("page %d out of range", page)
	}
	img, err := doc.Image(page)
	if err != nil {
		return nil, formatError("PDF_RENDER_FAILED", "cannot render pdf page", err)
	}
	return img, nil
}

func formatError(code, message string, err error) error {
	return common.NewAppError(code, message, fmt.Errorf("%w: %w", common.ErrUnsupportedFormat, err))
}
