package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/money"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
)

const (
	invoicesSheet  = "Invoices"
	lineItemsSheet = "Line Items"
	runsSheet      = "Runs"
)

// BatchRow is one processed document in a batch report.
type BatchRow struct {
	Path   string
	Result pipeline.Result
	Err    string // set when the document never reached the pipeline
}

// Service renders workbooks as XLSX bytes.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// BatchReportXLSX writes one row per document and one row per line item.
func (s *Service) BatchReportXLSX(_ context.Context, rows []BatchRow) ([]byte, error) {
	start := time.Now()
	f := excelize.NewFile()
	defer f.Close()

	if err := useSheet(f, invoicesSheet); err != nil {
		return nil, err
	}
	writeRow(f, invoicesSheet, 1, []any{
		"File", "OK", "Status", "Overall Score", "Vendor", "Invoice Date",
		"Invoice Number", "Total", "Currency", "Line Items", "Failure Reasons", "Run ID",
	})
	if _, err := f.NewSheet(lineItemsSheet); err != nil {
		return nil, err
	}
	writeRow(f, lineItemsSheet, 1, []any{"File", "Description", "Quantity", "Unit Price", "Total", "Category", "SKU"})

	itemRow := 2
	for i, r := range rows {
		res := r.Result
		ex := res.Extracted
		reasons := constants.JoinFailureReasons(res.FailureReasons)
		if r.Err != "" {
			reasons = r.Err
		}
		total := ""
		if ex.Totals.Total != nil {
			total = money.Format(*ex.Totals.Total)
		}
		runID := ""
		if r.Err == "" {
			runID = res.RunID.String()
		}
		writeRow(f, invoicesSheet, i+2, []any{
			r.Path, res.OK, string(res.Confidence.Status), res.Confidence.OverallScore,
			ex.Vendor, ex.Date, ex.InvoiceNumber, total, ex.Currency, len(ex.LineItems),
			truncate(reasons, 140), runID,
		})
		for _, li := range ex.LineItems {
			unit := ""
			if li.UnitPriceCents != nil {
				unit = money.Format(*li.UnitPriceCents)
			}
			writeRow(f, lineItemsSheet, itemRow, []any{
				r.Path, li.Description, li.Quantity, unit, money.Format(li.TotalCents), li.Category, li.SKU,
			})
			itemRow++
		}
	}

	_ = f.SetColWidth(invoicesSheet, "A", "A", 48) // path
	_ = f.SetColWidth(invoicesSheet, "E", "E", 28) // vendor
	_ = f.SetColWidth(invoicesSheet, "K", "K", 48) // reasons
	_ = f.SetColWidth(invoicesSheet, "L", "L", 38) // run id
	_ = f.SetColWidth(lineItemsSheet, "B", "B", 40)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.batch.xlsx.ok",
		"documents", len(rows),
		"line_items", itemRow-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// RunsXLSX dumps stored run records.
func (s *Service) RunsXLSX(_ context.Context, runs []entity.PipelineRun) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := useSheet(f, runsSheet); err != nil {
		return nil, err
	}
	writeRow(f, runsSheet, 1, []any{
		"Run ID", "Created", "File", "Format", "Stage", "OK", "Status", "Overall",
		"Recognition", "Quality", "Extraction", "Validation", "Vendor", "Total",
		"Attempts", "Best Engine", "Failure Reasons", "Error", "Processing ms",
	})
	for i, r := range runs {
		total := ""
		if r.TotalCents != nil {
			total = money.Format(*r.TotalCents)
		}
		writeRow(f, runsSheet, i+2, []any{
			r.ID.String(), r.CreatedAt.Format(time.RFC3339), r.Filename, r.SourceFormat, r.Stage,
			r.OK, r.Status, r.OverallScore, r.RecognitionScore, r.QualityScore, r.ExtractionScore,
			r.ValidationScore, r.Vendor, total, r.AttemptCount, r.BestEngine, r.FailureReasons,
			truncate(r.ErrorMessage, 140), r.ProcessingMs,
		})
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.runs.xlsx.ok", "rows", len(runs))
	return buf.Bytes(), nil
}

// useSheet renames the default sheet to name and makes it active.
func useSheet(f *excelize.File, name string) error {
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return err
	}
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
