package repository

import (
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/schema/field"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/db/ent/schema"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

// column is one pipeline_runs column as declared by the ent schema.
type column struct {
	name     string
	typ      field.Type
	nullable bool
}

// runColumns reads the column list from the ent schema so the table, the
// INSERT and the SELECT cannot drift apart.
func runColumns() []column {
	fields := schema.PipelineRun{}.Fields()
	cols := make([]column, 0, len(fields))
	for _, f := range fields {
		d := f.Descriptor()
		cols = append(cols, column{name: d.Name, typ: d.Info.Type, nullable: d.Nillable})
	}
	return cols
}

func columnNames(cols []column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names
}


// runValues flattens run into a column → value map.
func runValues(run entity.PipelineRun) map[string]any {
	var total any
	if run.TotalCents != nil {
		total = *run.TotalCents
	}
	var errMsg any
	if run.ErrorMessage != "" {
		errMsg = run.ErrorMessage
	}
	q := run.Quality
	return map[string]any{
		"id":                     run.ID.String(),
		"created_at":             truncateTime(run.CreatedAt),
		"filename":               run.Filename,
		"mime_type":              run.MimeType,
		"file_size":              run.FileSize,
		"source_format":          run.SourceFormat,
		"sha256":                 run.SHA256,
		"vendor_key":             run.VendorKey,
		"stage":                  run.Stage,
		"quality_measured":       q.Measured,
		"blur":                   q.Blur,
		"glare":                  q.Glare,
		"brightness":             q.Brightness,
		"contrast":               q.Contrast,
		"width":                  q.Width,
		"height":                 q.Height,
		"megapixels":             q.Megapixels,
		"skew_degrees":           q.SkewDegrees,
		"boundary_detected":      q.DocumentBoundaryDetected,
		"recognition_confidence": run.RecognitionConfidence,
		"attempt_count":          run.AttemptCount,
		"best_variant":           run.BestVariant,
		"best_engine":            run.BestEngine,
		"vendor":                 run.Vendor,
		"invoice_date":           run.InvoiceDate,
		"total_cents":            total,
		"line_item_count":        run.LineItemCount,
		"arbitration_confidence": run.ArbitrationConfidence,
		"total_overridden":       run.TotalOverridden,
		"overall_score":          run.OverallScore,
		"recognition_score":      run.RecognitionScore,
		"quality_score":          run.QualityScore,
		"extraction_score":       run.ExtractionScore,
		"validation_score":       run.ValidationScore,
		"field_vendor":           run.FieldVendor,
		"field_date":             run.FieldDate,
		"field_total":            run.FieldTotal,
		"field_line_items":       run.FieldLineItems,
		"ok":                     run.OK,
		"status":                 run.Status,
		"failure_reasons":        run.FailureReasons,
		"error_message":          errMsg,
		"processing_ms":          run.ProcessingMs,
	}
}

// scanTarget returns a destination able to hold a possibly NULL value of c.
func scanTarget(c column) any {
	switch c.typ {
	case field.TypeTime:
		return &sql.NullTime{}
	case field.TypeBool:
		return &sql.NullBool{}
	case field.TypeInt, field.TypeInt32, field.TypeInt64:
		return &sql.NullInt64{}
	case field.TypeFloat32, field.TypeFloat64:
		return &sql.NullFloat64{}
	default:
		return &sql.NullString{}
	}
}

// runFromRow rebuilds a record from scanned targets keyed by column name.
func runFromRow(row map[string]any) (entity.PipelineRun, error) {
	str := func(k string) string { return row[k].(*sql.NullString).String }
	i64 := func(k string) int64 { return row[k].(*sql.NullInt64).Int64 }
	f64 := func(k string) float64 { return row[k].(*sql.NullFloat64).Float64 }
	b := func(k string) bool { return row[k].(*sql.NullBool).Bool }

	id, err := uuid.Parse(str("id"))
	if err != nil {
		return entity.PipelineRun{}, fmt.Errorf("parse run id: %w", err)
	}
	run := entity.PipelineRun{
		ID:           id,
		CreatedAt:    row["created_at"].(*sql.NullTime).Time.UTC(),
		Filename:     str("filename"),
		MimeType:     str("mime_type"),
		FileSize:     i64("file_size"),
		SourceFormat: str("source_format"),
		SHA256:       str("sha256"),
		VendorKey:    str("vendor_key"),
		Stage:        str("stage"),
		Quality: entity.QualityMetrics{
			Measured:                 b("quality_measured"),
			Blur:                     f64("blur"),
			Glare:                    f64("glare"),
			Brightness:               f64("brightness"),
			Contrast:                 f64("contrast"),
			Width:                    int(i64("width")),
			Height:                   int(i64("height")),
			Megapixels:               f64("megapixels"),
			SkewDegrees:              f64("skew_degrees"),
			DocumentBoundaryDetected: b("boundary_detected"),
		},
		RecognitionConfidence: f64("recognition_confidence"),
		AttemptCount:          int(i64("attempt_count")),
		BestVariant:           str("best_variant"),
		BestEngine:            str("best_engine"),
		Vendor:                str("vendor"),
		InvoiceDate:           str("invoice_date"),
		LineItemCount:         int(i64("line_item_count")),
		ArbitrationConfidence: int(i64("arbitration_confidence")),
		TotalOverridden:       b("total_overridden"),
		OverallScore:          f64("overall_score"),
		RecognitionScore:      f64("recognition_score"),
		QualityScore:          f64("quality_score"),
		ExtractionScore:       f64("extraction_score"),
		ValidationScore:       f64("validation_score"),
		FieldVendor:           f64("field_vendor"),
		FieldDate:             f64("field_date"),
		FieldTotal:            f64("field_total"),
		FieldLineItems:        f64("field_line_items"),
		OK:                    b("ok"),
		Status:                str("status"),
		FailureReasons:        str("failure_reasons"),
		ErrorMessage:          str("error_message"),
		ProcessingMs:          i64("processing_ms"),
	}
	if t := row["total_cents"].(*sql.NullInt64); t.Valid {
		v := t.Int64
		run.TotalCents = &v
	}
	return run, nil
}

func truncateTime(t time.Time) time.Time { return t.UTC().Truncate(time.Microsecond) }
