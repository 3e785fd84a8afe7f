package entity

import (
	"time"

	"github.com/google/uuid"
)

// PipelineRun is the write-once observability record for one invocation.
// It is never read back into extraction.
type PipelineRun struct {
	ID           uuid.UUID `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Filename     string    `json:"filename,omitempty"`
	MimeType     string    `json:"mime_type,omitempty"`
	FileSize     int64     `json:"file_size"`
	SourceFormat string    `json:"source_format,omitempty"`
	SHA256       string    `json:"sha256,omitempty"`
	VendorKey    string    `json:"vendor_key,omitempty"`
	Stage        string    `json:"stage"`

	Quality QualityMetrics `json:"quality"`

	RecognitionConfidence float64 `json:"recognition_confidence"`
	AttemptCount          int     `json:"attempt_count"`
	BestVariant           string  `json:"best_variant,omitempty"`
	BestEngine            string  `json:"best_engine,omitempty"`

	Vendor        string `json:"vendor,omitempty"`
	InvoiceDate   string `json:"invoice_date,omitempty"`
	TotalCents    *int64 `json:"total_cents,omitempty"`
	LineItemCount int    `json:"line_item_count"`

	ArbitrationConfidence int  `json:"arbitration_confidence"`
	TotalOverridden       bool `json:"total_overridden"`

	OverallScore     float64 `json:"overall_score"`
	RecognitionScore float64 `json:"recognition_score"`
	QualityScore     float64 `json:"quality_score"`
	ExtractionScore  float64 `json:"extraction_score"`
	ValidationScore  float64 `json:"validation_score"`
	FieldVendor      float64 `json:"field_vendor"`
	FieldDate        float64 `json:"field_date"`
	FieldTotal       float64 `json:"field_total"`
	FieldLineItems   float64 `json:"field_line_items"`

	OK             bool   `json:"ok"`
	Status         string `json:"status"`
	FailureReasons string `json:"failure_reasons"`
	ErrorMessage   string `json:"error_message,omitempty"`
	ProcessingMs   int64  `json:"processing_ms"`
}
