package ingest

import (
	"time"

	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
)

// Document is one file picked up for extraction.
type Document struct {
	Path         string
	Filename     string
	Ext          string
	Size         int64
	SHA256       string
	ModTime      time.Time
	Data         []byte
	Deduplicated bool
	Err          string
}

// Input converts the document into a pipeline input.
func (d Document) Input(vendorKey string) pipeline.Input {
	return pipeline.Input{
		Data:      d.Data,
		Filename:  d.Filename,
		FileSize:  d.Size,
		VendorKey: vendorKey,
	}
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}
