package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/peterbourgon/ff/v4"

	"github.com/joseph-ayodele/invoice-extractor/internal/async"
	"github.com/joseph-ayodele/invoice-extractor/internal/export"
	"github.com/joseph-ayodele/invoice-extractor/internal/ingest"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
)

func batchCommand(parent *ff.FlagSet, g globals) *ff.Command {
	fs := ff.NewFlagSet("batch").SetParent(parent)
	dir := fs.StringLong("dir", "", "directory to process invoices from (required)")
	out := fs.StringLong("out", "", "output XLSX path (default <dir>/../invoices.xlsx)")
	workers := fs.IntLong("workers", 0, "concurrent documents (default PIPELINE_WORKERS)")
	vendor := fs.StringLong("vendor", "", "vendor key applied to every document")
	includeHidden := fs.BoolLong("include-hidden", "also process hidden files and directories")

	return &ff.Command{
		Name:      "batch",
		Usage:     "invoicectl batch --dir DIR [FLAGS]",
		ShortHelp: "process every invoice under a directory and write an XLSX report",
		Flags:     fs,
		Exec: func(ctx context.Context, _ []string) error {
			if *dir == "" {
				return fmt.Errorf("--dir is required: %w", ff.ErrHelp)
			}
			if *out == "" {
				*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "invoices.xlsx")
			}
			a, err := open(ctx, g)
			if err != nil {
				return err
			}
			defer a.Close()

			start := time.Now()
			scanner := ingest.NewScanner(a.Config.Pipeline.MaxInputBytes, !*includeHidden, a.Logger)
			docs, stats, err := scanner.ScanDirectory(ctx, *dir)
			if err != nil {
				return err
			}

			var (
				mu   sync.Mutex
				rows []export.BatchRow
			)
			add := func(r export.BatchRow) {
				mu.Lock()
				defer mu.Unlock()
				rows = append(rows, r)
			}
			n := *workers
			if n <= 0 {
				n = a.Config.Pipeline.Workers
			}
			queue := async.NewProcessorQueue(a.Pipeline, a.Logger,
				async.WithWorkers(n),
				async.WithProcessTimeout(a.Config.Pipeline.JobTimeout),
				async.WithResultHandler(func(job async.Job, res pipeline.Result) {
					add(export.BatchRow{Path: job.ID, Result: res})
				}),
			)
			for _, doc := range docs {
				switch {
				case doc.Err != "":
					add(export.BatchRow{Path: doc.Path, Err: doc.Err})
				case doc.Deduplicated:
					add(export.BatchRow{Path: doc.Path, Err: "duplicate of an earlier file"})
				default:
					if err := queue.Enqueue(ctx, async.Job{ID: doc.Path, Input: doc.Input(*vendor)}); err != nil {
						add(export.BatchRow{Path: doc.Path, Err: err.Error()})
					}
				}
			}
			queue.Shutdown(ctx)

			mu.Lock()
			defer mu.Unlock()
			sort.Slice(rows, func(i, j int) bool { return rows[i].Path < rows[j].Path })

			data, err := export.NewService(a.Logger).BatchReportXLSX(ctx, rows)
			if err != nil {
				return err
			}
			if err := os.WriteFile(*out, data, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			ok := 0
			for _, r := range rows {
				if r.Err == "" && r.Result.OK {
					ok++
				}
			}
			fmt.Printf("scanned=%d matched=%d processed=%d ok=%d duplicates=%d failed=%d elapsed=%s\nreport: %s\n",
				stats.Scanned, stats.Matched, len(rows), ok, stats.Deduplicated, stats.Failed,
				time.Since(start).Round(time.Millisecond), *out)
			return nil
		},
	}
}
