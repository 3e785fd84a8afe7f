package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/peterbourgon/ff/v4"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/ingest"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
)

func extractCommand(parent *ff.FlagSet, g globals) *ff.Command {
	fs := ff.NewFlagSet("extract").SetParent(parent)
	vendor := fs.StringLong("vendor", "", "known vendor key, e.g. sysco")
	asText := fs.BoolLong("text", "treat the file as already-extracted text")
	compact := fs.BoolLong("compact", "print single-line JSON")

	return &ff.Command{
		Name:      "extract",
		Usage:     "invoicectl extract [FLAGS] <FILE>",
		ShortHelp: "run one document through the pipeline and print the result",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("extract takes exactly one file: %w", ff.ErrHelp)
			}
			if err := common.NewValidator().Field("vendor", *vendor, common.MaxLength(64), common.VendorKey).Err(); err != nil {
				return err
			}
			a, err := open(ctx, g)
			if err != nil {
				return err
			}
			defer a.Close()

			var in pipeline.Input
			if *asText {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				in = pipeline.Input{Text: string(data), Filename: args[0], FileSize: int64(len(data)), VendorKey: *vendor}
			} else {
				doc, err := ingest.NewScanner(a.Config.Pipeline.MaxInputBytes, false, a.Logger).LoadFile(args[0])
				if err != nil {
					return err
				}
				in = doc.Input(*vendor)
			}

			res := a.Pipeline.Run(ctx, in)
			enc := json.NewEncoder(os.Stdout)
			if !*compact {
				enc.SetIndent("", "  ")
			}
			if err := enc.Encode(res); err != nil {
				return err
			}
			if !res.OK {
				return fmt.Errorf("extraction not ok: status=%s reasons=%v", res.Confidence.Status, res.FailureReasons)
			}
			return nil
		},
	}
}
