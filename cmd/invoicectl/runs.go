package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/peterbourgon/ff/v4"

	"github.com/joseph-ayodele/invoice-extractor/internal/export"
	"github.com/joseph-ayodele/invoice-extractor/internal/money"
)

func runsCommand(parent *ff.FlagSet, g globals) *ff.Command {
	fs := ff.NewFlagSet("runs").SetParent(parent)
	limit := fs.IntLong("limit", 20, "number of most recent runs to show")
	xlsx := fs.StringLong("xlsx", "", "also write the runs to this XLSX file")

	return &ff.Command{
		Name:      "runs",
		Usage:     "invoicectl runs [FLAGS]",
		ShortHelp: "list recent pipeline run records",
		Flags:     fs,
		Exec: func(ctx context.Context, _ []string) error {
			a, err := open(ctx, g)
			if err != nil {
				return err
			}
			defer a.Close()

			runs, err := a.Store.ListRecent(ctx, *limit)
			if err != nil {
				return err
			}
			total, err := a.Store.Count(ctx)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CREATED\tRUN\tFILE\tOK\tSTATUS\tSCORE\tTOTAL\tREASONS")
			for _, r := range runs {
				total := "-"
				if r.TotalCents != nil {
					total = money.Format(*r.TotalCents)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\t%.3f\t%s\t%s\n",
					r.CreatedAt.Local().Format(time.DateTime), r.ID.String()[:8], r.Filename,
					r.OK, r.Status, r.OverallScore, total, r.FailureReasons)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Printf("%d of %d runs\n", len(runs), total)

			if *xlsx != "" {
				data, err := export.NewService(a.Logger).RunsXLSX(ctx, runs)
				if err != nil {
					return err
				}
				if err := os.WriteFile(*xlsx, data, 0o644); err != nil {
					return fmt.Errorf("write xlsx: %w", err)
				}
			}
			return nil
		},
	}
}
