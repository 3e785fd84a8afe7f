package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/joseph-ayodele/invoice-extractor/internal/app"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
)

// globals are the flags shared by every subcommand.
type globals struct {
	logLevel  *string
	logFormat *string
	store     *string
	storeDSN  *string
	engines   *string
}

// config applies flag overrides on top of the environment.
func (g globals) config() (*common.Config, error) {
	cfg := common.LoadConfig()
	cfg.Log.Level = *g.logLevel
	cfg.Log.Format = *g.logFormat
	if *g.store != "" {
		cfg.Store.Driver = *g.store
	}
	if *g.storeDSN != "" {
		cfg.Store.DSN = *g.storeDSN
	}
	if *g.engines != "" {
		var names []string
		for _, n := range strings.Split(*g.engines, ",") {
			if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
				names = append(names, n)
			}
		}
		cfg.OCR.Engines = names
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	rootFlags := ff.NewFlagSet("invoicectl")
	g := globals{
		logLevel:  rootFlags.StringLong("log-level", "warn", "log level: debug, info, warn, error"),
		logFormat: rootFlags.StringLong("log-format", "text", "log format: text or json"),
		store:     rootFlags.StringLong("store", "", "run store: postgres, sqlite, bolt or none (default from RUN_STORE)"),
		storeDSN:  rootFlags.StringLong("store-dsn", "", "run store DSN or bolt file path (default from RUN_STORE_DSN)"),
		engines:   rootFlags.StringLong("engines", "", "comma-separated recognition engines (default from OCR_ENGINES)"),
	}

	root := &ff.Command{
		Name:      "invoicectl",
		Usage:     "invoicectl [FLAGS] <SUBCOMMAND> ...",
		ShortHelp: "extract structured data from invoices",
		Flags:     rootFlags,
		Exec: func(context.Context, []string) error {
			return ff.ErrHelp
		},
	}
	root.Subcommands = []*ff.Command{
		extractCommand(rootFlags, g),
		batchCommand(rootFlags, g),
		runsCommand(rootFlags, g),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := root.ParseAndRun(ctx, os.Args[1:], ff.WithEnvVarPrefix("INVOICECTL"))
	switch {
	case err == nil:
	case errors.Is(err, ff.ErrHelp), errors.Is(err, ff.ErrNoExec):
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Command(root.GetSelected()))
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// open builds the application for a subcommand.
func open(ctx context.Context, g globals) (*app.App, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, err
	}
	logger := app.NewLogger(cfg.Log)
	return app.New(ctx, cfg, logger)
}
