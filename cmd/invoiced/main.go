package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/invoice-extractor/internal/app"
	"github.com/joseph-ayodele/invoice-extractor/internal/async"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/arbiter"
	"github.com/joseph-ayodele/invoice-extractor/internal/ingest"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
	"github.com/joseph-ayodele/invoice-extractor/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg := common.LoadConfig()
	logger := app.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// gRPC health
	hs := server.NewHealthServer(storeCheck(a.Store), logger)
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("grpc listen failed", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	go func() {
		if err := hs.Serve(lis); err != nil {
			logger.Error("grpc serve failed", "error", err)
		}
	}()
	go hs.Watch(ctx, 30*time.Second)

	// HTTP
	h := server.NewHandler(a.Pipeline, a.Store, cfg.Server.MaxUploadBytes, logger)
	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           server.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", err)
			stop()
		}
	}()

	// Inbox watcher
	var queue *async.ProcessorQueue
	if len(cfg.Watch.Dirs) > 0 {
		queue = startInbox(ctx, cfg, a.Pipeline, logger)
	}

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	if queue != nil {
		queue.Shutdown(shutdownCtx)
	}
	hs.Stop()
	logger.Info("stopped")
}

func storeCheck(store repository.RunStore) server.HealthChecker {
	return func(ctx context.Context) error {
		_, err := store.Count(ctx)
		return err
	}
}

// startInbox feeds files dropped into the watch directories through the
// worker queue. Outcomes land in the run store like any other run.
func startInbox(ctx context.Context, cfg *common.Config, p *pipeline.Pipeline, logger *slog.Logger) *async.ProcessorQueue {
	queue := async.NewProcessorQueue(p, logger,
		async.WithWorkers(cfg.Pipeline.Workers),
		async.WithProcessTimeout(cfg.Pipeline.JobTimeout),
	)
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       cfg.Watch.Dirs,
		InitialScan: true,
		Debounce:    cfg.Watch.Debounce,
		SkipHidden:  true,
	}, logger)
	if err != nil {
		logger.Error("inbox watcher disabled", "error", err)
		return queue
	}
	scanner := ingest.NewScanner(cfg.Pipeline.MaxInputBytes, true, logger)

	go func() {
		for {
			select {
			case path, ok := <-events:
				if !ok {
					return
				}
				doc, err := scanner.LoadFile(path)
				if err != nil {
					logger.Warn("inbox file skipped", "path", path, "error", err)
					continue
				}
				job := async.Job{ID: uuid.NewString(), Input: doc.Input(vendorKeyFromPath(cfg.Watch.Dirs, path))}
				if err := queue.Enqueue(ctx, job); err != nil {
					logger.Warn("inbox enqueue failed", "path", path, "error", err)
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				logger.Warn("inbox watcher error", "error", err)
			}
		}
	}()
	return queue
}

// vendorKeyFromPath uses the first directory under a watch root as the
// vendor key, so inbox/sysco/inv-1.pdf is scored with sysco's patterns.
func vendorKeyFromPath(roots []string, path string) string {
	for _, root := range roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." || filepath.IsAbs(rel) || rel[0] == '.' {
			continue
		}
		if dir := filepath.Dir(rel); dir != "." {
			return arbiter.NormalizeVendorKey(strings.Split(filepath.ToSlash(dir), "/")[0])
		}
	}
	return ""
}
