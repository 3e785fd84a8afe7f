package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

// OpenRunStore builds the store selected by cfg.Driver. SQL stores have
// their table created on open.
func OpenRunStore(ctx context.Context, cfg common.StoreConfig, logger *slog.Logger) (RunStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case DriverNone, "":
		return DiscardStore{}, nil
	case DriverBolt:
		logger.Info("opening bolt run store", "path", cfg.DSN)
		return NewBoltRunStore(cfg.DSN)
	case DriverPostgres, DriverSQLite:
		db, err := Open(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		store := NewSQLRunStore(db, logger)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close(logger)
			return nil, err
		}
		return store, nil
	default:
		return nil, common.NewAppError("STORE_DRIVER", fmt.Sprintf("unknown run store %q", cfg.Driver), common.ErrInvalidInput)
	}
}

// DiscardStore drops every record. Used when RUN_STORE=none.
type DiscardStore struct{}

func (DiscardStore) Record(context.Context, entity.PipelineRun) error { return nil }

func (DiscardStore) Get(_ context.Context, id uuid.UUID) (entity.PipelineRun, error) {
	return entity.PipelineRun{}, common.NewAppError("RUN_NOT_FOUND", fmt.Sprintf("run %s not found", id), common.ErrNotFound)
}

func (DiscardStore) ListRecent(context.Context, int) ([]entity.PipelineRun, error) { return nil, nil }

func (DiscardStore) Count(context.Context) (int, error) { return 0, nil }

func (DiscardStore) Close() error { return nil }
