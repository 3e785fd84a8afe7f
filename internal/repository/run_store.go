package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	entsql "entgo.io/ent/dialect/sql"
	entschema "entgo.io/ent/dialect/sql/schema"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/db/ent/schema"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

// ErrAlreadyRecorded is returned when a run id is written twice.
var ErrAlreadyRecorded = errors.New("run already recorded")

// RunStore persists write-once run records. Records are for observability
// and are never fed back into extraction.
type RunStore interface {
	Record(ctx context.Context, run entity.PipelineRun) error
	Get(ctx context.Context, id uuid.UUID) (entity.PipelineRun, error)
	ListRecent(ctx context.Context, limit int) ([]entity.PipelineRun, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// SQLRunStore writes run records through ent's SQL builder.
type SQLRunStore struct {
	db      *DB
	cols    []column
	logger  *slog.Logger
	dialect string
}

func NewSQLRunStore(db *DB, logger *slog.Logger) *SQLRunStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLRunStore{db: db, cols: runColumns(), logger: logger, dialect: db.Driver.Dialect()}
}

// runTable describes pipeline_runs for ent's migrate engine, using the
// same columns Record and selectRuns use.
func (s *SQLRunStore) runTable() *entschema.Table {
	table := entschema.NewTable(schema.PipelineRunTable)
	for _, c := range s.cols {
		col := &entschema.Column{Name: c.name, Type: c.typ, Nullable: c.nullable}
		if c.name == "id" {
			table.AddPrimary(col)
			continue
		}
		table.AddColumn(col)
	}
	for _, idx := range (schema.PipelineRun{}).Indexes() {
		fields := idx.Descriptor().Fields
		table.AddIndex(schema.PipelineRunTable+"_"+strings.Join(fields, "_"), false, fields)
	}
	return table
}

// EnsureSchema creates the run table and its indexes when missing. Running
// it against an existing table is a no-op.
func (s *SQLRunStore) EnsureSchema(ctx context.Context) error {
	m, err := entschema.NewMigrate(s.db.Driver)
	if err != nil {
		return fmt.Errorf("%w: migrate %s: %w", common.ErrDatabase, schema.PipelineRunTable, err)
	}
	if err := m.Create(ctx, s.runTable()); err != nil {
		return fmt.Errorf("%w: create %s: %w", common.ErrDatabase, schema.PipelineRunTable, err)
	}
	s.logger.Debug("run table ready", "table", schema.PipelineRunTable, "dialect", s.dialect)
	return nil
}

func (s *SQLRunStore) Record(ctx context.Context, run entity.PipelineRun) error {
	values := runValues(run)
	args := make([]any, len(s.cols))
	for i, c := range s.cols {
		args[i] = values[c.name]
	}
	query, qargs := entsql.Dialect(s.dialect).
		Insert(schema.PipelineRunTable).
		Columns(columnNames(s.cols)...).
		Values(args...).
		Query()
	if err := s.db.Driver.Exec(ctx, query, qargs, nil); err != nil {
		if existing, gerr := s.Get(ctx, run.ID); gerr == nil && existing.ID == run.ID {
			return fmt.Errorf("%w: %s", ErrAlreadyRecorded, run.ID)
		}
		s.logger.Error("failed to record pipeline run", "run_id", run.ID, "error", err)
		return fmt.Errorf("%w: insert run: %w", common.ErrDatabase, err)
	}
	return nil
}

func (s *SQLRunStore) Get(ctx context.Context, id uuid.UUID) (entity.PipelineRun, error) {
	runs, err := s.selectRuns(ctx, func(sel *entsql.Selector) {
		sel.Where(entsql.EQ("id", id.String()))
	})
	if err != nil {
		return entity.PipelineRun{}, err
	}
	if len(runs) == 0 {
		return entity.PipelineRun{}, common.NewAppError("RUN_NOT_FOUND", fmt.Sprintf("run %s not found", id), common.ErrNotFound)
	}
	return runs[0], nil
}

// ListRecent returns up to limit runs, newest first.
func (s *SQLRunStore) ListRecent(ctx context.Context, limit int) ([]entity.PipelineRun, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.selectRuns(ctx, func(sel *entsql.Selector) {
		sel.OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).Limit(limit)
	})
}

func (s *SQLRunStore) Count(ctx context.Context) (int, error) {
	query, args := entsql.Dialect(s.dialect).
		Select(entsql.Count("*")).
		From(entsql.Table(schema.PipelineRunTable)).
		Query()
	var rows entsql.Rows
	if err := s.db.Driver.Query(ctx, query, args, &rows); err != nil {
		return 0, fmt.Errorf("%w: count runs: %w", common.ErrDatabase, err)
	}
	defer rows.Close()
	n := 0
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("%w: scan count: %w", common.ErrDatabase, err)
		}
	}
	return n, rows.Err()
}

func (s *SQLRunStore) Close() error {
	s.db.Close(s.logger)
	return nil
}

func (s *SQLRunStore) selectRuns(ctx context.Context, shape func(*entsql.Selector)) ([]entity.PipelineRun, error) {
	sel := entsql.Dialect(s.dialect).
		Select(columnNames(s.cols)...).
		From(entsql.Table(schema.PipelineRunTable))
	shape(sel)
	query, args := sel.Query()

	var rows entsql.Rows
	if err := s.db.Driver.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("%w: select runs: %w", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []entity.PipelineRun
	for rows.Next() {
		row := make(map[string]any, len(s.cols))
		dest := make([]any, len(s.cols))
		for i, c := range s.cols {
			dest[i] = scanTarget(c)
			row[c.name] = dest[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%w: scan run: %w", common.ErrDatabase, err)
		}
		run, err := runFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
