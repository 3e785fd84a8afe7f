package repository

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

const (
	runsBucket    = "pipeline_runs"
	runIDsBucket  = "pipeline_run_ids"
	runKeyTimeLen = 8
)

// BoltRunStore keeps run records in an embedded bbolt file. Runs are keyed
// by creation time then id, so a reverse cursor walk is newest first.
type BoltRunStore struct {
	db *bbolt.DB
}

func NewBoltRunStore(path string) (*BoltRunStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(runsBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(runIDsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}
	return &BoltRunStore{db: db}, nil
}

func runKey(run entity.PipelineRun) []byte {
	key := make([]byte, runKeyTimeLen, runKeyTimeLen+len(run.ID))
	binary.BigEndian.PutUint64(key, uint64(run.CreatedAt.UnixNano()))
	return append(key, run.ID[:]...)
}

func (b *BoltRunStore) Record(_ context.Context, run entity.PipelineRun) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		ids := tx.Bucket([]byte(runIDsBucket))
		if ids.Get(run.ID[:]) != nil {
			return fmt.Errorf("%w: %s", ErrAlreadyRecorded, run.ID)
		}
		data, err := json.Marshal(run)
		if err != nil {
			return fmt.Errorf("marshaling run: %w", err)
		}
		key := runKey(run)
		if err := tx.Bucket([]byte(runsBucket)).Put(key, data); err != nil {
			return err
		}
		return ids.Put(run.ID[:], key)
	})
}

func (b *BoltRunStore) Get(_ context.Context, id uuid.UUID) (entity.PipelineRun, error) {
	var run entity.PipelineRun
	err := b.db.View(func(tx *bbolt.Tx) error {
		key := tx.Bucket([]byte(runIDsBucket)).Get(id[:])
		if key == nil {
			return common.NewAppError("RUN_NOT_FOUND", fmt.Sprintf("run %s not found", id), common.ErrNotFound)
		}
		return json.Unmarshal(tx.Bucket([]byte(runsBucket)).Get(key), &run)
	})
	return run, err
}

func (b *BoltRunStore) ListRecent(_ context.Context, limit int) ([]entity.PipelineRun, error) {
	if limit <= 0 {
		limit = 20
	}
	runs := make([]entity.PipelineRun, 0, limit)
	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(runsBucket)).Cursor()
		for k, v := c.Last(); k != nil && len(runs) < limit; k, v = c.Prev() {
			var run entity.PipelineRun
			if err := json.Unmarshal(v, &run); err != nil {
				return fmt.Errorf("unmarshaling run: %w", err)
			}
			runs = append(runs, run)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return runs, nil
}

func (b *BoltRunStore) Count(_ context.Context) (int, error) {
	n := 0
	err := b.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(runsBucket)).Stats().KeyN
		return nil
	})
	return n, err
}

// Close closes the database connection
func (b *BoltRunStore) Close() error {
	return b.db.Close()
}
