// Package history persists completed scan batches for score comparison.
package history

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/btree"
	"go.etcd.io/bbolt"

	"github.com/cloudvet/cloudvet/types"
)

// Bucket names in bbolt
var (
	bucketBatches = []byte("batches")
	bucketMeta    = []byte("meta")
)

// BatchMeta is the in-memory index entry for one stored batch
type BatchMeta struct {
	ID        string
	StartedAt time.Time
	Depth     types.ScanDepth
	Accounts  int
}

// Store keeps scan batches on disk with an in-memory index ordered by
// start time
type Store struct {
	mu sync.RWMutex

	index *btree.BTreeG[*BatchMeta]
	db    *bbolt.DB
	dir   string
}

// NewStore opens or creates the history database under dir
func NewStore(dir string) (*Store, error) {
	dbPath := filepath.Join(dir, "cloudvet.db")

	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{bucketBatches, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	store := &Store{
		index: btree.NewG[*BatchMeta](32, func(a, b *BatchMeta) bool {
			if a.StartedAt.Equal(b.StartedAt) {
				return a.ID < b.ID
			}
			return a.StartedAt.Before(b.StartedAt)
		}),
		db:  db,
		dir: dir,
	}

	if err := store.rebuildIndex(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the store
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveBatch persists one completed batch
func (s *Store) SaveBatch(batch *types.ScanBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if batch.ID == "" {
		return fmt.Errorf("batch has no ID")
	}

	value, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to marshal batch: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketBatches).Put([]byte(batch.ID), value)
	})
	if err != nil {
		return fmt.Errorf("failed to store batch: %w", err)
	}

	s.index.ReplaceOrInsert(&BatchMeta{
		ID:        batch.ID,
		StartedAt: batch.StartedAt,
		Depth:     batch.Depth,
		Accounts:  len(batch.Accounts),
	})

	return nil
}

// GetBatch loads one batch by ID
func (s *Store) GetBatch(id string) (*types.ScanBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var batch types.ScanBatch
	err := s.db.View(func(tx *bbolt.Tx) error {
		value := tx.Bucket(bucketBatches).Get([]byte(id))
		if value == nil {
			return fmt.Errorf("batch %s not found", id)
		}
		return json.Unmarshal(value, &batch)
	})
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// LastBatch returns the most recently started batch, or nil when the
// store is empty
func (s *Store) LastBatch() (*types.ScanBatch, error) {
	s.mu.RLock()
	var last *BatchMeta
	s.index.Descend(func(meta *BatchMeta) bool {
		last = meta
		return false
	})
	s.mu.RUnlock()

	if last == nil {
		return nil, nil
	}
	return s.GetBatch(last.ID)
}

// ListBatches returns index entries for all stored batches, newest first
func (s *Store) ListBatches() []BatchMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()

	metas := make([]BatchMeta, 0, s.index.Len())
	s.index.Descend(func(meta *BatchMeta) bool {
		metas = append(metas, *meta)
		return true
	})
	return metas
}

// rebuildIndex loads batch metadata from disk into the btree
func (s *Store) rebuildIndex() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketBatches).ForEach(func(_, value []byte) error {
			var batch types.ScanBatch
			if err := json.Unmarshal(value, &batch); err != nil {
				return fmt.Errorf("corrupt batch record: %w", err)
			}
			s.index.ReplaceOrInsert(&BatchMeta{
				ID:        batch.ID,
				StartedAt: batch.StartedAt,
				Depth:     batch.Depth,
				Accounts:  len(batch.Accounts),
			})
			return nil
		})
	})
}
