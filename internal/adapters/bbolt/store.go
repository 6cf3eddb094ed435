// Package bbolt implements the ports.StateStore interface using bbolt
// (embedded B+ tree). Each project gets its own top-level bucket with a
// "files" sub-bucket holding the JSON-serialized fingerprint set. Writes
// are transactional — a crash mid-write cannot corrupt previously
// committed data.
package bbolt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/corey/tagsmith/internal/ports"
	bolt "go.etcd.io/bbolt"
)

// Bucket keys
var (
	bucketFiles = []byte("files")
	keyStates   = []byte("states")
)

// Store implements ports.StateStore backed by bbolt.
type Store struct {
	db *bolt.DB
}

// NewStore opens (or creates) a bbolt database at the given path.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveFileStates persists the fingerprint set for a project, replacing any
// previous set.
func (s *Store) SaveFileStates(projectID string, states map[string]ports.FileState) error {
	if states == nil {
		return fmt.Errorf("nil file states")
	}
	data, err := json.Marshal(states)
	if err != nil {
		return fmt.Errorf("marshal file states: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		proj, err := tx.CreateBucketIfNotExists([]byte(projectID))
		if err != nil {
			return err
		}
		fb, err := proj.CreateBucketIfNotExists(bucketFiles)
		if err != nil {
			return err
		}
		return fb.Put(keyStates, data)
	})
}

// LoadFileStates retrieves the fingerprint set for a project.
// Returns nil, nil if no state exists (fresh project).
func (s *Store) LoadFileStates(projectID string) (map[string]ports.FileState, error) {
	var data []byte

	err := s.db.View(func(tx *bolt.Tx) error {
		proj := tx.Bucket([]byte(projectID))
		if proj == nil {
			return nil
		}
		fb := proj.Bucket(bucketFiles)
		if fb == nil {
			return nil
		}
		// Copy bytes out of the transaction (bbolt slices are only valid within tx)
		if v := fb.Get(keyStates); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if data == nil {
		return nil, nil
	}

	var states map[string]ports.FileState
	if err := json.Unmarshal(data, &states); err != nil {
		return nil, fmt.Errorf("unmarshal file states: %w", err)
	}
	return states, nil
}

// DeleteProject removes all recorded state for a project.
// Idempotent: deleting a nonexistent project is not an error.
func (s *Store) DeleteProject(projectID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(projectID)); err == bolt.ErrBucketNotFound {
			return nil // idempotent
		} else {
			return err
		}
	})
}
