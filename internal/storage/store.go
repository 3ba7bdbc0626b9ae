package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	runsBucket = []byte("runs")
	metaBucket = []byte("metadata")

	schemaKey = []byte("schema_version")
)

const schemaVersion = "1"

// ErrRunNotFound is returned by GetRun for unknown IDs.
var ErrRunNotFound = errors.New("run not found")

type Store struct {
	db *bolt.DB
}

// NewStore opens (creating if needed) the history database at dbPath.
func NewStore(dbPath string, timeout time.Duration) (*Store, error) {
	if timeout <= 0 {
		timeout = 1 * time.Second
	}
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{runsBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		meta := tx.Bucket(metaBucket)
		if v := meta.Get(schemaKey); v != nil && string(v) != schemaVersion {
			return fmt.Errorf("unsupported schema version %q", v)
		}
		return meta.Put(schemaKey, []byte(schemaVersion))
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// runID orders lexically by creation time; the approach keeps runs of one
// benchmark session apart.
func runID(created time.Time, approach string) string {
	return fmt.Sprintf("%019d-%s", created.UTC().UnixNano(), approach)
}

// SaveRun stores run, assigning ID and CreatedAt when unset.
func (s *Store) SaveRun(run *Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	if run.ID == "" {
		run.ID = runID(run.CreatedAt, run.Approach)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(run)
		if err != nil {
			return err
		}
		return tx.Bucket(runsBucket).Put([]byte(run.ID), data)
	})
}

// SaveRuns stores all runs in one transaction.
func (s *Store) SaveRuns(runs []*Run) error {
	now := time.Now()
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(runsBucket)
		for _, run := range runs {
			if run.CreatedAt.IsZero() {
				run.CreatedAt = now
			}
			if run.ID == "" {
				run.ID = runID(run.CreatedAt, run.Approach)
			}
			data, err := json.Marshal(run)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(run.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetRun(id string) (*Run, error) {
	var run Run
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(runsBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return json.Unmarshal(data, &run)
	})
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns runs newest first, filtered by approach when non-empty.
// A limit of zero or less returns every run.
func (s *Store) ListRuns(approach string, limit int) ([]*Run, error) {
	var runs []*Run
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(runsBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var run Run
			if err := json.Unmarshal(v, &run); err != nil {
				continue
			}
			if approach != "" && run.Approach != approach {
				continue
			}
			runs = append(runs, &run)
			if limit > 0 && len(runs) == limit {
				break
			}
		}
		return nil
	})
	return runs, err
}

// DeleteRuns removes runs created before cutoff, or every run when cutoff
// is zero. It returns the number of runs removed.
func (s *Store) DeleteRuns(cutoff time.Time) (int, error) {
	deleted := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(runsBucket)
		// Keys are collected first; deleting under a live cursor skips entries.
		var doomed [][]byte
		err := b.ForEach(func(k, v []byte) error {
			if !cutoff.IsZero() {
				var run Run
				if err := json.Unmarshal(v, &run); err == nil && !run.CreatedAt.Before(cutoff) {
					return nil
				}
			}
			doomed = append(doomed, append([]byte(nil), k...))
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range doomed {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		deleted = len(doomed)
		return nil
	})
	return deleted, err
}
