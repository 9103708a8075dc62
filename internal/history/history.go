// Package history keeps a record of every rebuild-and-launch run.
//
// Records are stored as JSON values in a BoltDB bucket. Keys are
// "<project hash>/<start time>/<sequence>", so the runs of one project are
// contiguous and ordered by start time.
package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const (
	// DefaultFileName is the database file name inside the data directory
	DefaultFileName = "history.db"

	// bucketName is the BoltDB bucket holding run records
	bucketName = "runs"
)

// Store persists run records
type Store struct {
	db   *bbolt.DB
	path string
}

// Open opens (creating if needed) the history database at path
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history bucket: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the history database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}

	return nil
}

// Path returns the database file location
func (s *Store) Path() string {
	return s.path
}

// Record appends a run record
func (s *Store) Record(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode history record: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))

		seq, err := b.NextSequence()
		if err != nil {
			return err
		}

		key := fmt.Sprintf("%s/%020d/%010d", HashProject(rec.DescriptorPath), rec.Started.UnixNano(), seq)

		return b.Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("failed to store history record: %w", err)
	}

	return nil
}

// List returns up to limit records across all projects, newest first. A
// limit < 1 returns everything.
func (s *Store) List(limit int) ([]Record, error) {
	return s.scan(nil, limit)
}

// ListProject returns up to limit records for one project, newest first
func (s *Store) ListProject(descriptorPath string, limit int) ([]Record, error) {
	return s.scan([]byte(HashProject(descriptorPath)+"/"), limit)
}

func (s *Store) scan(prefix []byte, limit int) ([]Record, error) {
	var records []Record

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(bucketName)).Cursor()

		k, v := c.First()
		if len(prefix) > 0 {
			k, v = c.Seek(prefix)
		}

		for ; k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to decode history record %s: %w", k, err)
			}

			records = append(records, rec)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Started.After(records[j].Started)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

// Clear removes every record
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketName)); err != nil {
			return err
		}

		_, err := tx.CreateBucket([]byte(bucketName))
		return err
	})
}

// Stats returns the number of records and the number of distinct projects
func (s *Store) Stats() (int, int, error) {
	var count int
	projects := make(map[string]struct{})

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(k, _ []byte) error {
			count++

			if i := bytes.IndexByte(k, '/'); i > 0 {
				projects[string(k[:i])] = struct{}{}
			}

			return nil
		})
	})
	if err != nil {
		return 0, 0, err
	}

	return count, len(projects), nil
}
