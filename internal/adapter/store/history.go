// Package store persists search history in a bbolt database.
package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"rdb/internal/domain"
)

var (
	bucketSearches = []byte("searches")
	bucketByTime   = []byte("searches_by_time")
)

// History records past searches. Entries are stored by id and indexed by
// timestamp for recency queries.
type History struct {
	db *bolt.DB
}

// OpenHistory opens (or creates) the history database at path.
func OpenHistory(path string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketSearches, bucketByTime} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init history buckets: %w", err)
	}

	return &History{db: db}, nil
}

func (h *History) Close() error {
	return h.db.Close()
}

// Record stores one completed search and returns its id.
func (h *History) Record(rec domain.SearchRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal search record: %w", err)
	}

	err = h.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketSearches).Put([]byte(rec.ID), data); err != nil {
			return err
		}
		return tx.Bucket(bucketByTime).Put(timeKey(rec.Timestamp, rec.ID), []byte(rec.ID))
	})
	if err != nil {
		return "", fmt.Errorf("record search: %w", err)
	}
	return rec.ID, nil
}

// Recent returns up to limit searches, newest first.
func (h *History) Recent(limit int) ([]domain.SearchRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	var records []domain.SearchRecord
	err := h.db.View(func(tx *bolt.Tx) error {
		searches := tx.Bucket(bucketSearches)
		c := tx.Bucket(bucketByTime).Cursor()

		for k, id := c.Last(); k != nil && len(records) < limit; k, id = c.Prev() {
			data := searches.Get(id)
			if data == nil {
				continue
			}
			var rec domain.SearchRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				return fmt.Errorf("unmarshal search %s: %w", id, err)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Count returns the number of recorded searches.
func (h *History) Count() (int, error) {
	var n int
	err := h.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketSearches).Stats().KeyN
		return nil
	})
	return n, err
}

// timeKey orders entries chronologically; the id suffix keeps keys unique
// for searches recorded within the same nanosecond.
func timeKey(t time.Time, id string) []byte {
	key := make([]byte, 8, 8+len(id))
	binary.BigEndian.PutUint64(key, uint64(t.UnixNano()))
	return append(key, id...)
}
