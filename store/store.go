// Package store implements the persistent, crash-safe URL dedup/frontier
// store described in spec.md §4.4, backed by go.etcd.io/bbolt — the closest
// Go analogue to the RocksDB column-family design in
// original_source/webcrawler/src/url_store.rs. Buckets stand in for column
// families: "frontier" holds URLs known but not yet dispatched, "visited"
// holds URLs already dispatched (or marked visited as a canonical form).
package store

import (
	"encoding/binary"
	"fmt"
	"log"
	"os"
	"time"

	"go.etcd.io/bbolt"

	"github.com/TheSnook/webcrawl/normalize"
)

const (
	bucketVisited  = "visited"
	bucketFrontier = "frontier"

	statsKey = "__stats_pages_crawled__"
)

// Store is a handle to the URL dedup/frontier database. A Store is safe for
// concurrent use by multiple goroutines, same as the bbolt.DB it wraps.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if absent) the store at path. If the file exists but
// cannot be opened with the expected bucket layout, it is destroyed and
// recreated (logged as a warning) — grounded on url_store.rs's
// open-or-destroy-and-recreate fallback.
func Open(path string) (*Store, error) {
	db, err := open(path)
	if err != nil {
		log.Printf("store: existing database at %q could not be opened (%v); recreating", path, err)
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			return nil, fmt.Errorf("store: recreate %q: %w", path, rmErr)
		}
		db, err = open(path)
		if err != nil {
			return nil, fmt.Errorf("store: open %q after recreate: %w", path, err)
		}
	}
	return &Store{db: db}, nil
}

func open(path string) (*bbolt.DB, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketVisited)); err != nil {
			return fmt.Errorf("create bucket %q: %w", bucketVisited, err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketFrontier)); err != nil {
			return fmt.Errorf("create bucket %q: %w", bucketFrontier, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddToFrontier normalizes url and, if it is not already known (in either
// namespace), inserts it into the frontier with the current timestamp.
// Returns true iff it was newly added. Concurrent callers racing on the
// same key observe true at most once, since the check-then-write happens
// inside a single bbolt write transaction (bbolt serializes writers).
func (s *Store) AddToFrontier(normalizedURL string) (bool, error) {
	key := []byte(normalize.URL(normalizedURL))
	added := false
	err := s.db.Update(func(tx *bbolt.Tx) error {
		visited := tx.Bucket([]byte(bucketVisited))
		frontier := tx.Bucket([]byte(bucketFrontier))
		if visited.Get(key) != nil || frontier.Get(key) != nil {
			return nil
		}
		if err := frontier.Put(key, timestamp(time.Now())); err != nil {
			return err
		}
		added = true
		return nil
	})
	return added, err
}

// PopFromFrontier removes the byte-lexicographically first key from the
// frontier and moves it to visited, atomically within one transaction so a
// crash between pop and fetch cannot resurrect it. Returns "", false if the
// frontier is empty.
func (s *Store) PopFromFrontier() (string, bool, error) {
	var url string
	var ok bool
	err := s.db.Update(func(tx *bbolt.Tx) error {
		frontier := tx.Bucket([]byte(bucketFrontier))
		visited := tx.Bucket([]byte(bucketVisited))

		k, _ := frontier.Cursor().First()
		if k == nil {
			return nil
		}
		url = string(k)
		ok = true

		if err := visited.Put(k, timestamp(time.Now())); err != nil {
			return err
		}
		return frontier.Delete(k)
	})
	if err != nil {
		return "", false, err
	}
	return url, ok, nil
}

// MarkVisited normalizes url and upserts it into visited, unconditionally.
// Used for canonical-URL hints after a successful fetch.
func (s *Store) MarkVisited(normalizedURL string) error {
	key := []byte(normalize.URL(normalizedURL))
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketVisited)).Put(key, timestamp(time.Now()))
	})
}

// FrontierCount scans the entire frontier namespace. O(n); intended for
// startup reporting only.
func (s *Store) FrontierCount() (int, error) {
	count := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketFrontier)).ForEach(func(_, _ []byte) error {
			count++
			return nil
		})
	})
	return count, err
}

// GetPagesCrawled reads the reserved statistics key from visited. Returns 0
// if unset.
func (s *Store) GetPagesCrawled() (int64, error) {
	var n int64
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(bucketVisited)).Get([]byte(statsKey))
		if len(v) != 8 {
			return nil
		}
		n = int64(binary.LittleEndian.Uint64(v))
		return nil
	})
	return n, err
}

// SetPagesCrawled writes the reserved statistics key in visited.
func (s *Store) SetPagesCrawled(n int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketVisited)).Put([]byte(statsKey), timestamp64(n))
	})
}

func timestamp(t time.Time) []byte {
	return timestamp64(t.Unix())
}

func timestamp64(n int64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(n))
	return buf
}
