package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"
)

const schemaVersion = "1"

var (
	responsesBucket = []byte("responses")
	downloadsBucket = []byte("downloads")
	metaBucket      = []byte("metadata")

	schemaKey = []byte("schema_version")
)

var ErrNotFound = errors.New("not found")

type Store struct {
	db  *bolt.DB
	now func() time.Time
}

func NewStore(dbPath string) (*Store, error) {
	return NewStoreWithTimeout(dbPath, 1*time.Second)
}

// NewStoreWithTimeout opens the database, waiting up to timeout for the file lock.
func NewStoreWithTimeout(dbPath string, timeout time.Duration) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{responsesBucket, downloadsBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		meta := tx.Bucket(metaBucket)
		if meta.Get(schemaKey) == nil {
			return meta.Put(schemaKey, []byte(schemaVersion))
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Path() string {
	return s.db.Path()
}

func (s *Store) SchemaVersion() (string, error) {
	var v string
	err := s.db.View(func(tx *bolt.Tx) error {
		v = string(tx.Bucket(metaBucket).Get(schemaKey))
		return nil
	})
	return v, err
}

// GetCachedResponse returns the body stored under key if it is younger than
// maxAge. A maxAge of zero or less disables expiry.
func (s *Store) GetCachedResponse(key string, maxAge time.Duration) ([]byte, bool, error) {
	var entry cachedResponse
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(responsesBucket).Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &entry)
	})
	if err != nil || !found {
		return nil, false, err
	}
	if maxAge > 0 && s.now().Sub(entry.StoredAt) > maxAge {
		return nil, false, nil
	}
	return entry.Body, true, nil
}

func (s *Store) PutCachedResponse(key string, body []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(cachedResponse{Key: key, StoredAt: s.now(), Body: body})
		if err != nil {
			return err
		}
		return tx.Bucket(responsesBucket).Put([]byte(key), data)
	})
}

// PruneCache removes responses older than maxAge and reports how many were removed.
func (s *Store) PruneCache(maxAge time.Duration) (int, error) {
	removed := 0
	cutoff := s.now().Add(-maxAge)
	err := s.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(responsesBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var entry cachedResponse
			if err := json.Unmarshal(v, &entry); err != nil || entry.StoredAt.Before(cutoff) {
				if err := c.Delete(); err != nil {
					return err
				}
				removed++
			}
		}
		return nil
	})
	return removed, err
}

func downloadKey(id int) []byte {
	return []byte(strconv.Itoa(id))
}

func (s *Store) SaveDownload(d *Download) error {
	if d.DownloadedAt.IsZero() {
		d.DownloadedAt = s.now()
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(d)
		if err != nil {
			return err
		}
		return tx.Bucket(downloadsBucket).Put(downloadKey(d.Image.ID), data)
	})
}

func (s *Store) GetDownload(id int) (*Download, error) {
	var d Download
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(downloadsBucket).Get(downloadKey(id))
		if data == nil {
			return fmt.Errorf("download %d: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &d)
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetAllDownloads returns every recorded download, newest first.
func (s *Store) GetAllDownloads() ([]*Download, error) {
	var downloads []*Download
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(downloadsBucket).ForEach(func(_ []byte, v []byte) error {
			var d Download
			if err := json.Unmarshal(v, &d); err != nil {
				return nil
			}
			downloads = append(downloads, &d)
			return nil
		})
	})
	sort.Slice(downloads, func(i, j int) bool {
		return downloads[i].DownloadedAt.After(downloads[j].DownloadedAt)
	})
	return downloads, err
}

func (s *Store) DeleteDownload(id int) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(downloadsBucket)
		if b.Get(downloadKey(id)) == nil {
			return fmt.Errorf("download %d: %w", id, ErrNotFound)
		}
		return b.Delete(downloadKey(id))
	})
}
