package openf1

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

const (
	CacheFileName = "openf1.db"

	responsesBucket = "responses"
)

// ResponseCache persists raw provider responses keyed by request URL inside a
// cache directory. Entries never expire.
type ResponseCache struct {
	db   *bbolt.DB
	path string
}

// OpenResponseCache creates dir if it does not exist and opens the cache database inside it.
func OpenResponseCache(dir string) (*ResponseCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "openf1: could not create cache directory %s", dir)
	}

	path := filepath.Join(dir, CacheFileName)

	db, err := bbolt.Open(path, 0644, &bbolt.Options{Timeout: time.Second * 5})

	if err != nil {
		return nil, errors.Wrapf(err, "openf1: could not open cache database %s", path)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(responsesBucket))

		return err
	})

	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &ResponseCache{db: db, path: path}, nil
}

func (rc *ResponseCache) Get(key string) ([]byte, bool, error) {
	var out []byte

	err := rc.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(responsesBucket)).Get([]byte(key))

		if data != nil {
			// bbolt values are only valid for the lifetime of the transaction.
			out = make([]byte, len(data))
			copy(out, data)
		}

		return nil
	})

	if err != nil {
		return nil, false, err
	}

	return out, out != nil, nil
}

func (rc *ResponseCache) Put(key string, body []byte) error {
	return rc.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(responsesBucket)).Put([]byte(key), body)
	})
}

// Len returns the number of cached responses.
func (rc *ResponseCache) Len() (int, error) {
	var n int

	err := rc.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(responsesBucket)).Stats().KeyN

		return nil
	})

	return n, err
}

// Size returns the size of the cache database on disk in bytes.
func (rc *ResponseCache) Size() int64 {
	info, err := os.Stat(rc.path)

	if err != nil {
		return 0
	}

	return info.Size()
}

func (rc *ResponseCache) Path() string {
	return rc.path
}

func (rc *ResponseCache) Close() error {
	return rc.db.Close()
}
