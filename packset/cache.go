package packset

import (
	"fmt"

	"go.etcd.io/bbolt"
)

// Bucket
var bucketLocations = []byte("sha1->location")

// LocationCache persists sha1 -> (pack, offset, length) lookups so repeated
// sessions against the same packset skip the index scan.
type LocationCache struct{ *bbolt.DB }

// OpenLocationCache opens (or creates) a cache database at path.
func OpenLocationCache(path string) (*LocationCache, error) {
	db, err := bbolt.Open(path, 0666, nil)
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(bucketLocations)
		return e
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &LocationCache{db}, nil
}

// Close closes the cache database.
func (c *LocationCache) Close() error { return c.DB.Close() }

// Put stores the location of a content SHA-1.
func (c *LocationCache) Put(sha1Hex, pack string, offset, dataLen uint64) error {
	value := fmt.Sprintf("%s %d %d", pack, offset, dataLen)
	return c.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketLocations).Put([]byte(sha1Hex), []byte(value))
	})
}

// Lookup returns the cached location of a content SHA-1, if present.
func (c *LocationCache) Lookup(sha1Hex string) (pack string, offset, dataLen uint64, ok bool, err error) {
	err = c.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketLocations).Get([]byte(sha1Hex))
		if v == nil {
			return nil
		}
		if _, e := fmt.Sscanf(string(v), "%s %d %d", &pack, &offset, &dataLen); e != nil {
			return fmt.Errorf("corrupt cache entry for %s: %w", sha1Hex, e)
		}
		ok = true
		return nil
	})
	return
}
