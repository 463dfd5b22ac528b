package provider

import (
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"chatfs/internal/index"
)

// stateBucket holds the provider's small amount of durable state:
// the last known remote index and the index message id it was read
// from.
const stateBucket = "provider_state"

const (
	keyLastKnownIndex = "last_known_index"
	keyIndexMessageID = "index_message_id"
)

// Cache persists the provider's discovery state across restarts using
// a local bbolt database, sparing a fresh connect from a cold full
// download when the process restarts.
type Cache struct {
	db *bbolt.DB
	mu sync.Mutex
}

// OpenCache opens (creating if absent) the bbolt database at path.
func OpenCache(path string) (*Cache, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("provider: open cache: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(stateBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("provider: init cache bucket: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close releases the underlying database file.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// SaveLastKnownIndex persists idx's serialized form.
func (c *Cache) SaveLastKnownIndex(idx *index.Index) error {
	data, err := idx.Serialize()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(stateBucket))
		return bucket.Put([]byte(keyLastKnownIndex), data)
	})
}

// LoadLastKnownIndex returns the persisted index, or nil if none was
// ever saved.
func (c *Cache) LoadLastKnownIndex() (*index.Index, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var data []byte
	err := c.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(stateBucket))
		if v := bucket.Get([]byte(keyLastKnownIndex)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return index.Deserialize(data)
}

// SaveIndexMessageID persists the discovered index message id.
func (c *Cache) SaveIndexMessageID(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(stateBucket))
		return bucket.Put([]byte(keyIndexMessageID), []byte(id))
	})
}

// LoadIndexMessageID returns the persisted index message id, or "" if
// none was ever saved.
func (c *Cache) LoadIndexMessageID() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var id string
	err := c.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(stateBucket))
		if v := bucket.Get([]byte(keyIndexMessageID)); v != nil {
			id = string(v)
		}
		return nil
	})
	return id, err
}
