// Package cache stores chunking results on disk so unchanged files are not
// chunked twice. Entries are msgpack-encoded FileResults in a bbolt bucket,
// keyed by file path, content hash and a fingerprint of the chunking
// configuration.
package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"

	"github.com/dshills/codechunk/internal/chunker"
	"github.com/dshills/codechunk/pkg/types"
)

// schemaVersion is bumped whenever the stored entry layout or the chunking
// output changes incompatibly
const schemaVersion uint16 = 2

var bucketResults = []byte("results")

// Cache is a persistent FileResult cache. It is safe for concurrent use.
type Cache struct {
	db *bbolt.DB
}

type entry struct {
	Schema uint16
	Result *types.FileResult
}

// openTimeout bounds the wait for the file lock held by another process
const openTimeout = time.Second

// Open opens or creates the cache database at path
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketResults)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the database
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}

// Fingerprint identifies cfg together with the cache entry layout
func Fingerprint(cfg chunker.Config) string {
	return fmt.Sprintf("v%d|%s", schemaVersion, cfg.Fingerprint())
}

// Key derives the cache key of one file
func Key(path string, src []byte, fingerprint string) string {
	h := sha256.New()
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write(src)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached result for key. A miss returns (nil, false, nil).
func (c *Cache) Get(key string) (*types.FileResult, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	var data []byte
	err := c.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketResults).Get([]byte(key)); v != nil {
			data = bytes.Clone(v)
		}
		return nil
	})
	if err != nil || data == nil {
		return nil, false, err
	}

	var e entry
	if err := decode(data, &e); err != nil {
		return nil, false, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	if e.Schema != schemaVersion || e.Result == nil {
		return nil, false, nil
	}
	for i := range e.Result.Chunks {
		c := &e.Result.Chunks[i]
		if c.ScopePath == nil {
			c.ScopePath = []string{}
		}
		c.ComputeContentHash()
	}
	if e.Result.Chunks == nil {
		e.Result.Chunks = []types.Chunk{}
	}
	return e.Result, true, nil
}

// Put stores res under key
func (c *Cache) Put(key string, res *types.FileResult) error {
	if c == nil {
		return nil
	}
	data, err := encode(entry{Schema: schemaVersion, Result: res})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketResults).Put([]byte(key), data)
	})
}

// Len returns the number of cached entries
func (c *Cache) Len() (int, error) {
	var n int
	err := c.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketResults).Stats().KeyN
		return nil
	})
	return n, err
}

// Clear removes every entry
func (c *Cache) Clear() error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketResults); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketResults)
		return err
	})
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

// Chunk returns the cached result for the file or chunks it with e and
// stores the result. Only successfully chunked files are cached. The
// boolean reports a cache hit.
func (c *Cache) Chunk(ctx context.Context, e *chunker.Engine, fingerprint, path string, src []byte) (*types.FileResult, bool, error) {
	key := Key(path, src, fingerprint)
	if res, ok, err := c.Get(key); err == nil && ok {
		return res, true, nil
	}

	res, err := e.Chunk(ctx, path, src)
	if err != nil {
		return res, false, err
	}
	if err := c.Put(key, res); err != nil {
		return res, false, err
	}
	return res, false, nil
}
