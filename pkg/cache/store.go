package cache

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/minio/highwayhash"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/l3aro/go-cfg-builder/pkg/cfg"
)

// FileName is the name of the persisted store inside its directory.
const FileName = "cfg.cache"

var hashKey = []byte("gcfg-store-0123456789abcdef01234")

// Key derives the cache key of one function from the file content it was
// built from. Editing the file invalidates every key of that file.
func Key(path, function string, content []byte) string {
	h, _ := highwayhash.New64(hashKey) // fails only for keys that are not 32 bytes
	h.Write(content)
	h.Write([]byte{0})
	h.Write([]byte(function))
	return filepath.ToSlash(path) + "#" + function + "@" + strconv.FormatUint(h.Sum64(), 16)
}

// Store caches exported graphs under Key values.
type Store struct {
	cache *StatsCache
	path  string
}

// NewStore creates an in-memory store holding at most maxEntries graphs.
func NewStore(maxEntries int) *Store {
	return &Store{cache: NewStatsCache(Options{MaxSize: maxEntries})}
}

// OpenStore creates a store persisted as dir/cfg.cache, loading any
// previous contents.
func OpenStore(dir string, maxEntries int) (*Store, error) {
	s := NewStore(maxEntries)
	s.path = filepath.Join(dir, FileName)
	if err := LoadFromFile(s.cache.LRUCache, s.path); err != nil {
		return nil, fmt.Errorf("opening store %s: %w", s.path, err)
	}
	return s, nil
}

// Get decodes the graph stored under key.
func (s *Store) Get(key string) (*cfg.CFGInfo, error) {
	data, ok := s.cache.Get(key)
	if !ok {
		return nil, ErrKeyNotFound
	}
	var info cfg.CFGInfo
	if err := msgpack.Unmarshal(data, &info); err != nil {
		s.cache.Delete(key)
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	return &info, nil
}

// Put encodes info and stores it under key.
func (s *Store) Put(key string, info *cfg.CFGInfo) error {
	data, err := msgpack.Marshal(info)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	s.cache.Set(key, data)
	return nil
}

// Len returns the number of stored graphs.
func (s *Store) Len() int {
	return s.cache.Len()
}

// Stats returns hit and miss counts.
func (s *Store) Stats() Stats {
	return s.cache.Stats()
}

// Close persists the store when it was opened from a directory.
func (s *Store) Close() error {
	if s.path == "" {
		return nil
	}
	if err := PersistToFile(s.cache.LRUCache, s.path); err != nil {
		return fmt.Errorf("closing store %s: %w", s.path, err)
	}
	return nil
}
