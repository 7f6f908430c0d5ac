// Package cache provides an LRU cache of encoded control flow graphs with
// disk persistence.
package cache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrKeyNotFound is returned when a key is not found in the cache.
var ErrKeyNotFound = errors.New("key not found")

// formatVersion is bumped whenever the persisted layout changes; files with
// another version are ignored on load.
const formatVersion = 1

// Entry is one cached value with its bookkeeping.
type Entry struct {
	Key        string    `msgpack:"key"`
	Value      []byte    `msgpack:"value"`
	AccessedAt time.Time `msgpack:"accessed_at"`
	CreatedAt  time.Time `msgpack:"created_at"`
}

// LRUCache is an in-memory LRU cache of byte values.
type LRUCache struct {
	mu           sync.Mutex
	items        map[string]*listItem
	lru          list // most recent at head
	maxSize      int
	maxBytes     int64
	currentBytes int64
	onEvict      func(key string)
}

type listItem struct {
	Entry
	prev *listItem
	next *listItem
}

type list struct {
	head *listItem
	tail *listItem
	len  int
}

func (l *list) unlink(item *listItem) {
	if item.prev != nil {
		item.prev.next = item.next
	} else {
		l.head = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	} else {
		l.tail = item.prev
	}
	item.prev, item.next = nil, nil
	l.len--
}

func (l *list) pushFront(item *listItem) {
	item.next = l.head
	item.prev = nil
	if l.head != nil {
		l.head.prev = item
	}
	l.head = item
	if l.tail == nil {
		l.tail = item
	}
	l.len++
}

func (l *list) moveToFront(item *listItem) {
	if item == l.head {
		return
	}
	l.unlink(item)
	l.pushFront(item)
}

// Options configures the LRU cache.
type Options struct {
	// MaxSize is the maximum number of entries. 0 means unlimited.
	MaxSize int

	// MaxBytes is the maximum total size of the values. 0 means unlimited.
	MaxBytes int64

	// OnEvict is called with the key of every evicted entry.
	OnEvict func(key string)
}

// New creates an LRU cache.
func New(opts Options) *LRUCache {
	return &LRUCache{
		items:    make(map[string]*listItem),
		maxSize:  opts.MaxSize,
		maxBytes: opts.MaxBytes,
		onEvict:  opts.OnEvict,
	}
}

// Get returns the value stored under key and marks it most recently used.
func (c *LRUCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		return nil, false
	}
	item.AccessedAt = time.Now()
	c.lru.moveToFront(item)
	return item.Value, true
}

// Set stores value under key, evicting the least recently used entries when
// a limit is exceeded.
func (c *LRUCache) Set(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if item, exists := c.items[key]; exists {
		c.currentBytes += int64(len(value) - len(item.Value))
		item.Value = value
		item.AccessedAt = now
		c.lru.moveToFront(item)
		c.evictIfNeeded()
		return
	}

	item := &listItem{Entry: Entry{Key: key, Value: value, AccessedAt: now, CreatedAt: now}}
	c.items[key] = item
	c.lru.pushFront(item)
	c.currentBytes += int64(len(value))
	c.evictIfNeeded()
}

// Delete removes key from the cache.
func (c *LRUCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		return
	}
	c.remove(item)
}

func (c *LRUCache) remove(item *listItem) {
	c.lru.unlink(item)
	delete(c.items, item.Key)
	c.currentBytes -= int64(len(item.Value))
	if c.onEvict != nil {
		c.onEvict(item.Key)
	}
}

// Clear removes all entries.
func (c *LRUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*listItem)
	c.lru = list{}
	c.currentBytes = 0
}

// Len returns the number of entries.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// CurrentBytes returns the total size of the stored values.
func (c *LRUCache) CurrentBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentBytes
}

func (c *LRUCache) evictIfNeeded() {
	for c.lru.tail != nil && c.overLimit() {
		c.remove(c.lru.tail)
	}
}

func (c *LRUCache) overLimit() bool {
	if c.maxSize > 0 && c.lru.len > c.maxSize {
		return true
	}
	return c.maxBytes > 0 && c.currentBytes > c.maxBytes
}

type snapshot struct {
	Version int     `msgpack:"version"`
	Entries []Entry `msgpack:"entries"`
}

// Save writes the cache to w with msgpack, most recently used first.
func (c *LRUCache) Save(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data := snapshot{Version: formatVersion, Entries: make([]Entry, 0, len(c.items))}
	for item := c.lru.head; item != nil; item = item.next {
		data.Entries = append(data.Entries, item.Entry)
	}
	return msgpack.NewEncoder(w).Encode(&data)
}

// Load replaces the cache contents with a snapshot written by Save. A
// snapshot of another format version leaves the cache empty.
func (c *LRUCache) Load(r io.Reader) error {
	var data snapshot
	if err := msgpack.NewDecoder(r).Decode(&data); err != nil {
		return fmt.Errorf("failed to decode cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*listItem)
	c.lru = list{}
	c.currentBytes = 0
	if data.Version != formatVersion {
		return nil
	}
	for i := len(data.Entries) - 1; i >= 0; i-- {
		item := &listItem{Entry: data.Entries[i]}
		c.items[item.Key] = item
		c.lru.pushFront(item)
		c.currentBytes += int64(len(item.Value))
	}
	c.evictIfNeeded()
	return nil
}

// PersistToFile saves the cache to path, creating parent directories.
func PersistToFile(c *LRUCache, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	if err := c.Save(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return os.Rename(tmp, path)
}

// LoadFromFile loads the cache from path. A missing file is not an error.
func LoadFromFile(c *LRUCache, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()

	return c.Load(f)
}

// Stats reports cache usage.
type Stats struct {
	Length       int   `json:"length"`
	CurrentBytes int64 `json:"current_bytes"`
	HitCount     int64 `json:"hit_count"`
	MissCount    int64 `json:"miss_count"`
}

// StatsCache wraps an LRU cache with hit and miss counters.
type StatsCache struct {
	*LRUCache
	mu        sync.Mutex
	hitCount  int64
	missCount int64
}

// NewStatsCache creates a cache that tracks statistics.
func NewStatsCache(opts Options) *StatsCache {
	return &StatsCache{LRUCache: New(opts)}
}

// Get retrieves a value and updates the counters.
func (c *StatsCache) Get(key string) ([]byte, bool) {
	val, found := c.LRUCache.Get(key)
	c.mu.Lock()
	if found {
		c.hitCount++
	} else {
		c.missCount++
	}
	c.mu.Unlock()
	return val, found
}

// Stats returns the current statistics.
func (c *StatsCache) Stats() Stats {
	c.mu.Lock()
	hits, misses := c.hitCount, c.missCount
	c.mu.Unlock()
	return Stats{
		Length:       c.LRUCache.Len(),
		CurrentBytes: c.LRUCache.CurrentBytes(),
		HitCount:     hits,
		MissCount:    misses,
	}
}

// HitRate returns hits divided by lookups, or 0 before the first lookup.
func (c *StatsCache) HitRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.hitCount + c.missCount
	if total == 0 {
		return 0
	}
	return float64(c.hitCount) / float64(total)
}

// ResetStats zeroes the counters.
func (c *StatsCache) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hitCount = 0
	c.missCount = 0
}
