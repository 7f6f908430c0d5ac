package cache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-cfg-builder/pkg/cfg"
)

func TestLRUCache_Basic(t *testing.T) {
	c := New(Options{MaxSize: 3})

	c.Set("a", []byte("value_a"))
	c.Set("b", []byte("value_b"))
	c.Set("c", []byte("value_c"))

	assert.Equal(t, 3, c.Len())

	val, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, []byte("value_a"), val)

	_, found = c.Get("z")
	assert.False(t, found)
}

func TestLRUCache_LRU_Eviction(t *testing.T) {
	var evicted []string
	c := New(Options{MaxSize: 3, OnEvict: func(key string) { evicted = append(evicted, key) }})

	c.Set("a", []byte("value_a"))
	c.Set("b", []byte("value_b"))
	c.Set("c", []byte("value_c"))

	// Access 'a' to make it most recently used
	c.Get("a")

	c.Set("d", []byte("value_d"))

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"b"}, evicted)

	_, found := c.Get("b")
	assert.False(t, found, "b should have been evicted")
	for _, k := range []string{"a", "c", "d"} {
		_, found = c.Get(k)
		assert.True(t, found, k)
	}
}

func TestLRUCache_Delete(t *testing.T) {
	c := New(Options{MaxSize: 10})

	c.Set("a", []byte("value_a"))
	c.Set("b", []byte("value_b"))
	c.Delete("a")
	c.Delete("missing")

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int64(7), c.CurrentBytes())
	_, found := c.Get("a")
	assert.False(t, found)
}

func TestLRUCache_Clear(t *testing.T) {
	c := New(Options{MaxSize: 10})
	c.Set("a", []byte("value_a"))
	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(0), c.CurrentBytes())
}

func TestLRUCache_MaxBytes(t *testing.T) {
	c := New(Options{MaxBytes: 10})

	c.Set("a", []byte("12345"))
	c.Set("b", []byte("12345"))
	assert.Equal(t, 2, c.Len(), "exactly at the limit")

	c.Set("c", []byte("1"))
	assert.Equal(t, 2, c.Len())
	_, found := c.Get("a")
	assert.False(t, found)
}

func TestLRUCache_Update(t *testing.T) {
	c := New(Options{MaxSize: 10})

	c.Set("a", []byte("v1"))
	c.Set("a", []byte("value2"))

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int64(6), c.CurrentBytes())
	val, _ := c.Get("a")
	assert.Equal(t, []byte("value2"), val)
}

func TestLRUCache_SaveLoad(t *testing.T) {
	c := New(Options{MaxSize: 10})
	c.Set("a", []byte("value_a"))
	c.Set("b", []byte("value_b"))
	c.Get("a")

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	restored := New(Options{MaxSize: 1})
	require.NoError(t, restored.Load(&buf))
	assert.Equal(t, 1, restored.Len(), "limits apply on load")
	val, found := restored.Get("a")
	require.True(t, found, "most recently used entry survives")
	assert.Equal(t, []byte("value_a"), val)
}

func TestLRUCache_LoadCorrupt(t *testing.T) {
	c := New(Options{})
	err := c.Load(bytes.NewReader([]byte{0xc1}))
	assert.Error(t, err)
}

func TestPersistedFileDoesNotExist(t *testing.T) {
	c := New(Options{})
	require.NoError(t, LoadFromFile(c, filepath.Join(t.TempDir(), "missing.cache")))
	assert.Equal(t, 0, c.Len())
}

func TestPersistToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "x.cache")
	c := New(Options{})
	c.Set("k", []byte("v"))
	require.NoError(t, PersistToFile(c, path))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file is renamed")

	restored := New(Options{})
	require.NoError(t, LoadFromFile(restored, path))
	val, found := restored.Get("k")
	require.True(t, found)
	assert.Equal(t, []byte("v"), val)
}

func TestStatsCache(t *testing.T) {
	c := NewStatsCache(Options{MaxSize: 10})
	assert.Equal(t, float64(0), c.HitRate())

	c.Set("a", []byte("xyz"))
	c.Get("a")
	c.Get("a")
	c.Get("b")

	stats := c.Stats()
	assert.Equal(t, Stats{Length: 1, CurrentBytes: 3, HitCount: 2, MissCount: 1}, stats)
	assert.InDelta(t, 2.0/3.0, c.HitRate(), 1e-9)

	c.ResetStats()
	assert.Equal(t, int64(0), c.Stats().HitCount)
}

func TestKey(t *testing.T) {
	content := []byte("package p\nfunc f() {}\n")
	k := Key("dir/p.go", "f", content)

	assert.Equal(t, k, Key("dir/p.go", "f", content), "keys are stable")
	assert.Contains(t, k, "dir/p.go#f@")
	assert.NotEqual(t, k, Key("dir/p.go", "g", content))
	assert.NotEqual(t, k, Key("dir/p.go", "f", append(content, '\n')))
}

func sampleInfo() *cfg.CFGInfo {
	return &cfg.CFGInfo{
		FunctionName: "f",
		Nodes: []cfg.NodeInfo{
			{ID: 0, Kind: "condition", Text: "x > 0", Sat: "unknown"},
			{ID: 1, Kind: "ret", Stops: true, Synthetic: true},
		},
		Edges:                []cfg.EdgeInfo{{From: 0, To: 1, Kind: "true"}, {From: 0, To: 1, Kind: "false"}},
		Exits:                []int{1},
		CyclomaticComplexity: 2,
	}
}

func TestStore_GetPut(t *testing.T) {
	s := NewStore(10)
	_, err := s.Get("missing")
	assert.True(t, errors.Is(err, ErrKeyNotFound))

	require.NoError(t, s.Put("k", sampleInfo()))
	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, sampleInfo(), got)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, int64(1), s.Stats().HitCount)
	assert.NoError(t, s.Close(), "in-memory stores close without writing")
}

func TestStore_CorruptEntryIsDropped(t *testing.T) {
	s := NewStore(10)
	s.cache.Set("bad", []byte{0xc1})
	_, err := s.Get("bad")
	require.Error(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestStore_Persistence(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenStore(dir, 10)
	require.NoError(t, err)
	require.NoError(t, s.Put("k", sampleInfo()))
	require.NoError(t, s.Close())

	_, err = os.Stat(filepath.Join(dir, FileName))
	require.NoError(t, err)

	reopened, err := OpenStore(dir, 10)
	require.NoError(t, err)
	got, err := reopened.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "f", got.FunctionName)
	assert.Equal(t, 2, got.CyclomaticComplexity)
}

func TestOpenStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte{0xc1}, 0o644))
	_, err := OpenStore(dir, 10)
	assert.Error(t, err)
}
