package extractor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuncIndex(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		check func(*testing.T, []FuncEntry)
	}{
		{
			name: "simple function",
			code: `package main

func Hello() string {
	return "hello"
}
`,
			check: func(t *testing.T, entries []FuncEntry) {
				require.Len(t, entries, 1)
				assert.Equal(t, FuncEntry{Name: "Hello", Func: "Hello", StartLine: 3, EndLine: 5, HasBody: true}, entries[0])
				assert.False(t, entries[0].IsMethod())
			},
		},
		{
			name: "value and pointer receivers",
			code: `package main

type Container struct{}

func (c Container) Get() int { return 0 }

func (c *Container) Set(v int) {}
`,
			check: func(t *testing.T, entries []FuncEntry) {
				require.Len(t, entries, 2)
				assert.Equal(t, "Container.Get", entries[0].Name)
				assert.Equal(t, "Container", entries[0].Receiver)
				assert.Equal(t, "Container.Set", entries[1].Name)
				assert.Equal(t, "*Container", entries[1].Receiver)
				assert.Equal(t, "Set", entries[1].Func)
				assert.True(t, entries[1].IsMethod())
			},
		},
		{
			name: "generic receiver",
			code: `package main

type List[T any] struct{}

func (l *List[T]) Push(v T) {}
`,
			check: func(t *testing.T, entries []FuncEntry) {
				require.Len(t, entries, 1)
				assert.Equal(t, "List.Push", entries[0].Name)
				assert.Equal(t, "*List", entries[0].Receiver)
			},
		},
		{
			name: "declaration without body",
			code: `package main

func external(x int) int
`,
			check: func(t *testing.T, entries []FuncEntry) {
				require.Len(t, entries, 1)
				assert.False(t, entries[0].HasBody)
			},
		},
		{
			name: "function literals are not indexed",
			code: `package main

var handler = func() {}

func main() {
	f := func() {}
	f()
}
`,
			check: func(t *testing.T, entries []FuncEntry) {
				require.Len(t, entries, 1)
				assert.Equal(t, "main", entries[0].Name)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := FuncIndex([]byte(tt.code))
			require.NoError(t, err)
			tt.check(t, entries)
		})
	}
}

func TestFuncIndexFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package a\n\nfunc A() {}\n"), 0o644))

	entries, err := FuncIndexFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "A", entries[0].Name)

	_, err = FuncIndexFile(filepath.Join(t.TempDir(), "missing.go"))
	assert.Error(t, err)
}

func TestSuggest(t *testing.T) {
	entries := []FuncEntry{
		{Name: "Parse", Func: "Parse"},
		{Name: "ParseFile", Func: "ParseFile"},
		{Name: "Server.Handle", Func: "Handle", Receiver: "*Server"},
		{Name: "format", Func: "format"},
	}

	tests := []struct {
		query string
		want  []string
	}{
		{query: "parse", want: []string{"Parse", "ParseFile"}},
		{query: "Parsefile", want: []string{"ParseFile"}},
		{query: "handle", want: []string{"Server.Handle"}},
		{query: "Handel", want: []string{"Server.Handle"}},
		{query: "file", want: []string{"ParseFile"}},
		{query: "formt", want: []string{"format"}},
		{query: "zzz", want: []string{}},
		{query: "", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, Suggest(entries, tt.query))
		})
	}
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("abc", "abc"))
	assert.Equal(t, 1, levenshtein("abc", "abd"))
	assert.Equal(t, 2, levenshtein("handle", "handel"))
	assert.Equal(t, 3, levenshtein("", "abc"))
}
