package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for path, content := range files {
		full := filepath.Join(root, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func paths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func TestScannerScan(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.go":             "package main",
		"main_test.go":        "package main",
		"utils/helper.go":     "package utils",
		"README.md":           "# Test",
		".hidden/file.go":     "package hidden",
		"vendor/dep/dep.go":   "package dep",
		"testdata/fixture.go": "package fixture",
		"gen/types.go":        "// Code generated by stringer. DO NOT EDIT.\n\npackage gen",
		"gen/manual.go":       "// Package gen.\npackage gen",
	})

	files, err := Scan(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"gen/manual.go", "main.go", "utils/helper.go"}, paths(files))

	for _, f := range files {
		assert.True(t, filepath.IsAbs(f.FullPath))
		assert.False(t, f.Test)
	}
}

func TestScannerIncludeTests(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go":      "package a",
		"a_test.go": "package a",
	})
	opts := DefaultOptions()
	opts.IncludeTests = true

	files, err := ScanWithOptions(root, opts)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a_test.go", files[1].Path)
	assert.True(t, files[1].Test)
}

func TestScannerWithIgnoreFile(t *testing.T) {
	root := writeTree(t, map[string]string{
		".gcfgignore":        "# comment\n\nmocks/\n*_gen.go\n!keep_gen.go\n/top.go\n",
		"top.go":             "package p",
		"sub/top.go":         "package sub",
		"mocks/mock.go":      "package mocks",
		"api/api_gen.go":     "package api",
		"api/keep_gen.go":    "package api",
		"api/api.go":         "package api",
		"nested/.gcfgignore": "local.go\n",
		"nested/local.go":    "package nested",
		"nested/other.go":    "package nested",
		"elsewhere/local.go": "package elsewhere",
	})

	files, err := Scan(root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"api/api.go",
		"api/keep_gen.go",
		"elsewhere/local.go",
		"nested/other.go",
		"sub/top.go",
	}, paths(files))
}

func TestScannerExcludeGlobs(t *testing.T) {
	root := writeTree(t, map[string]string{
		"cmd/tool/main.go":     "package main",
		"internal/x/x.go":      "package x",
		"internal/x/x_mock.go": "package x",
		"pkg/y/y.go":           "package y",
	})
	opts := DefaultOptions()
	opts.Exclude = []string{"cmd/**", "**/*_mock.go"}

	files, err := ScanWithOptions(root, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"internal/x/x.go", "pkg/y/y.go"}, paths(files))

	opts.Exclude = []string{"[bad"}
	_, err = ScanWithOptions(root, opts)
	assert.Error(t, err)
}

func TestScannerSkipHidden(t *testing.T) {
	root := writeTree(t, map[string]string{
		"visible.go":     "package p",
		".hidden.go":     "package p",
		".dir/inside.go": "package p",
	})

	files, err := Scan(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"visible.go"}, paths(files))

	opts := DefaultOptions()
	opts.SkipHidden = false
	files, err = ScanWithOptions(root, opts)
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestIgnorePattern(t *testing.T) {
	tests := []struct {
		pattern string
		base    string
		path    string
		isDir   bool
		want    bool
	}{
		{pattern: "*.go", path: "a/b/c.go", want: true},
		{pattern: "build/", path: "x/build", isDir: true, want: true},
		{pattern: "build/", path: "x/build", isDir: false, want: false},
		{pattern: "/root.go", path: "root.go", want: true},
		{pattern: "/root.go", path: "sub/root.go", want: false},
		{pattern: "gen/*.go", path: "gen/a.go", want: true},
		{pattern: "gen/*.go", path: "x/gen/a.go", want: false},
		{pattern: "**/gen/*.go", path: "x/gen/a.go", want: true},
		{pattern: "local.go", base: "nested", path: "nested/deep/local.go", want: true},
		{pattern: "local.go", base: "nested", path: "other/local.go", want: false},
		{pattern: "!keep.go", path: "keep.go", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.path, func(t *testing.T) {
			p := ParseIgnorePattern(tt.pattern, tt.base)
			assert.Equal(t, tt.want, p.Match(tt.path, tt.isDir))
		})
	}
	assert.True(t, ParseIgnorePattern("!x", "").IsNegation())
	assert.Equal(t, "nested/local.go", ParseIgnorePattern("local.go", "nested").String())
}

func TestIsGenerated(t *testing.T) {
	root := writeTree(t, map[string]string{
		"gen.go":   "// Code generated by protoc-gen-go. DO NOT EDIT.\n// source: x.proto\n\npackage x\n",
		"late.go":  "package x\n\n// Code generated by hand. DO NOT EDIT.\n",
		"plain.go": "package x\n",
	})
	for name, want := range map[string]bool{"gen.go": true, "late.go": false, "plain.go": false} {
		got, err := IsGenerated(filepath.Join(root, name))
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
	_, err := IsGenerated(filepath.Join(root, "missing.go"))
	assert.Error(t, err)
}
