// Package scanner discovers Go source files under a directory. It respects
// .gcfgignore files with gitignore-style patterns and doublestar exclude
// globs.
package scanner

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// FileInfo describes one discovered Go source file.
type FileInfo struct {
	Path     string // relative to the root, slash separated
	FullPath string // absolute
	Size     int64
	Test     bool // _test.go file
}

// Options configures the scanner behavior.
type Options struct {
	SkipHidden      bool     // skip files and directories starting with "."
	IncludeTests    bool     // include _test.go files
	SkipGenerated   bool     // skip files carrying a "Code generated ... DO NOT EDIT." header
	DefaultExcludes []string // directory names never entered
	Exclude         []string // doublestar globs matched against relative paths
	IgnoreFileName  string
}

// DefaultOptions returns scanner options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		SkipHidden:     true,
		SkipGenerated:  true,
		IgnoreFileName: ".gcfgignore",
		DefaultExcludes: []string{
			".git",
			"vendor",
			"testdata",
			"node_modules",
			".idea",
			".vscode",
		},
	}
}

// Scanner walks a directory tree.
type Scanner struct {
	opts Options
}

// New creates a Scanner with the given options.
func New(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// Scan returns the Go files under root in lexical order.
func (s *Scanner) Scan(root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}
	if bad, ok := ValidateGlobs(s.opts.Exclude); !ok {
		return nil, fmt.Errorf("invalid exclude pattern %q", bad)
	}

	patterns, err := s.loadIgnorePatterns(absRoot, "")
	if err != nil {
		return nil, fmt.Errorf("loading ignore patterns: %w", err)
	}

	var files []FileInfo
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable entries are skipped
			if d != nil && d.IsDir() && path != absRoot {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if s.skipDir(d.Name(), rel, patterns) {
				return filepath.SkipDir
			}
			nested, err := s.loadIgnorePatterns(path, rel)
			if err != nil {
				return fmt.Errorf("loading ignore patterns in %s: %w", rel, err)
			}
			patterns = append(patterns, nested...)
			return nil
		}

		if !d.Type().IsRegular() || !IsGoSource(d.Name()) {
			return nil
		}
		if s.opts.SkipHidden && isHidden(d.Name()) {
			return nil
		}
		test := IsTestFile(d.Name())
		if test && !s.opts.IncludeTests {
			return nil
		}
		if ignored(rel, false, patterns) || MatchAny(s.opts.Exclude, rel) {
			return nil
		}
		if s.opts.SkipGenerated {
			generated, err := IsGenerated(path)
			if err != nil || generated {
				return nil
			}
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, FileInfo{Path: rel, FullPath: path, Size: info.Size(), Test: test})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}
	return files, nil
}

func (s *Scanner) skipDir(name, rel string, patterns []IgnorePattern) bool {
	if s.opts.SkipHidden && isHidden(name) {
		return true
	}
	for _, exclude := range s.opts.DefaultExcludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	return ignored(rel, true, patterns) || MatchAny(s.opts.Exclude, rel)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// loadIgnorePatterns reads the ignore file of dir; rel is dir relative to
// the scan root.
func (s *Scanner) loadIgnorePatterns(dir, rel string) ([]IgnorePattern, error) {
	if s.opts.IgnoreFileName == "" {
		return nil, nil
	}
	file, err := os.Open(filepath.Join(dir, s.opts.IgnoreFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var patterns []IgnorePattern
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, ParseIgnorePattern(line, rel))
	}
	return patterns, sc.Err()
}

// IsGoSource reports whether name is a Go source file.
func IsGoSource(name string) bool {
	return strings.HasSuffix(name, ".go")
}

// IsTestFile reports whether name is a Go test file.
func IsTestFile(name string) bool {
	return strings.HasSuffix(name, "_test.go")
}

var generatedHeader = regexp.MustCompile(`(?m)^// Code generated .* DO NOT EDIT\.$`)

// IsGenerated reports whether the file at path carries the standard
// generated-code header before its package clause.
func IsGenerated(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	var header bytes.Buffer
	for sc.Scan() {
		line := sc.Bytes()
		if bytes.HasPrefix(bytes.TrimSpace(line), []byte("package ")) {
			break
		}
		header.Write(line)
		header.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return false, err
	}
	return generatedHeader.Match(header.Bytes()), nil
}

// Scan scans root with default options.
func Scan(root string) ([]FileInfo, error) {
	return New(DefaultOptions()).Scan(root)
}

// ScanWithOptions scans root with custom options.
func ScanWithOptions(root string, opts Options) ([]FileInfo, error) {
	return New(opts).Scan(root)
}
