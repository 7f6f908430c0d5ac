// Package source reads Go source files from local paths or storage URLs
// (file://, mem://, http(s)://, and any scheme afs supports).
package source

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
)

// Reader loads source files.
type Reader struct {
	fs afs.Service
}

// NewReader creates a reader backed by a fresh afs service.
func NewReader() *Reader {
	return &Reader{fs: afs.New()}
}

// Read returns the content of location and the name to report for it:
// the cleaned local path, or the URL as given.
func (r *Reader) Read(ctx context.Context, location string) ([]byte, string, error) {
	name := location
	if IsLocal(location) {
		abs, err := filepath.Abs(location)
		if err != nil {
			return nil, "", fmt.Errorf("resolving %s: %w", location, err)
		}
		name = filepath.Clean(location)
		location = "file://" + filepath.ToSlash(abs)
	}
	content, err := r.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, "", fmt.Errorf("reading source %s: %w", name, err)
	}
	return content, name, nil
}

// Exists reports whether location can be read.
func (r *Reader) Exists(ctx context.Context, location string) (bool, error) {
	if IsLocal(location) {
		abs, err := filepath.Abs(location)
		if err != nil {
			return false, err
		}
		location = "file://" + filepath.ToSlash(abs)
	}
	return r.fs.Exists(ctx, location)
}

// IsLocal reports whether location is a plain filesystem path.
func IsLocal(location string) bool {
	return url.Scheme(location, "") == ""
}

// BaseName returns the file name of a path or URL.
func BaseName(location string) string {
	if IsLocal(location) {
		return filepath.Base(location)
	}
	p := url.Path(location)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return path.Base(p)
}
