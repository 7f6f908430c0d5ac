package scanner

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IgnorePattern is one gitignore-style line: "!" negates, a trailing "/"
// matches directories only, and a leading "/" anchors the pattern at the
// directory holding the ignore file. Unanchored patterns without a slash
// match at any depth.
type IgnorePattern struct {
	raw       string
	glob      string
	base      string // directory of the ignore file, relative to the root
	negation  bool
	directory bool
}

// ParseIgnorePattern parses a pattern read from an ignore file located in
// base (slash separated, "" for the scan root).
func ParseIgnorePattern(line, base string) IgnorePattern {
	p := IgnorePattern{raw: line, base: strings.Trim(base, "/")}
	if strings.HasPrefix(line, "!") {
		p.negation = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.directory = true
		line = strings.TrimSuffix(line, "/")
	}
	switch {
	case strings.HasPrefix(line, "/"):
		line = line[1:]
	case !strings.Contains(line, "/"):
		line = "**/" + line
	}
	p.glob = line
	return p
}

// Match reports whether relPath (slash separated, relative to the root)
// matches the pattern. isDir tells whether relPath names a directory.
func (p IgnorePattern) Match(relPath string, isDir bool) bool {
	if p.directory && !isDir {
		return false
	}
	if p.base != "" {
		if !strings.HasPrefix(relPath, p.base+"/") {
			return false
		}
		relPath = strings.TrimPrefix(relPath, p.base+"/")
	}
	ok, err := doublestar.Match(p.glob, relPath)
	return err == nil && ok
}

// IsNegation reports whether the pattern re-includes matching paths.
func (p IgnorePattern) IsNegation() bool {
	return p.negation
}

func (p IgnorePattern) String() string {
	if p.base == "" {
		return p.raw
	}
	return path.Join(p.base, p.raw)
}

// ignored applies patterns in order; later patterns override earlier ones.
func ignored(relPath string, isDir bool, patterns []IgnorePattern) bool {
	result := false
	for _, p := range patterns {
		if p.Match(relPath, isDir) {
			result = !p.IsNegation()
		}
	}
	return result
}

// MatchAny reports whether relPath matches one of the doublestar globs.
// Invalid globs never match.
func MatchAny(globs []string, relPath string) bool {
	for _, g := range globs {
		if ok, err := doublestar.Match(g, relPath); err == nil && ok {
			return true
		}
	}
	return false
}

// ValidateGlobs returns the first glob doublestar cannot parse.
func ValidateGlobs(globs []string) (string, bool) {
	for _, g := range globs {
		if !doublestar.ValidatePattern(g) {
			return g, false
		}
	}
	return "", true
}
