package filtering

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

const (
	separator     = '/'
	anyDirsPrefix = "**/"
)

// PathFilter decides which files below a base directory belong to an archive
type PathFilter interface {
	// ShouldInclude determines if a slash-separated relative path is archived.
	// Returns (shouldInclude bool, reason string)
	ShouldInclude(relPath string) (bool, string)

	// Select walks root and returns the relative, slash-separated paths of
	// every regular file that should be included, sorted lexically
	Select(root string) ([]string, error)
}

// matcher is a compiled pattern remembering its source text for log reasons
type matcher struct {
	pattern string
	globs   []glob.Glob
}

func (m *matcher) match(name string) bool {
	for _, g := range m.globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// defaultPathFilter implements PathFilter using glob patterns
type defaultPathFilter struct {
	include  *matcher
	excludes []*matcher
}

var _ PathFilter = (*defaultPathFilter)(nil)

// NewPathFilter compiles the inclusion pattern and exclusion patterns
func NewPathFilter(pattern string, excludes []string) (PathFilter, error) {
	if pattern == "" {
		return nil, fmt.Errorf("pattern is required")
	}

	include, err := compilePattern(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern '%s': %w", pattern, err)
	}

	f := &defaultPathFilter{include: include}
	for _, p := range excludes {
		m, err := compilePattern(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern '%s': %w", p, err)
		}
		f.excludes = append(f.excludes, m)
	}
	return f, nil
}

// ValidatePattern reports whether pattern compiles
func ValidatePattern(pattern string) error {
	_, err := compilePattern(pattern)
	return err
}

// compilePattern compiles pattern with '/' as separator. A leading "**/"
// gets a second glob without the prefix so that it matches zero directories.
func compilePattern(pattern string) (*matcher, error) {
	pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "./")

	sources := []string{pattern}
	if strings.HasPrefix(pattern, anyDirsPrefix) {
		sources = append(sources, pattern[len(anyDirsPrefix):])
	}

	m := &matcher{pattern: pattern}
	for _, src := range sources {
		g, err := glob.Compile(src, separator)
		if err != nil {
			return nil, err
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// ShouldInclude determines if a relative path should be archived
//
// Logic:
// 1. If the path matches any exclude pattern -> exclude (exclude takes precedence)
// 2. If the path matches the inclusion pattern -> include
// 3. Otherwise -> exclude
func (f *defaultPathFilter) ShouldInclude(relPath string) (bool, string) {
	for _, m := range f.excludes {
		if m.match(relPath) {
			return false, fmt.Sprintf("excluded by pattern '%s'", m.pattern)
		}
	}

	if f.include.match(relPath) {
		return true, fmt.Sprintf("included by pattern '%s'", f.include.pattern)
	}
	return false, fmt.Sprintf("no match for pattern '%s'", f.include.pattern)
}

// Select walks root and returns every regular file accepted by the filter
func (f *defaultPathFilter) Select(root string) ([]string, error) {
	var selected []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to relativize %s: %w", path, err)
		}
		rel = filepath.ToSlash(rel)

		include, reason := f.ShouldInclude(rel)
		if include {
			selected = append(selected, rel)
		} else {
			slog.Debug("Skipping file", "path", rel, "reason", reason)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(selected)
	return selected, nil
}
