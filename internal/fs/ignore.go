package fs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreFileName is the per-tree ignore file, read from the directory that
// contains the repository marker.
const IgnoreFileName = ".vsnapignore"

// defaultIgnorePatterns are always applied regardless of config or .vsnapignore.
var defaultIgnorePatterns = []string{IgnoreFileName}

// ignoreRule is one glob. Rules containing '/' are matched against the path
// relative to the tree root; the rest against the basename only.
type ignoreRule struct {
	glob     string
	fullPath bool
}

func (r ignoreRule) match(slashPath, base string) bool {
	subject := base
	if r.fullPath {
		subject = slashPath
	}
	ok, err := filepath.Match(r.glob, subject)
	return err == nil && ok // malformed globs never match
}

// IgnoreMatcher decides which files save refuses to snapshot.
type IgnoreMatcher struct {
	rules []ignoreRule
}

// NewIgnoreMatcher creates an IgnoreMatcher from raw pattern lines.
// Blank lines and lines starting with '#' are skipped.
func NewIgnoreMatcher(lines []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	for _, line := range lines {
		glob := strings.TrimSpace(line)
		if glob == "" || strings.HasPrefix(glob, "#") {
			continue
		}
		m.rules = append(m.rules, ignoreRule{glob: glob, fullPath: strings.Contains(glob, "/")})
	}
	return m
}

// Match reports whether relativePath is ignored.
func (m *IgnoreMatcher) Match(relativePath string) bool {
	if relativePath == "" {
		return false
	}
	slashPath := filepath.ToSlash(relativePath)
	base := filepath.Base(relativePath)
	for _, r := range m.rules {
		if r.match(slashPath, base) {
			return true
		}
	}
	return false
}

// ParseIgnoreFile returns the raw lines of an ignore file, comments included.
// A missing file yields no lines and no error.
func ParseIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return lines, nil
}
