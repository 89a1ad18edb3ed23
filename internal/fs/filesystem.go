package fs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"vsnap-go/internal/vsnap"
)

// OSFilesystemManager is the real filesystem implementation of FilesystemManager.
// It performs actual filesystem operations using the os package.
type OSFilesystemManager struct {
	ignorePatterns []string
}

// NewOSFilesystemManager creates a new filesystem manager that operates on the real filesystem.
// ignorePatterns are applied in addition to any .vsnapignore file at the working tree root.
func NewOSFilesystemManager(ignorePatterns []string) *OSFilesystemManager {
	return &OSFilesystemManager{ignorePatterns: ignorePatterns}
}

// Probe classifies a path. Symlinks are followed; anything that is neither a
// regular file nor a directory after following them counts as absent.
func (m *OSFilesystemManager) Probe(path string) vsnap.PathStatus {
	info, err := os.Stat(path)
	if err != nil {
		return vsnap.Absent
	}
	switch {
	case info.IsDir():
		return vsnap.IsDirectory
	case info.Mode().IsRegular():
		return vsnap.IsFile
	default:
		return vsnap.Absent
	}
}

func (m *OSFilesystemManager) Mkdir(path string) error {
	return os.Mkdir(path, 0755)
}

func (m *OSFilesystemManager) ReadDir(path string) ([]fs.DirEntry, error) {
	return os.ReadDir(path)
}

func (m *OSFilesystemManager) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (m *OSFilesystemManager) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// CreateExclusive writes r to a temp file next to path and hard-links it
// into place, so path either does not exist or holds the complete content.
func (m *OSFilesystemManager) CreateExclusive(path string, r io.Reader, perm fs.FileMode) error {
	tmpPath, err := writeTemp(filepath.Dir(path), r, perm)
	if err != nil {
		return err
	}
	defer os.Remove(tmpPath)

	err = os.Link(tmpPath, path)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("creating %s: %w", path, fs.ErrExist)
	}

	// Filesystems without hard links: fall back to check-then-rename.
	if _, statErr := os.Lstat(path); statErr == nil {
		return fmt.Errorf("creating %s: %w", path, fs.ErrExist)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Replace writes r to path using atomic write (temp file + rename).
func (m *OSFilesystemManager) Replace(path string, r io.Reader, perm fs.FileMode) error {
	tmpPath, err := writeTemp(filepath.Dir(path), r, perm)
	if err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// IsIgnored checks path against the configured patterns and the
// .vsnapignore file at treeRoot. Paths outside treeRoot are matched by
// basename only.
func (m *OSFilesystemManager) IsIgnored(path string, treeRoot string) (bool, error) {
	filePatterns, err := ParseIgnoreFile(filepath.Join(treeRoot, IgnoreFileName))
	if err != nil {
		return false, err
	}

	patterns := make([]string, 0, len(defaultIgnorePatterns)+len(m.ignorePatterns)+len(filePatterns))
	patterns = append(patterns, defaultIgnorePatterns...)
	patterns = append(patterns, m.ignorePatterns...)
	patterns = append(patterns, filePatterns...)

	rel, err := filepath.Rel(treeRoot, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = filepath.Base(path)
	}

	return NewIgnoreMatcher(patterns).Match(rel), nil
}

// writeTemp copies r into a new temp file in dir and returns its path.
// The temp file is removed on failure.
func writeTemp(dir string, r io.Reader, perm fs.FileMode) (string, error) {
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, r); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return "", fmt.Errorf("setting permissions: %w", err)
	}

	success = true
	return tmpPath, nil
}

// Compile-time check that OSFilesystemManager implements vsnap.FilesystemManager interface
var _ vsnap.FilesystemManager = (*OSFilesystemManager)(nil)
