package vsnap

import (
	"io"
	"io/fs"
)

// FilesystemManager provides an interface for filesystem operations.
// It abstracts file access to enable testing without touching the real filesystem.
// All paths are absolute.
type FilesystemManager interface {
	// Probe classifies the path as absent, a file, or a directory.
	// Any stat error counts as absent.
	Probe(path string) PathStatus

	// Mkdir creates a single directory. The parent must already exist.
	Mkdir(path string) error

	// ReadDir lists the entries of a directory.
	ReadDir(path string) ([]fs.DirEntry, error)

	// Open opens a file for reading.
	Open(path string) (io.ReadCloser, error)

	// Stat returns file info for a path.
	Stat(path string) (fs.FileInfo, error)

	// CreateExclusive writes the contents of r to a new file at path.
	// It fails with an error wrapping fs.ErrExist if path already exists,
	// and never leaves a partially written file under path.
	CreateExclusive(path string, r io.Reader, perm fs.FileMode) error

	// Replace writes the contents of r to path, atomically replacing any
	// existing file.
	Replace(path string, r io.Reader, perm fs.FileMode) error

	// IsIgnored reports whether path matches the ignore rules that apply
	// to the working tree rooted at treeRoot.
	IsIgnored(path string, treeRoot string) (bool, error)
}
