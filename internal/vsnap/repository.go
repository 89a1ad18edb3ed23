package vsnap

import (
	"fmt"
	"path/filepath"
)

// MarkerDirName is the directory whose presence marks a repository root.
// Snapshots are stored flat inside it.
const MarkerDirName = ".vsnap"

// Locate walks from startDir up through its ancestors and returns the first
// marker directory found. A marker that is a regular file does not count.
// The walk stops after probing the filesystem root.
func Locate(fsmgr FilesystemManager, startDir string) (string, bool) {
	dir := filepath.Clean(startDir)
	for {
		candidate := filepath.Join(dir, MarkerDirName)
		if fsmgr.Probe(candidate) == IsDirectory {
			return candidate, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// InitResult is the outcome of initializing a repository.
type InitResult int

const (
	InitCreated InitResult = iota
	InitAlreadyInitialized
	InitBlockedByFile
	InitFailed
)

func (r InitResult) String() string {
	switch r {
	case InitCreated:
		return "created"
	case InitAlreadyInitialized:
		return "already initialized"
	case InitBlockedByFile:
		return "blocked by file"
	default:
		return "failed"
	}
}

// Initialize creates the marker directory directly under dir. Only dir
// itself is checked; an enclosing repository further up does not prevent
// creating a nested one. The returned error is non-nil only for InitFailed.
func Initialize(fsmgr FilesystemManager, dir string) (InitResult, error) {
	marker := filepath.Join(dir, MarkerDirName)

	switch fsmgr.Probe(marker) {
	case IsDirectory:
		return InitAlreadyInitialized, nil
	case IsFile:
		return InitBlockedByFile, nil
	}

	if err := fsmgr.Mkdir(marker); err != nil {
		return InitFailed, fmt.Errorf("%w: %w", ErrInitFailed, err)
	}
	return InitCreated, nil
}

// Err maps non-success results to their error kind, or nil for InitCreated.
func (r InitResult) Err() error {
	switch r {
	case InitAlreadyInitialized:
		return ErrAlreadyInitialized
	case InitBlockedByFile:
		return ErrMarkerBlockedByFile
	case InitFailed:
		return ErrInitFailed
	default:
		return nil
	}
}
