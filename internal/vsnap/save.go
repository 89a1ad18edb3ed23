package vsnap

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
)

// SaveResult describes a snapshot written by Save.
type SaveResult struct {
	Repository string
	StoredName string
	StoredPath string
	Timestamp  Timestamp
	Encrypted  bool

	// Mirrored is true when the snapshot was also copied to the vault.
	// MirrorErr holds the vault failure, if any; it never undoes the save.
	Mirrored  bool
	MirrorErr error
}

// Save copies the file at rawPath (relative to cwd) into the nearest
// repository under a name encoding the current minute. Saving the same
// file twice within one minute fails with ErrDuplicateSnapshot and leaves
// the first copy untouched.
func (s *Service) Save(cwd string, rawPath string) (*SaveResult, error) {
	if rawPath == "" {
		return nil, ErrMissingFileArgument
	}

	source := absPath(cwd, rawPath)
	switch s.fsmgr.Probe(source) {
	case Absent:
		return nil, ErrPathNotFound
	case IsDirectory:
		return nil, ErrPathIsDirectory
	}

	name := filepath.Base(source)
	if name == "." || name == string(filepath.Separator) {
		return nil, ErrInvalidInputPath
	}

	root, err := s.FindRepository(cwd)
	if err != nil {
		return nil, err
	}

	ignored, err := s.fsmgr.IsIgnored(source, filepath.Dir(root))
	if err != nil {
		return nil, fmt.Errorf("checking ignore rules: %w", err)
	}
	if ignored {
		return nil, ErrIgnoredFile
	}

	ts := TimestampFromTime(s.clock.Now())
	storedName := EncodeSnapshotName(name, ts)
	target := filepath.Join(root, storedName)

	if s.fsmgr.Probe(target) != Absent {
		return nil, ErrDuplicateSnapshot
	}

	info, err := s.fsmgr.Stat(source)
	if err != nil {
		return nil, wrapKind(ErrCopyFailed, err)
	}

	encrypted := s.encrypting()
	if err := s.writeSnapshot(source, target, info.Mode().Perm(), encrypted); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, ErrDuplicateSnapshot
		}
		return nil, wrapKind(ErrCopyFailed, err)
	}

	s.logger.Info("file saved", "source", source, "snapshot", target, "encrypted", encrypted)

	result := &SaveResult{
		Repository: root,
		StoredName: storedName,
		StoredPath: target,
		Timestamp:  ts,
		Encrypted:  encrypted,
	}

	if s.vault != nil {
		if err := s.mirrorOne(root, storedName); err != nil {
			s.logger.Warn("mirroring snapshot failed", "snapshot", storedName, "error", err)
			result.MirrorErr = err
		} else {
			result.Mirrored = true
		}
	}

	return result, nil
}

// writeSnapshot streams source into a new file at target, through the
// encryptor when encrypted is set.
func (s *Service) writeSnapshot(source, target string, perm fs.FileMode, encrypted bool) error {
	in, err := s.fsmgr.Open(source)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	if !encrypted {
		return s.fsmgr.CreateExclusive(target, in, perm)
	}

	pr, pw := io.Pipe()
	encErrCh := make(chan error, 1)
	go func() {
		err := s.encryptor.Encrypt(in, pw)
		pw.CloseWithError(err)
		encErrCh <- err
	}()

	err = s.fsmgr.CreateExclusive(target, pr, perm)
	pr.CloseWithError(err) // unblock the encryptor if the write failed early
	encErr := <-encErrCh
	if err != nil {
		return err
	}
	if encErr != nil {
		return fmt.Errorf("encrypting snapshot: %w", encErr)
	}
	return nil
}
