package vsnap

import (
	"fmt"
	"path"
	"path/filepath"

	"github.com/google/uuid"
)

// RepositoryKey derives a stable identifier for a repository from its root
// path, so several repositories can share one vault.
func RepositoryKey(root string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+root)).String()
}

// vaultPrefix is the key prefix under which a repository's snapshots are mirrored.
func (s *Service) vaultPrefix(root string) string {
	return path.Join(s.hostID, RepositoryKey(root)) + "/"
}

// mirrorOne uploads a single stored snapshot to the vault.
func (s *Service) mirrorOne(root, storedName string) error {
	p := filepath.Join(root, storedName)
	info, err := s.fsmgr.Stat(p)
	if err != nil {
		return fmt.Errorf("stat snapshot: %w", err)
	}

	f, err := s.fsmgr.Open(p)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	key := s.vaultPrefix(root) + storedName
	if err := s.vault.Put(key, f, info.Size()); err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	s.logger.Debug("snapshot mirrored", "key", key)
	return nil
}

// Mirror uploads every snapshot of the nearest repository that the vault
// does not hold yet. Returns the number of snapshots uploaded.
func (s *Service) Mirror(cwd string) (int, error) {
	if err := s.requireVault(); err != nil {
		return 0, err
	}

	root, err := s.FindRepository(cwd)
	if err != nil {
		return 0, err
	}

	snapshots, err := s.listSnapshots(root)
	if err != nil {
		return 0, err
	}

	prefix := s.vaultPrefix(root)
	keys, err := s.vault.List(prefix)
	if err != nil {
		return 0, fmt.Errorf("listing vault: %w", err)
	}
	existing := make(map[string]bool, len(keys))
	for _, k := range keys {
		existing[k] = true
	}

	count := 0
	for _, snap := range snapshots {
		if existing[prefix+snap.StoredName] {
			continue
		}
		if err := s.mirrorOne(root, snap.StoredName); err != nil {
			return count, err
		}
		count++
	}

	s.logger.Info("mirror complete", "repository", root, "uploaded", count)
	return count, nil
}
