package vsnap

import (
	"fmt"
	"path/filepath"
)

// Service is the orchestration layer behind the CLI. It locates the
// repository, saves snapshots into it and restores them.
// Every call re-derives the repository location; nothing is cached.
type Service struct {
	fsmgr     FilesystemManager
	encryptor Encryptor
	vault     Vault
	logger    Logger
	clock     Clock
	hostID    string
}

// NewService creates a new Service with the provided dependencies.
// encryptor and vault may be nil: snapshots are then stored in plaintext
// and not mirrored.
func NewService(fsmgr FilesystemManager, encryptor Encryptor, vault Vault, logger Logger, clock Clock, hostID string) *Service {
	return &Service{
		fsmgr:     fsmgr,
		encryptor: encryptor,
		vault:     vault,
		logger:    logger,
		clock:     clock,
		hostID:    hostID,
	}
}

// Init initializes a repository directly under cwd.
func (s *Service) Init(cwd string) (InitResult, error) {
	result, err := Initialize(s.fsmgr, cwd)
	if err != nil {
		s.logger.Error("repository init failed", "dir", cwd, "error", err)
		return result, err
	}
	s.logger.Info("repository init", "dir", cwd, "result", result.String())
	return result, nil
}

// FindRepository returns the nearest repository root at or above cwd.
func (s *Service) FindRepository(cwd string) (string, error) {
	root, ok := Locate(s.fsmgr, cwd)
	if !ok {
		s.logger.Debug("no repository found", "start", cwd)
		return "", ErrRepositoryNotFound
	}
	return root, nil
}

// absPath resolves rawPath against cwd.
func absPath(cwd, rawPath string) string {
	if filepath.IsAbs(rawPath) {
		return filepath.Clean(rawPath)
	}
	return filepath.Join(cwd, rawPath)
}

// encrypting reports whether new snapshots are stored encrypted.
func (s *Service) encrypting() bool {
	return s.encryptor != nil && s.encryptor.IsConfigured()
}

func (s *Service) requireVault() error {
	if s.vault == nil {
		return ErrNoVault
	}
	return nil
}

// wrapKind attaches an error kind to an underlying cause.
func wrapKind(kind error, cause error) error {
	return fmt.Errorf("%w: %w", kind, cause)
}
