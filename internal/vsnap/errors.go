package vsnap

import (
	"errors"
	"fmt"
)

// Error kinds reported by the service. Callers classify with errors.Is;
// the CLI turns each kind into a single printed line via UserMessage.
var (
	ErrRepositoryNotFound  = errors.New("repository not found")
	ErrAlreadyInitialized  = errors.New("repository already initialized")
	ErrMarkerBlockedByFile = errors.New("a file occupies the repository marker name")
	ErrInitFailed          = errors.New("creating repository failed")
	ErrMissingFileArgument = errors.New("file argument required")
	ErrInvalidInputPath    = errors.New("invalid input path")
	ErrIgnoredFile         = errors.New("file is ignored")
	ErrDuplicateSnapshot   = errors.New("snapshot already exists")
	ErrDirectoryRead       = errors.New("cannot read repository directory")
	ErrCopyFailed          = errors.New("copying file failed")
	ErrInvalidRestoreQuery = errors.New("invalid restore query")
	ErrPassphraseRequired  = errors.New("passphrase required")
	ErrNoVault             = errors.New("no vault configured")
)

// Sub-kinds of ErrInvalidInputPath.
var (
	ErrPathNotFound    = fmt.Errorf("%w: path does not exist", ErrInvalidInputPath)
	ErrPathIsDirectory = fmt.Errorf("%w: path is a directory", ErrInvalidInputPath)
)

// userMessages is checked in order, so sub-kinds come before their parents.
var userMessages = []struct {
	kind    error
	message string
}{
	{ErrRepositoryNotFound, "Repository not found."},
	{ErrAlreadyInitialized, "The repository has already been initialized."},
	{ErrMarkerBlockedByFile, "A file named " + MarkerDirName + " is in the way. Remove or rename it to initialize a repository here."},
	{ErrInitFailed, "Failed. Check your directory permissions."},
	{ErrMissingFileArgument, "A file name is required with the save command."},
	{ErrPathNotFound, "The path given needs to point to a file."},
	{ErrPathIsDirectory, "You gave a directory as an argument. The path given needs to point to a file."},
	{ErrInvalidInputPath, "The given path is not a valid file name."},
	{ErrIgnoredFile, "The file matches an ignore rule and was not saved."},
	{ErrDuplicateSnapshot, "The current version of the file already exists in the repository."},
	{ErrDirectoryRead, "Reading the repository failed."},
	{ErrCopyFailed, "Copying the file failed."},
	{ErrInvalidRestoreQuery, "A file name is required with the restore command."},
	{ErrPassphraseRequired, "The snapshot is encrypted and no passphrase was given."},
	{ErrNoVault, "No vault is configured."},
}

// UserMessage returns the one-line, human-readable report for err.
func UserMessage(err error) string {
	for _, m := range userMessages {
		if errors.Is(err, m.kind) {
			return m.message
		}
	}
	return "Error: " + err.Error()
}

// IsUserError reports whether err is one of the kinds above, which the CLI
// reports as a printed line rather than a failure.
func IsUserError(err error) bool {
	for _, m := range userMessages {
		if errors.Is(err, m.kind) {
			return true
		}
	}
	return false
}
