package vsnap

import "io"

// Vault is an off-repository store that mirrors snapshot files.
// Keys are slash-separated: <hostID>/<repositoryKey>/<storedName>.
type Vault interface {
	// Put stores the object under key, replacing any existing object.
	// size is the number of bytes that will be read from r.
	Put(key string, r io.Reader, size int64) error

	// Get retrieves the object stored under key and writes it to w.
	Get(key string, w io.Writer) error

	// List returns all keys that start with prefix, in lexical order.
	List(prefix string) ([]string, error)

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup() error
}
