package vsnap

import "io"

// Encryptor handles encryption of snapshot contents and unlocking for decryption.
// Encryption uses the public key only, so saving never prompts.
// Decryption requires a passphrase to unlock the private key, producing a
// DecryptionContext for the session.
type Encryptor interface {
	// Setup performs one-time key generation. Called during `vsnap keys init`.
	Setup(passphrase string) error

	// Encrypt encrypts data read from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key using the passphrase.
	// Returns an error if the passphrase is incorrect.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured returns true if both key files exist at configured paths.
	IsConfigured() bool

	// IsEncrypted reports whether header is the start of a stream produced
	// by Encrypt. header may be shorter than the full format header.
	IsEncrypted(header []byte) bool
}

// DecryptionContext holds an unlocked private key in memory for the duration
// of a restore. The unlocked key is never written to disk.
type DecryptionContext interface {
	// Decrypt decrypts data read from r and writes plaintext to w.
	Decrypt(r io.Reader, w io.Writer) error
}

// PassphraseFunc obtains the passphrase for unlocking encrypted snapshots.
// It is only called when a restore actually needs to decrypt.
type PassphraseFunc func() (string, error)
