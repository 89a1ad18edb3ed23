package encryption

import (
	"bytes"
	"fmt"
	"io"

	"vsnap-go/internal/vsnap"
)

// testHeader is prepended to data by TestEncryptor to make encrypted output
// clearly different from plaintext while remaining deterministic and reversible.
var testHeader = []byte("VSENC\x00\x00\x00")

// TestEncryptor is a deterministic encryptor for tests. It prepends a fixed
// 8-byte header on Encrypt and strips it on Decrypt.
type TestEncryptor struct {
	setupCalled bool

	// Passphrase, when set, is the only passphrase Unlock accepts.
	Passphrase string
}

var _ vsnap.Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor creates a new TestEncryptor.
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	e.setupCalled = true
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (vsnap.DecryptionContext, error) {
	if e.Passphrase != "" && passphrase != e.Passphrase {
		return nil, fmt.Errorf("incorrect passphrase")
	}
	return &TestDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return true
}

func (e *TestEncryptor) IsEncrypted(header []byte) bool {
	return hasPrefix(header, testHeader)
}

// SetupCalled reports whether Setup has been invoked.
func (e *TestEncryptor) SetupCalled() bool {
	return e.setupCalled
}

// hasPrefix reports whether header begins with magic. A header shorter than
// magic never matches.
func hasPrefix(header, magic []byte) bool {
	return len(header) >= len(magic) && bytes.Equal(header[:len(magic)], magic)
}

// TestDecryptionContext strips the test header added by TestEncryptor.
type TestDecryptionContext struct{}

var _ vsnap.DecryptionContext = (*TestDecryptionContext)(nil)

func (c *TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return fmt.Errorf("invalid test encryption header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
