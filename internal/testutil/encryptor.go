package testutil

import "vsnap-go/internal/encryption"

// NewTestEncryptor creates a header-prefix encryptor that accepts passphrase
// (any passphrase when empty).
func NewTestEncryptor(passphrase string) *encryption.TestEncryptor {
	e := encryption.NewTestEncryptor()
	e.Passphrase = passphrase
	return e
}
