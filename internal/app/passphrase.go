package app

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"vsnap-go/internal/vsnap"
)

// ErrPassphraseMismatch is returned when the confirmation differs from the
// first entry.
var ErrPassphraseMismatch = errors.New("passphrases do not match")

// readPassword reads a line from the terminal without echo. It is a
// variable so tests can replace the terminal.
var readPassword = func() (string, error) {
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// PromptPassphrase returns a vsnap.PassphraseFunc that asks on the terminal.
// The prompt goes to out (stderr in the CLI) so stdout stays one line.
func PromptPassphrase(out io.Writer, prompt string) vsnap.PassphraseFunc {
	return func() (string, error) {
		fmt.Fprint(out, prompt)
		pass, err := readPassword()
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return pass, nil
	}
}

// PromptNewPassphrase asks twice and fails unless both entries match and
// are non-empty.
func PromptNewPassphrase(out io.Writer) (string, error) {
	first, err := PromptPassphrase(out, "New passphrase: ")()
	if err != nil {
		return "", err
	}
	if first == "" {
		return "", fmt.Errorf("passphrase must not be empty")
	}
	second, err := PromptPassphrase(out, "Confirm passphrase: ")()
	if err != nil {
		return "", err
	}
	if first != second {
		return "", ErrPassphraseMismatch
	}
	return first, nil
}
