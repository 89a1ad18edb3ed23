package vsnap

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
)

// RestoreOutcome classifies the result of resolving a restore query.
type RestoreOutcome int

const (
	OutcomeNoMatch RestoreOutcome = iota
	OutcomeRestored
	OutcomeAmbiguous
)

func (o RestoreOutcome) String() string {
	switch o {
	case OutcomeRestored:
		return "restored"
	case OutcomeAmbiguous:
		return "ambiguous"
	default:
		return "no match"
	}
}

// Resolve decides what a match set means: nothing to restore, exactly one
// snapshot to restore, or several that the user must choose between.
func Resolve(matches []*Match) RestoreOutcome {
	switch len(matches) {
	case 0:
		return OutcomeNoMatch
	case 1:
		return OutcomeRestored
	default:
		return OutcomeAmbiguous
	}
}

// RestoreResult describes what Restore did.
type RestoreResult struct {
	Outcome RestoreOutcome
	Query   *Query

	// Set when Outcome is OutcomeRestored.
	Snapshot *Match
	Target   string

	// Every candidate when Outcome is OutcomeAmbiguous.
	Candidates []*Match
}

// Restore parses args as a restore query, matches it against the nearest
// repository and, when exactly one snapshot matches, copies it to
// cwd/<original name>, replacing any file already there.
// Ambiguity and no match are reported through the result, not as errors.
// passphrase is only called when the chosen snapshot is encrypted; it may
// be nil.
func (s *Service) Restore(cwd string, args []string, passphrase PassphraseFunc) (*RestoreResult, error) {
	q, ok := ParseQuery(args)
	if !ok {
		return nil, ErrInvalidRestoreQuery
	}

	matches, err := s.FindMatches(cwd, q)
	if err != nil {
		return nil, err
	}

	result := &RestoreResult{Outcome: Resolve(matches), Query: q}
	switch result.Outcome {
	case OutcomeNoMatch:
		s.logger.Info("restore found no match", "file", q.FileName, "time", q.Time.String())
		return result, nil
	case OutcomeAmbiguous:
		s.logger.Info("restore is ambiguous", "file", q.FileName, "candidates", len(matches))
		result.Candidates = matches
		return result, nil
	}

	snap := matches[0]
	target := filepath.Join(cwd, snap.Name)
	if err := s.restoreOne(snap, target, passphrase); err != nil {
		return nil, err
	}

	s.logger.Info("file restored", "snapshot", snap.Path, "target", target)
	result.Snapshot = snap
	result.Target = target
	return result, nil
}

// restoreOne copies a stored snapshot to target, decrypting it when the
// stored bytes carry the encryptor's header.
func (s *Service) restoreOne(snap *Match, target string, passphrase PassphraseFunc) error {
	info, err := s.fsmgr.Stat(snap.Path)
	if err != nil {
		return wrapKind(ErrCopyFailed, err)
	}

	in, err := s.fsmgr.Open(snap.Path)
	if err != nil {
		return wrapKind(ErrCopyFailed, err)
	}
	defer in.Close()

	br := bufio.NewReader(in)
	if s.encryptor != nil {
		// Peek returns what it has on short files, along with io.EOF.
		header, _ := br.Peek(64)
		if s.encryptor.IsEncrypted(header) {
			return s.restoreEncrypted(br, target, info.Mode().Perm(), passphrase)
		}
	}

	if err := s.fsmgr.Replace(target, br, info.Mode().Perm()); err != nil {
		return wrapKind(ErrCopyFailed, err)
	}
	return nil
}

func (s *Service) restoreEncrypted(r io.Reader, target string, perm fs.FileMode, passphrase PassphraseFunc) error {
	if passphrase == nil {
		return ErrPassphraseRequired
	}
	pass, err := passphrase()
	if err != nil {
		return fmt.Errorf("reading passphrase: %w", err)
	}
	dctx, err := s.encryptor.Unlock(pass)
	if err != nil {
		return fmt.Errorf("unlocking private key: %w", err)
	}

	pr, pw := io.Pipe()
	decErrCh := make(chan error, 1)
	go func() {
		err := dctx.Decrypt(r, pw)
		pw.CloseWithError(err)
		decErrCh <- err
	}()

	err = s.fsmgr.Replace(target, pr, perm)
	pr.CloseWithError(err)
	decErr := <-decErrCh
	if err != nil {
		return wrapKind(ErrCopyFailed, err)
	}
	if decErr != nil {
		return wrapKind(ErrCopyFailed, fmt.Errorf("decrypting snapshot: %w", decErr))
	}
	return nil
}
