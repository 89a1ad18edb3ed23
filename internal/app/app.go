package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"vsnap-go/internal/config"
	"vsnap-go/internal/database"
	"vsnap-go/internal/encryption"
	"vsnap-go/internal/fs"
	"vsnap-go/internal/vault"
	"vsnap-go/internal/vsnap"
	"vsnap-go/internal/watch"
)

// App is the application layer between the CLI and vsnap.Service.
// It constructs all dependencies from config, journals the command being
// run, and releases resources on Close.
type App struct {
	cfg       *config.Config
	journal   vsnap.Journal
	vault     vsnap.Vault
	encryptor vsnap.Encryptor
	service   *vsnap.Service
	logger    vsnap.Logger
	op        *operationRecord
	logFile   *os.File
}

// NewApp creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "save", "restore")
// and parameters its arguments. The caller must call Close when done.
func NewApp(cfg *config.Config, operation, parameters string) (*App, error) {
	return newApp(cfg, operation, parameters, vsnap.RealClock{})
}

func newApp(cfg *config.Config, operation, parameters string, clock vsnap.Clock) (*App, error) {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	journal, err := database.NewJournalFromConfig(cfg.Journal, cfg.HostID)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	dbOp, err := journal.CreateOperation(operation, parameters)
	if err != nil {
		journal.Close()
		return nil, fmt.Errorf("recording operation: %w", err)
	}

	opID := dbOp.ID
	if opID == "" {
		opID = time.Now().UTC().Format("20060102T150405Z")
	}
	slogger, logFile, err := newLogger(cfg.LogDir, opID, level)
	if err != nil {
		journal.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	closeAll := func() {
		journal.Close()
		logFile.Close()
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}
	if enc != nil && !enc.IsConfigured() {
		logger.Warn("encryption keys missing, snapshots are stored in plaintext", "type", cfg.Encryption.Type)
	}

	var v vsnap.Vault
	if len(cfg.Vaults) > 0 {
		v, err = vault.NewVaultFromConfig(cfg.Vaults[0])
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("creating vault: %w", err)
		}
	}

	fsmgr := fs.NewOSFilesystemManager(cfg.Filesystem.Ignore)
	svc := vsnap.NewService(fsmgr, enc, v, logger, clock, cfg.HostID)

	return &App{
		cfg:       cfg,
		journal:   journal,
		vault:     v,
		encryptor: enc,
		service:   svc,
		logger:    logger,
		op:        newOperationRecord(dbOp.ID, operation, parameters),
		logFile:   logFile,
	}, nil
}

// Init creates a repository directly under cwd.
func (a *App) Init(cwd string) (vsnap.InitResult, error) {
	result, err := a.service.Init(cwd)
	if err == nil {
		err = result.Err()
	}
	a.op.record(filepath.Join(cwd, vsnap.MarkerDirName), err)
	return result, err
}

// FindRepository returns the repository enclosing cwd.
func (a *App) FindRepository(cwd string) (string, error) {
	root, err := a.service.FindRepository(cwd)
	a.op.record(root, err)
	return root, err
}

// Save snapshots rawPath into the repository enclosing cwd.
func (a *App) Save(cwd, rawPath string) (*vsnap.SaveResult, error) {
	result, err := a.service.Save(cwd, rawPath)
	if err != nil {
		a.op.record("", err)
		return nil, err
	}
	a.op.record(result.Repository, nil)
	a.op.note(result.StoredName)
	return result, nil
}

// Restore resolves args against the repository enclosing cwd and restores
// the single matching snapshot. passphrase is only asked for encrypted
// snapshots.
func (a *App) Restore(cwd string, args []string, passphrase vsnap.PassphraseFunc) (*vsnap.RestoreResult, error) {
	result, err := a.service.Restore(cwd, args, passphrase)
	if err != nil {
		a.op.record("", err)
		return nil, err
	}
	switch result.Outcome {
	case vsnap.OutcomeRestored:
		a.op.record(filepath.Dir(result.Snapshot.Path), nil)
		a.op.note(result.Snapshot.StoredName)
	default:
		a.op.note(fmt.Sprintf("%s (%d candidates)", result.Outcome, len(result.Candidates)))
	}
	return result, nil
}

// List returns every snapshot whose original name ends with fragment.
func (a *App) List(cwd, fragment string) ([]*vsnap.Match, error) {
	matches, err := a.service.ListSnapshots(cwd, fragment)
	a.op.record("", err)
	return matches, err
}

// Mirror uploads snapshots missing from the configured vault.
func (a *App) Mirror(cwd string) (int, error) {
	if a.vault != nil {
		if err := a.vault.ValidateSetup(); err != nil {
			err = fmt.Errorf("validating vault: %w", err)
			a.op.record("", err)
			return 0, err
		}
	}
	n, err := a.service.Mirror(cwd)
	a.op.record("", err)
	if err == nil {
		a.op.note(fmt.Sprintf("uploaded %d", n))
	}
	return n, err
}

// History returns the most recent journaled operations, newest first.
func (a *App) History(limit int) ([]*vsnap.Operation, error) {
	return a.journal.ListOperations(limit)
}

// Watch saves the given files on every change until ctx is cancelled.
func (a *App) Watch(ctx context.Context, cwd string, paths []string, report watch.ReportFunc) error {
	if _, err := a.service.FindRepository(cwd); err != nil {
		a.op.record("", err)
		return err
	}
	w, err := watch.New(a.service, a.logger, cwd, paths, report)
	if err != nil {
		a.op.record("", err)
		return err
	}
	err = w.Run(ctx)
	a.op.record("", err)
	return err
}

// SetupKeys generates the encryption key pair, protecting the private key
// with passphrase.
func (a *App) SetupKeys(passphrase string) error {
	if a.encryptor == nil {
		err := errors.New(`encryption type is "none"; set [encryption] type = "age" first`)
		a.op.record("", err)
		return err
	}
	if a.encryptor.IsConfigured() {
		err := errors.New("encryption keys already exist")
		a.op.record("", err)
		return err
	}
	err := a.encryptor.Setup(passphrase)
	a.op.record("", err)
	return err
}

// Close finishes the journal entry and releases the journal and log file.
func (a *App) Close() error {
	var firstErr error

	if a.op.Persisted() {
		if err := a.journal.FinishOperation(a.op.ID, a.op.Repository, a.op.Status, a.op.Message); err != nil {
			firstErr = fmt.Errorf("finishing operation: %w", err)
		}
	}

	if err := a.journal.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing journal: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
