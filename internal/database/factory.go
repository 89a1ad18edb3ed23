package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"vsnap-go/internal/config"
	"vsnap-go/internal/vsnap"
)

// errUnknownJournal is returned for unrecognised journal types.
var errUnknownJournal = errors.New("unknown journal type")

// NewJournalFromConfig creates a Journal implementation based on the journal config type.
func NewJournalFromConfig(cfg config.JournalConfig, hostID string) (vsnap.Journal, error) {
	switch cfg.Type {
	case "sqlite", "":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite journal")
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
		j, err := NewSQLiteJournal(filepath.Join(cfg.DataDir, hostID+".db"), nil, nil)
		if err != nil {
			return nil, err
		}
		return j, nil
	case "memory":
		j, err := NewSQLiteJournal(":memory:", nil, nil)
		if err != nil {
			return nil, err
		}
		return j, nil
	case "none":
		return NopJournal{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownJournal, cfg.Type)
	}
}
