package database

import (
	"database/sql"
	"fmt"
	"time"

	"vsnap-go/internal/database/migrations"
	"vsnap-go/internal/vsnap"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteJournal implements vsnap.Journal on a SQLite database.
type SQLiteJournal struct {
	db    *sql.DB
	path  string
	clock vsnap.Clock
	ids   vsnap.IDGenerator
}

var _ vsnap.Journal = (*SQLiteJournal)(nil)

// NewSQLiteJournal opens the journal at path, migrating it to the latest
// schema. path can be a file path or ":memory:". A nil clock or id
// generator selects the real implementation.
func NewSQLiteJournal(path string, clock vsnap.Clock, ids vsnap.IDGenerator) (*SQLiteJournal, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating journal: %w", err)
	}

	if clock == nil {
		clock = vsnap.RealClock{}
	}
	if ids == nil {
		ids = vsnap.UUIDGenerator{}
	}
	return &SQLiteJournal{db: db, path: path, clock: clock, ids: ids}, nil
}

// OpenConnection opens and configures a SQLite connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	// Each connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	// Concurrent vsnap processes (watch plus an interactive save) share the file.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return db, nil
}

func (s *SQLiteJournal) CreateOperation(operation, parameters string) (*vsnap.Operation, error) {
	op := &vsnap.Operation{
		ID:         s.ids.New(),
		Operation:  operation,
		Parameters: parameters,
		Status:     "running",
		StartedAt:  s.clock.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO operations (id, operation, parameters, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		op.ID, op.Operation, op.Parameters, op.Status, op.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting operation: %w", err)
	}
	return op, nil
}

func (s *SQLiteJournal) FinishOperation(id, repository, status, message string) error {
	res, err := s.db.Exec(
		`UPDATE operations SET repository = ?, status = ?, message = ?, finished_at = ? WHERE id = ?`,
		repository, status, message, s.clock.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("finishing operation %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing operation %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("finishing operation %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

func (s *SQLiteJournal) ListOperations(limit int) ([]*vsnap.Operation, error) {
	rows, err := s.db.Query(
		`SELECT id, operation, parameters, repository, status, message, started_at, finished_at
		 FROM operations ORDER BY rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []*vsnap.Operation
	for rows.Next() {
		var (
			op       vsnap.Operation
			finished sql.NullTime
		)
		if err := rows.Scan(&op.ID, &op.Operation, &op.Parameters, &op.Repository,
			&op.Status, &op.Message, &op.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		if finished.Valid {
			op.FinishedAt = finished.Time
		}
		ops = append(ops, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

func (s *SQLiteJournal) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// NopJournal discards every operation. It backs journal type "none".
type NopJournal struct{}

var _ vsnap.Journal = NopJournal{}

func (NopJournal) CreateOperation(operation, parameters string) (*vsnap.Operation, error) {
	return &vsnap.Operation{Operation: operation, Parameters: parameters, Status: "running", StartedAt: time.Now()}, nil
}

func (NopJournal) FinishOperation(id, repository, status, message string) error { return nil }

func (NopJournal) ListOperations(limit int) ([]*vsnap.Operation, error) { return nil, nil }

func (NopJournal) Close() error { return nil }
