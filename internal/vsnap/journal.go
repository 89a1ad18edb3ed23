package vsnap

import "time"

// Operation is one journaled CLI invocation.
type Operation struct {
	ID         string
	Operation  string
	Parameters string
	Repository string
	Status     string // "running", "success" or "error"
	Message    string
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
}

// Finished reports whether the operation has completed.
func (o *Operation) Finished() bool {
	return !o.FinishedAt.IsZero()
}

// Journal records operations for `vsnap history`. It is an audit log only;
// snapshot discovery never consults it.
type Journal interface {
	// CreateOperation records the start of an operation and returns it.
	CreateOperation(operation, parameters string) (*Operation, error)

	// FinishOperation marks the operation with the given id as complete.
	FinishOperation(id, repository, status, message string) error

	// ListOperations returns up to limit operations, newest first.
	ListOperations(limit int) ([]*Operation, error)

	// Close releases resources held by the journal.
	Close() error
}
