package app

import (
	"errors"

	"vsnap-go/internal/vsnap"
)

// operationRecord tracks the outcome of the CLI command being run until it
// is written to the journal on Close.
type operationRecord struct {
	ID         string
	Operation  string
	Parameters string
	Repository string
	Status     string // "success" or "error"
	Message    string
}

// newOperationRecord creates a record that reports success unless told otherwise.
func newOperationRecord(id, operation, parameters string) *operationRecord {
	return &operationRecord{
		ID:         id,
		Operation:  operation,
		Parameters: parameters,
		Status:     "success",
	}
}

// Persisted returns true if the journal assigned the record an ID.
func (op *operationRecord) Persisted() bool {
	return op.ID != ""
}

// record notes the repository the command acted on and its outcome. Domain
// outcomes are stored with the line the user saw.
func (op *operationRecord) record(repository string, err error) {
	if repository != "" {
		op.Repository = repository
	}
	if err == nil {
		return
	}
	op.Status = "error"
	op.Message = vsnap.UserMessage(err)
	if errors.Is(err, vsnap.ErrCopyFailed) || errors.Is(err, vsnap.ErrDirectoryRead) {
		op.Message = err.Error()
	}
}

// note sets a success message without changing the status.
func (op *operationRecord) note(message string) {
	if op.Status == "success" {
		op.Message = message
	}
}
