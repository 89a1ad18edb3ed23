package app

import (
	"errors"
	"fmt"
	"testing"

	"vsnap-go/internal/vsnap"
)

func TestNewOperationRecord(t *testing.T) {
	op := newOperationRecord("", "save", "notes.txt")

	if op.Operation != "save" || op.Parameters != "notes.txt" {
		t.Errorf("record = %+v", op)
	}
	if op.Status != "success" {
		t.Errorf("Status = %q, want %q", op.Status, "success")
	}
	if op.Persisted() {
		t.Error("Persisted() = true for record without ID")
	}
	if !newOperationRecord("id-1", "init", "").Persisted() {
		t.Error("Persisted() = false for record with ID")
	}
}

func TestOperationRecord_Record(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  string
		wantMessage string
	}{
		{name: "success", err: nil, wantStatus: "success", wantMessage: "saved"},
		{
			name:        "domain outcome",
			err:         vsnap.ErrDuplicateSnapshot,
			wantStatus:  "error",
			wantMessage: "The current version of the file already exists in the repository.",
		},
		{
			name:        "copy failure keeps cause",
			err:         fmt.Errorf("%w: disk full", vsnap.ErrCopyFailed),
			wantStatus:  "error",
			wantMessage: "copying file failed: disk full",
		},
		{
			name:        "unclassified",
			err:         errors.New("boom"),
			wantStatus:  "error",
			wantMessage: "Error: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := newOperationRecord("id-1", "save", "notes.txt")
			op.record("/work/.vsnap", tt.err)
			op.note("saved")

			if op.Repository != "/work/.vsnap" {
				t.Errorf("Repository = %q", op.Repository)
			}
			if op.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", op.Status, tt.wantStatus)
			}
			if op.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", op.Message, tt.wantMessage)
			}
		})
	}
}
