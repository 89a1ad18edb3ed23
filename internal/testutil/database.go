package testutil

import (
	"testing"

	"vsnap-go/internal/database"
)

// NewTestJournal creates an in-memory SQLite journal driven by clock and
// sequential IDs. It is closed when the test completes.
func NewTestJournal(t *testing.T, clock *StubClock) *database.SQLiteJournal {
	t.Helper()

	j, err := database.NewSQLiteJournal(":memory:", clock, NewStubIDGenerator())
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}
