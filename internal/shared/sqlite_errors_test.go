package shared

import (
	"errors"
	"fmt"
	"testing"
)

func TestConflictClassificationFromMessage(t *testing.T) {
	t.Parallel()

	busy := errors.New("exec: SQLITE_BUSY")
	locked := fmt.Errorf("upsert: %w", errors.New("database is locked"))
	other := errors.New("constraint failed")

	if !IsSQLiteBusyError(busy) || !IsSQLiteConflictError(busy) {
		t.Error("expected SQLITE_BUSY to be a conflict")
	}
	if !IsSQLiteLockedError(locked) || !IsSQLiteConflictError(locked) {
		t.Error("expected wrapped locked error to be a conflict")
	}
	if IsSQLiteConflictError(other) {
		t.Error("expected unrelated error not to be a conflict")
	}
	if IsSQLiteConflictError(nil) {
		t.Error("expected nil not to be a conflict")
	}
}
