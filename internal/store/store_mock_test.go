package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// TestGetValue_QueryError tests database error propagation
func TestGetValue_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	s := NewWithDB(db)

	mock.ExpectQuery("SELECT value FROM session_values").
		WillReturnError(errors.New("database is locked"))

	_, err = s.GetValue(context.Background(), "key")
	if err == nil {
		t.Fatal("expected error from query failure")
	}
	if err == ErrNotFound {
		t.Error("query failure must not be reported as not found")
	}
}

// TestTierSelections_ScanError tests row scanning error
func TestTierSelections_ScanError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	s := NewWithDB(db)

	rows := sqlmock.NewRows([]string{"item_id", "tier_index"}).
		AddRow("not-a-number", 2)

	mock.ExpectQuery("SELECT item_id, tier_index FROM tier_selections").
		WillReturnRows(rows)

	_, err = s.TierSelections(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error from scan failure")
	}
}

// TestSaveTierSelection_ExecError tests write error propagation
func TestSaveTierSelection_ExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	s := NewWithDB(db)

	mock.ExpectExec("INSERT INTO tier_selections").
		WillReturnError(errors.New("disk I/O error"))

	if err := s.SaveTierSelection(context.Background(), 1, 10, 2); err == nil {
		t.Fatal("expected error from exec failure")
	}
}
