package memory

import (
	"context"
	"testing"
	"time"

	"centavo/internal/sheets"
)

func TestStoreAppend(t *testing.T) {
	s := New()

	row := sheets.BackupRow{
		ID:          1,
		Date:        time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		Description: "Coffee",
		AmountCents: 350,
		OwnerEmail:  "ada@example.com",
		Version:     1,
	}
	if err := s.Append(context.Background(), row); err != nil {
		t.Fatalf("Append: %v", err)
	}

	rows := s.Rows()
	if len(rows) != 1 || rows[0].ID != 1 || rows[0].Description != "Coffee" {
		t.Fatalf("unexpected rows: %+v", rows)
	}

	// Rows returns a copy, not the backing slice.
	rows[0].Description = "mutated"
	if s.Rows()[0].Description != "Coffee" {
		t.Error("Rows exposed internal state")
	}
}
