// Package sheets defines the outbound port for the spreadsheet backup.
package sheets

import (
	"context"
	"time"
)

// BackupRow is one expense as it appears in the backup spreadsheet.
type BackupRow struct {
	ID          int64
	Date        time.Time
	Description string
	Category    string
	Note        string
	AmountCents int64
	OwnerEmail  string
	Version     int64
}

// ExpenseAppender appends expense rows to a backup sheet.
type ExpenseAppender interface {
	Append(ctx context.Context, row BackupRow) error
}
