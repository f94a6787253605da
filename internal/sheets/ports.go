// Package sheets defines the outbound ports for the spreadsheet backup
// target.
package sheets

import (
	"context"

	"fintrack/internal/core"
)

type (
	// BackupWriter appends one expense row to the backup sheet and
	// returns a reference to where it landed.
	BackupWriter interface {
		AppendExpense(ctx context.Context, e core.ExpenseRecord) (rowRef string, err error)
	}

	// BackupDeleter removes the backup row for a deleted expense.
	BackupDeleter interface {
		DeleteExpense(ctx context.Context, id int64) error
	}
)
