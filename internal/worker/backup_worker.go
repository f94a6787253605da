// Package worker mirrors expense rows to the spreadsheet backup. It is
// driven by AMQP events, with a periodic pending-row sweep as a safety
// net for lost messages.
package worker

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// BackupStore is the slice of the repository the worker needs.
type BackupStore interface {
	GetExpenseByID(ctx context.Context, id int64) (*core.ExpenseRecord, error)
	PendingBackups(ctx context.Context, limit int) ([]int64, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

type BackupWorker struct {
	store     BackupStore
	writer    sheets.BackupWriter
	deleter   sheets.BackupDeleter
	batchSize int
	logger    *log.Logger
}

func NewBackupWorker(store BackupStore, writer sheets.BackupWriter, deleter sheets.BackupDeleter, batchSize int, logger *log.Logger) *BackupWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &BackupWorker{
		store:     store,
		writer:    writer,
		deleter:   deleter,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentBackup),
	}
}

// HandleEvent processes one expense change event. Returning an error
// requeues the event on the broker.
func (w *BackupWorker) HandleEvent(ctx context.Context, msg *amqp.ExpenseEventMessage) error {
	switch msg.Action {
	case amqp.ActionCreated:
		return w.backupExpense(ctx, msg.ID)
	case amqp.ActionDeleted:
		return w.removeBackup(ctx, msg.ID)
	default:
		// Unknown actions are dropped, not requeued.
		w.logger.WarnContext(ctx, "ignoring unknown event action",
			log.FieldExpenseID, msg.ID, "action", msg.Action)
		return nil
	}
}

func (w *BackupWorker) backupExpense(ctx context.Context, id int64) error {
	expense, err := w.store.GetExpenseByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted before the event was processed.
		w.logger.WarnContext(ctx, "expense vanished before backup", log.FieldExpenseID, id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense: %w", err)
	}

	ref, err := w.writer.AppendExpense(ctx, *expense)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, id); markErr != nil {
			w.logger.ErrorContext(ctx, "failed to mark sync error",
				log.FieldExpenseID, id, log.FieldError, markErr)
		}
		return fmt.Errorf("append to backup: %w", err)
	}

	if err := w.store.MarkSynced(ctx, id); err != nil {
		// The backup itself succeeded; log and move on.
		w.logger.ErrorContext(ctx, "failed to mark synced",
			log.FieldExpenseID, id, log.FieldError, err)
	}

	w.logger.InfoContext(ctx, "expense backed up",
		log.FieldExpenseID, id, "row_ref", ref)
	return nil
}

func (w *BackupWorker) removeBackup(ctx context.Context, id int64) error {
	if w.deleter == nil {
		w.logger.WarnContext(ctx, "no backup deleter configured, skipping",
			log.FieldExpenseID, id)
		return nil
	}
	if err := w.deleter.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete backup row: %w", err)
	}
	w.logger.InfoContext(ctx, "backup row removed", log.FieldExpenseID, id)
	return nil
}

// ProcessPending sweeps rows the event stream missed. Failed rows are
// marked and skipped; the sweep itself only fails when the pending
// query does.
func (w *BackupWorker) ProcessPending(ctx context.Context) error {
	return w.processPendingBatch(ctx, w.batchSize)
}

// StartupCheck runs a larger sweep once at worker startup to recover
// from downtime.
func (w *BackupWorker) StartupCheck(ctx context.Context) error {
	return w.processPendingBatch(ctx, w.batchSize*5)
}

func (w *BackupWorker) processPendingBatch(ctx context.Context, limit int) error {
	ids, err := w.store.PendingBackups(ctx, limit)
	if err != nil {
		return fmt.Errorf("get pending backups: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "processing pending backups", "count", len(ids))

	synced := 0
	for _, id := range ids {
		if err := w.backupExpense(ctx, id); err != nil {
			w.logger.ErrorContext(ctx, "failed to back up expense",
				log.FieldExpenseID, id, log.FieldError, err)
			continue
		}
		synced++
	}

	w.logger.InfoContext(ctx, "pending sweep completed",
		"total", len(ids), "synced", synced, "errors", len(ids)-synced)
	return nil
}
