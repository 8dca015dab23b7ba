// Package worker consumes expense sync messages and mirrors the records into
// the configured ledger backend.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"loadbook/internal/amqp"
	"loadbook/internal/cache"
	"loadbook/internal/core"
	"loadbook/internal/ledger"
	"loadbook/internal/services"
)

type SyncWorker struct {
	expenses services.ExpenseStore
	ledger   ledger.Appender

	// mirrored remembers id:version pairs already appended so broker
	// redeliveries do not duplicate ledger rows.
	mirrored *cache.LRUCache[string]
}

func NewSyncWorker(expenses services.ExpenseStore, appender ledger.Appender) *SyncWorker {
	return &SyncWorker{
		expenses: expenses,
		ledger:   appender,
		mirrored: cache.NewLRUCache[string](1024, time.Hour),
	}
}

// Mirrored exposes the dedupe cache for expiry sweeps.
func (w *SyncWorker) Mirrored() cache.Cleaner {
	return w.mirrored
}

// HandleSyncMessage processes one expense sync message. The message carries
// only id and version; the current record is always fetched from the
// database, so the row appended to the ledger reflects the latest edit.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ExpenseSyncMessage) error {
	key := fmt.Sprintf("%d:%d", msg.ID, msg.Version)
	if _, done := w.mirrored.Get(key); done {
		slog.DebugContext(ctx, "duplicate sync message ignored", "id", msg.ID, "version", msg.Version)
		return nil
	}

	rec, err := w.expenses.GetExpense(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Deleted between publish and consume. Nothing to mirror.
			slog.InfoContext(ctx, "expense gone before sync, dropping message",
				"id", msg.ID, "version", msg.Version)
			return nil
		}
		return fmt.Errorf("get expense %d: %w", msg.ID, err)
	}

	if rec.Version > msg.Version {
		// A newer save already queued its own message; let that one win.
		slog.InfoContext(ctx, "stale sync message superseded",
			"id", msg.ID, "message_version", msg.Version, "current_version", rec.Version)
		return nil
	}

	ref, err := w.ledger.Append(ctx, core.Resolve(rec))
	if err != nil {
		return fmt.Errorf("append expense %d to ledger: %w", msg.ID, err)
	}
	w.mirrored.Set(key, ref)

	slog.InfoContext(ctx, "expense mirrored to ledger",
		"id", rec.ID,
		"version", rec.Version,
		"category", rec.Category,
		"amount_cents", rec.Amount.Cents,
		"ledger_ref", ref)
	return nil
}

// StartupSync mirrors the current expense table once at worker startup.
// Recovers rows whose sync messages were lost while the worker was down; the
// ledger append is idempotent enough for an append-only audit trail.
func (w *SyncWorker) StartupSync(ctx context.Context, batchSize int) error {
	recs, err := w.expenses.GetExpensesForLoad(ctx, 0)
	if err != nil {
		return fmt.Errorf("fetch expenses for startup sync: %w", err)
	}
	if len(recs) == 0 {
		slog.InfoContext(ctx, "no expenses to sync on startup")
		return nil
	}

	synced, failed := 0, 0
	for i, rec := range recs {
		if batchSize > 0 && i >= batchSize {
			break
		}
		key := fmt.Sprintf("%d:%d", rec.ID, rec.Version)
		if _, done := w.mirrored.Get(key); done {
			continue
		}
		ref, err := w.ledger.Append(ctx, core.Resolve(rec))
		if err != nil {
			slog.ErrorContext(ctx, "startup sync append failed",
				"id", rec.ID, "error", err)
			failed++
			continue
		}
		w.mirrored.Set(key, ref)
		synced++
	}

	slog.InfoContext(ctx, "startup sync completed",
		"total", len(recs), "synced", synced, "errors", failed)
	return nil
}
