// Package jobs holds the periodic background workers: the reconciliation
// sweep and the subscription expiry sweep, both scheduled through River.
package jobs

import (
	"context"
	"time"

	"peerpay-settlement/internal/core/ports"

	"github.com/riverqueue/river"
	"github.com/rs/zerolog"
)

// ReconcileJobArgs triggers one reconciliation sweep.
type ReconcileJobArgs struct {
	MaxAge time.Duration `json:"max_age"`
}

func (ReconcileJobArgs) Kind() string { return "settlement_reconcile" }

// ReconcileWorker re-verifies stale pending transactions against their
// providers and re-drives unapplied ledger effects. The sweep is idempotent,
// so overlapping runs are harmless.
type ReconcileWorker struct {
	river.WorkerDefaults[ReconcileJobArgs]
	settlements ports.SettlementService
	log         zerolog.Logger
}

// NewReconcileWorker creates a ReconcileWorker.
func NewReconcileWorker(settlements ports.SettlementService, log zerolog.Logger) *ReconcileWorker {
	return &ReconcileWorker{settlements: settlements, log: log}
}

func (w *ReconcileWorker) Work(ctx context.Context, job *river.Job[ReconcileJobArgs]) error {
	report, err := w.settlements.Reconcile(ctx, job.Args.MaxAge)
	if err != nil {
		return err
	}
	w.log.Info().
		Int("scanned", report.Scanned).
		Int("settled", report.Settled).
		Int("still_pending", report.StillPending).
		Int("reapplied", report.Reapplied).
		Int("errors", report.Errors).
		Msg("reconciliation sweep finished")
	return nil
}
