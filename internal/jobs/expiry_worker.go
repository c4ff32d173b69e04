package jobs

import (
	"context"

	"peerpay-settlement/internal/core/ports"

	"github.com/riverqueue/river"
	"github.com/rs/zerolog"
)

// ExpireSubscriptionsJobArgs triggers one subscription expiry sweep.
type ExpireSubscriptionsJobArgs struct{}

func (ExpireSubscriptionsJobArgs) Kind() string { return "subscription_expiry" }

// ExpireSubscriptionsWorker transitions lapsed subscriptions to EXPIRED.
// Re-running with nothing due is a no-op.
type ExpireSubscriptionsWorker struct {
	river.WorkerDefaults[ExpireSubscriptionsJobArgs]
	subs ports.SubscriptionService
	log  zerolog.Logger
}

// NewExpireSubscriptionsWorker creates an ExpireSubscriptionsWorker.
func NewExpireSubscriptionsWorker(subs ports.SubscriptionService, log zerolog.Logger) *ExpireSubscriptionsWorker {
	return &ExpireSubscriptionsWorker{subs: subs, log: log}
}

func (w *ExpireSubscriptionsWorker) Work(ctx context.Context, _ *river.Job[ExpireSubscriptionsJobArgs]) error {
	n, err := w.subs.ExpireDue(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		w.log.Info().Int64("expired", n).Msg("subscription expiry sweep finished")
	}
	return nil
}
