package ports

import (
	"context"
	"time"

	"peerpay-settlement/internal/core/domain"
)

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

// --- Infrastructure ports ---

// SettleCache is the redis fast path for settle replays. The authoritative
// guard is the SettlementRecord row; the cache only short-circuits duplicates.
type SettleCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // nil, nil on miss
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// SignatureService handles HMAC signing and verification of payloads, used by
// gateway adapters and the event dispatcher.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
}

// EventSink receives exactly one event per first-time terminal transition.
type EventSink interface {
	Emit(ctx context.Context, event domain.SettlementEvent) error
}

// --- Service ports (business logic) ---

// CreateTransactionRequest holds validated input for transaction creation.
type CreateTransactionRequest struct {
	Kind       domain.TransactionKind
	SenderID   *int64 // nil for externally funded credits
	ReceiverID int64
	Amount     int64
	Currency   string
	Method     domain.PaymentMethod
	PlanType   *domain.PlanType // required when Kind is SUBSCRIPTION_PURCHASE
	PayerRef   string
	Notes      *string
}

// CreateTransactionResult pairs the pending transaction with the provider
// initiation payload the client follows.
type CreateTransactionResult struct {
	Transaction *domain.Transaction
	Initiation  *Initiation
}

// ReconcileReport summarizes one reconciliation sweep.
type ReconcileReport struct {
	Scanned      int
	Settled      int
	StillPending int
	Reapplied    int
	Errors       int
}

// SettlementService is the state machine driver. It is invoked concurrently
// from webhook delivery and synchronous verify calls; the conditional
// transition inside Settle is the sole arbiter of which caller wins.
type SettlementService interface {
	Create(ctx context.Context, req CreateTransactionRequest) (*CreateTransactionResult, error)
	// Settle transitions the transaction exactly once into a terminal state
	// and applies side effects only for the winning transition. Duplicate
	// deliveries return the already-committed transaction, never an error.
	Settle(ctx context.Context, referenceID string, outcome Outcome, idempotencyToken string) (*domain.Transaction, error)
	// Verify pulls the provider's current status for the transaction and,
	// when terminal, feeds it through Settle. Used by the user's return
	// redirect; safe to call any number of times.
	Verify(ctx context.Context, referenceID string) (*domain.Transaction, error)
	// Cancel is the owner-initiated PENDING -> CANCELLED transition, subject
	// to the same race rules as Settle.
	Cancel(ctx context.Context, referenceID string) (*domain.Transaction, error)
	// Refund drives COMPLETED -> REFUND_PENDING -> REFUNDED through the
	// provider's refund API.
	Refund(ctx context.Context, referenceID string, amount int64, reason string) (*domain.Transaction, error)
	// Reconcile re-queries the provider for stale PENDING transactions and
	// feeds results through Settle; it also re-drives unapplied side effects.
	Reconcile(ctx context.Context, maxAge time.Duration) (*ReconcileReport, error)
}

// LedgerService owns per-user balances and atomic transfer application.
type LedgerService interface {
	// Apply debits sender and credits receiver in one atomic step (credit
	// only when there is no sender). recordEventID names the settlement
	// record whose applied flag guards replay, so calling Apply repeatedly
	// for the same transition moves money exactly once.
	Apply(ctx context.Context, txn *domain.Transaction, recordEventID string) error
	// Reverse returns the money of a refunded transaction, guarded by the
	// refund settlement record.
	Reverse(ctx context.Context, txn *domain.Transaction) error
	GetBalance(ctx context.Context, userID int64) (*domain.Balance, error)
}

// SubscriptionService derives subscription state from settled transactions.
type SubscriptionService interface {
	// Activate grants a fresh entitlement window, cancelling any prior
	// active subscription in the same atomic step.
	Activate(ctx context.Context, userID int64, plan domain.PlanType) (*domain.Subscription, error)
	// ExpireDue is the periodic idempotent sweep over lapsed subscriptions.
	ExpireDue(ctx context.Context) (int64, error)
}
