package ports

import (
	"context"
	"time"

	"peerpay-settlement/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

// TransactionRepository defines persistence for transactions. The conditional
// Transition is the sole serialization point for a transaction's lifecycle.
type TransactionRepository interface {
	Create(ctx context.Context, t *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByReference(ctx context.Context, referenceID string) (*domain.Transaction, error)
	// Transition performs the atomic conditional update
	// "SET status = to WHERE id = $1 AND status = from" and reports whether
	// this call won the race (exactly one caller sees true). settled_at is
	// stamped on the same row in the same statement.
	Transition(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to domain.TransactionStatus, providerTxnID *string) (bool, error)
	// SetGatewayCorrelation stores the provider session id. The write is
	// guarded so an existing different value is never overwritten.
	SetGatewayCorrelation(ctx context.Context, id uuid.UUID, correlation string) error
	// ListStalePending returns PENDING transactions created before the cutoff,
	// for the reconciliation sweep.
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]domain.Transaction, error)
}

// BalanceRepository defines persistence for per-user ledger balances.
// Methods taking pgx.Tx run inside a transaction block under row locks.
type BalanceRepository interface {
	// Ensure inserts a zero balance row if the user has none yet.
	Ensure(ctx context.Context, tx pgx.Tx, userID int64, currency string) error
	Get(ctx context.Context, userID int64) (*domain.Balance, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, userID int64) (*domain.Balance, error)
	// Adjust applies a signed delta to a locked balance row.
	Adjust(ctx context.Context, tx pgx.Tx, userID int64, delta int64) error
}

// SubscriptionRepository defines persistence for subscriptions. A partial
// unique index on (user_id) WHERE status = 'ACTIVE' backs the at-most-one
// invariant.
type SubscriptionRepository interface {
	Insert(ctx context.Context, tx pgx.Tx, s *domain.Subscription) error
	GetActive(ctx context.Context, userID int64) (*domain.Subscription, error)
	GetActiveForUpdate(ctx context.Context, tx pgx.Tx, userID int64) (*domain.Subscription, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.SubscriptionStatus) error
	// SetPremium flips the denormalized premium flag on the user row.
	SetPremium(ctx context.Context, tx pgx.Tx, userID int64, premium bool) error
	// ExpireDue transitions ACTIVE rows past their end date to EXPIRED and
	// clears the users' denormalized premium flag. Returns rows expired;
	// re-running with nothing due is a no-op.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// SettlementRecordRepository defines persistence for settlement idempotency
// records, keyed by (reference_id, event_id).
type SettlementRecordRepository interface {
	Create(ctx context.Context, tx pgx.Tx, rec *domain.SettlementRecord) error
	Get(ctx context.Context, referenceID, eventID string) (*domain.SettlementRecord, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, referenceID, eventID string) (*domain.SettlementRecord, error)
	MarkLedgerApplied(ctx context.Context, tx pgx.Tx, referenceID, eventID string) error
	// ListUnapplied returns records of committed transitions (completed
	// settlements and pending refunds) whose ledger side effects have not
	// landed yet, for the retry sweep. Records at the redrive cap are held
	// back for manual review.
	ListUnapplied(ctx context.Context, cutoff time.Time, limit int) ([]domain.SettlementRecord, error)
	// IncrementRedrive counts a failed sweep retry and returns the new total.
	IncrementRedrive(ctx context.Context, referenceID, eventID string) (int, error)
}

// EventLogRepository persists settlement event delivery attempts.
type EventLogRepository interface {
	Create(ctx context.Context, log *domain.EventDeliveryLog) error
	UpdateDelivery(ctx context.Context, id uuid.UUID, status domain.EventDeliveryStatus, attempt int, lastError *string) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
