package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"peerpay-settlement/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const txColumns = `id, reference_id, sender_id, receiver_id, amount, currency,
		kind, status, method, gateway_correlation, provider_txn_id, plan_type, notes, created_at, settled_at`

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a new pending transaction.
func (r *TransactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, reference_id, sender_id, receiver_id, amount, currency,
		kind, status, method, gateway_correlation, provider_txn_id, plan_type, notes, created_at, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.pool.Exec(ctx, query,
		t.ID, t.ReferenceID, t.SenderID, t.ReceiverID, t.Amount, t.Currency,
		t.Kind, t.Status, t.Method, t.GatewayCorrelation, t.ProviderTxnID,
		t.PlanType, t.Notes, t.CreatedAt, t.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a transaction by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE id = $1`, txColumns)
	return r.scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// GetByReference fetches a transaction by its externally exposed reference.
func (r *TransactionRepo) GetByReference(ctx context.Context, referenceID string) (*domain.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE reference_id = $1`, txColumns)
	return r.scanTransaction(r.pool.QueryRow(ctx, query, referenceID))
}

// Transition performs the atomic conditional status update. The rows-affected
// count is the arbiter: 1 means this caller won the race, 0 means the
// transaction already left the `from` state. settled_at is stamped only when
// entering a terminal state and only by the winning statement.
func (r *TransactionRepo) Transition(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to domain.TransactionStatus, providerTxnID *string) (bool, error) {
	query := `UPDATE transactions
		SET status = $1,
		    settled_at = COALESCE(settled_at, $2),
		    provider_txn_id = COALESCE(provider_txn_id, $3)
		WHERE id = $4 AND status = $5`

	tag, err := tx.Exec(ctx, query, to, time.Now().UTC(), providerTxnID, id, from)
	if err != nil {
		return false, fmt.Errorf("transition transaction status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SetGatewayCorrelation stores the provider session id once. A row whose
// correlation is already set to a different value is left untouched, which
// surfaces as a conflict error to the caller.
func (r *TransactionRepo) SetGatewayCorrelation(ctx context.Context, id uuid.UUID, correlation string) error {
	query := `UPDATE transactions SET gateway_correlation = $1
		WHERE id = $2 AND (gateway_correlation IS NULL OR gateway_correlation = $1)`

	tag, err := r.pool.Exec(ctx, query, correlation, id)
	if err != nil {
		return fmt.Errorf("set gateway correlation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("gateway correlation already set for transaction %s", id)
	}
	return nil
}

// ListStalePending returns PENDING transactions created before cutoff that
// have a gateway correlation to verify against.
func (r *TransactionRepo) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]domain.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions
		WHERE status = 'PENDING' AND created_at < $1 AND gateway_correlation IS NOT NULL
		ORDER BY created_at ASC LIMIT $2`, txColumns)

	rows, err := r.pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale pending: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		if err := rows.Scan(
			&t.ID, &t.ReferenceID, &t.SenderID, &t.ReceiverID, &t.Amount, &t.Currency,
			&t.Kind, &t.Status, &t.Method, &t.GatewayCorrelation, &t.ProviderTxnID,
			&t.PlanType, &t.Notes, &t.CreatedAt, &t.SettledAt,
		); err != nil {
			return nil, fmt.Errorf("scan stale pending row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stale pending rows: %w", err)
	}
	return txns, nil
}

func (r *TransactionRepo) scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.ReferenceID, &t.SenderID, &t.ReceiverID, &t.Amount, &t.Currency,
		&t.Kind, &t.Status, &t.Method, &t.GatewayCorrelation, &t.ProviderTxnID,
		&t.PlanType, &t.Notes, &t.CreatedAt, &t.SettledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}
