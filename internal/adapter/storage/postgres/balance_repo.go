package postgres

import (
	"context"
	"errors"
	"fmt"

	"peerpay-settlement/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// BalanceRepo implements ports.BalanceRepository.
type BalanceRepo struct {
	pool Pool
}

// NewBalanceRepo creates a new BalanceRepo.
func NewBalanceRepo(pool Pool) *BalanceRepo {
	return &BalanceRepo{pool: pool}
}

// Ensure inserts a zero balance row if the user has none yet.
func (r *BalanceRepo) Ensure(ctx context.Context, tx pgx.Tx, userID int64, currency string) error {
	query := `INSERT INTO balances (user_id, amount, currency, updated_at)
		VALUES ($1, 0, $2, NOW()) ON CONFLICT (user_id) DO NOTHING`

	if _, err := tx.Exec(ctx, query, userID, currency); err != nil {
		return fmt.Errorf("ensure balance row: %w", err)
	}
	return nil
}

// Get fetches a balance without locking.
func (r *BalanceRepo) Get(ctx context.Context, userID int64) (*domain.Balance, error) {
	query := `SELECT user_id, amount, currency, updated_at FROM balances WHERE user_id = $1`
	return scanBalance(r.pool.QueryRow(ctx, query, userID))
}

// GetForUpdate fetches a balance under a row lock. Must run inside a
// transaction; callers lock multiple users in ascending user id order.
func (r *BalanceRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, userID int64) (*domain.Balance, error) {
	query := `SELECT user_id, amount, currency, updated_at FROM balances WHERE user_id = $1 FOR UPDATE`
	return scanBalance(tx.QueryRow(ctx, query, userID))
}

// Adjust applies a signed delta to a locked balance row. The non-negative
// check constraint on the table is the last line of defense; the service
// checks funds on the locked row first.
func (r *BalanceRepo) Adjust(ctx context.Context, tx pgx.Tx, userID int64, delta int64) error {
	query := `UPDATE balances SET amount = amount + $1, updated_at = NOW() WHERE user_id = $2`

	tag, err := tx.Exec(ctx, query, delta, userID)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("balance row not found for user %d", userID)
	}
	return nil
}

func scanBalance(row pgx.Row) (*domain.Balance, error) {
	b := &domain.Balance{}
	err := row.Scan(&b.UserID, &b.Amount, &b.Currency, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan balance: %w", err)
	}
	return b, nil
}
