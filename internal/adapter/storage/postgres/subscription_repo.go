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

const subColumns = `id, user_id, plan_type, status, start_date, end_date, auto_renew, created_at, updated_at`

// SubscriptionRepo implements ports.SubscriptionRepository. A partial unique
// index (user_id) WHERE status = 'ACTIVE' enforces at most one active row.
type SubscriptionRepo struct {
	pool Pool
}

// NewSubscriptionRepo creates a new SubscriptionRepo.
func NewSubscriptionRepo(pool Pool) *SubscriptionRepo {
	return &SubscriptionRepo{pool: pool}
}

// Insert creates a subscription row within a database transaction.
func (r *SubscriptionRepo) Insert(ctx context.Context, tx pgx.Tx, s *domain.Subscription) error {
	query := `INSERT INTO subscriptions (id, user_id, plan_type, status, start_date, end_date, auto_renew, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		s.ID, s.UserID, s.PlanType, s.Status, s.StartDate, s.EndDate,
		s.AutoRenew, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// GetActive fetches the user's active subscription without locking.
func (r *SubscriptionRepo) GetActive(ctx context.Context, userID int64) (*domain.Subscription, error) {
	query := fmt.Sprintf(`SELECT %s FROM subscriptions WHERE user_id = $1 AND status = 'ACTIVE'`, subColumns)
	return scanSubscription(r.pool.QueryRow(ctx, query, userID))
}

// GetActiveForUpdate locks the user's active subscription row so a concurrent
// repurchase serializes behind it.
func (r *SubscriptionRepo) GetActiveForUpdate(ctx context.Context, tx pgx.Tx, userID int64) (*domain.Subscription, error) {
	query := fmt.Sprintf(`SELECT %s FROM subscriptions WHERE user_id = $1 AND status = 'ACTIVE' FOR UPDATE`, subColumns)
	return scanSubscription(tx.QueryRow(ctx, query, userID))
}

// UpdateStatus updates a subscription's status within a database transaction.
func (r *SubscriptionRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.SubscriptionStatus) error {
	query := `UPDATE subscriptions SET status = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update subscription status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subscription not found: %s", id)
	}
	return nil
}

// SetPremium flips the user's denormalized premium flag within a database
// transaction.
func (r *SubscriptionRepo) SetPremium(ctx context.Context, tx pgx.Tx, userID int64, premium bool) error {
	query := `UPDATE users SET is_premium = $1 WHERE id = $2`

	if _, err := tx.Exec(ctx, query, premium, userID); err != nil {
		return fmt.Errorf("set premium flag: %w", err)
	}
	return nil
}

// ExpireDue transitions lapsed ACTIVE rows to EXPIRED and clears the users'
// denormalized premium flag in the same database transaction. Re-running when
// nothing has lapsed affects zero rows.
func (r *SubscriptionRepo) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin expire tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	expireQuery := `UPDATE subscriptions SET status = 'EXPIRED', updated_at = NOW()
		WHERE status = 'ACTIVE' AND end_date < $1
		RETURNING user_id`

	rows, err := tx.Query(ctx, expireQuery, now)
	if err != nil {
		return 0, fmt.Errorf("expire due subscriptions: %w", err)
	}
	var userIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan expired user id: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate expired rows: %w", err)
	}

	if len(userIDs) > 0 {
		flagQuery := `UPDATE users SET is_premium = FALSE WHERE id = ANY($1)
			AND NOT EXISTS (SELECT 1 FROM subscriptions s WHERE s.user_id = users.id AND s.status = 'ACTIVE')`
		if _, err := tx.Exec(ctx, flagQuery, userIDs); err != nil {
			return 0, fmt.Errorf("clear premium flags: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit expire tx: %w", err)
	}
	return int64(len(userIDs)), nil
}

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	s := &domain.Subscription{}
	err := row.Scan(
		&s.ID, &s.UserID, &s.PlanType, &s.Status, &s.StartDate, &s.EndDate,
		&s.AutoRenew, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan subscription: %w", err)
	}
	return s, nil
}
