package postgres

import (
	"context"
	"fmt"

	"peerpay-settlement/internal/core/domain"

	"github.com/google/uuid"
)

// EventLogRepo persists settlement event delivery attempts.
type EventLogRepo struct {
	pool Pool
}

// NewEventLogRepo creates a new EventLogRepo.
func NewEventLogRepo(pool Pool) *EventLogRepo {
	return &EventLogRepo{pool: pool}
}

// Create inserts a delivery log row.
func (r *EventLogRepo) Create(ctx context.Context, log *domain.EventDeliveryLog) error {
	query := `INSERT INTO event_delivery_logs (id, reference_id, payload, status, attempt, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		log.ID, log.ReferenceID, log.Payload, log.Status,
		log.Attempt, log.LastError, log.CreatedAt, log.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event delivery log: %w", err)
	}
	return nil
}

// UpdateDelivery records the outcome of a delivery attempt.
func (r *EventLogRepo) UpdateDelivery(ctx context.Context, id uuid.UUID, status domain.EventDeliveryStatus, attempt int, lastError *string) error {
	query := `UPDATE event_delivery_logs SET status = $1, attempt = $2, last_error = $3, updated_at = NOW() WHERE id = $4`

	tag, err := r.pool.Exec(ctx, query, status, attempt, lastError, id)
	if err != nil {
		return fmt.Errorf("update event delivery log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("event delivery log not found: %s", id)
	}
	return nil
}
