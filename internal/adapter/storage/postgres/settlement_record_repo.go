package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"peerpay-settlement/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

const recordColumns = `reference_id, event_id, transaction_id, status, response_json, ledger_applied, redrive_attempts, applied_at, created_at`

// SettlementRecordRepo implements ports.SettlementRecordRepository.
type SettlementRecordRepo struct {
	pool Pool
}

// NewSettlementRecordRepo creates a new SettlementRecordRepo.
func NewSettlementRecordRepo(pool Pool) *SettlementRecordRepo {
	return &SettlementRecordRepo{pool: pool}
}

// Create inserts a settlement record inside the same database transaction as
// the status transition it proves.
func (r *SettlementRecordRepo) Create(ctx context.Context, tx pgx.Tx, rec *domain.SettlementRecord) error {
	query := `INSERT INTO settlement_records (reference_id, event_id, transaction_id, status, response_json, ledger_applied, redrive_attempts, applied_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		rec.ReferenceID, rec.EventID, rec.TransactionID, rec.Status,
		rec.ResponseJSON, rec.LedgerApplied, rec.RedriveAttempts, rec.AppliedAt, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert settlement record: %w", err)
	}
	return nil
}

// Get fetches a settlement record by its composite key.
func (r *SettlementRecordRepo) Get(ctx context.Context, referenceID, eventID string) (*domain.SettlementRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM settlement_records WHERE reference_id = $1 AND event_id = $2`, recordColumns)
	return scanRecord(r.pool.QueryRow(ctx, query, referenceID, eventID))
}

// GetForUpdate fetches a settlement record under a row lock so concurrent
// side-effect retries serialize on it.
func (r *SettlementRecordRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, referenceID, eventID string) (*domain.SettlementRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM settlement_records WHERE reference_id = $1 AND event_id = $2 FOR UPDATE`, recordColumns)
	return scanRecord(tx.QueryRow(ctx, query, referenceID, eventID))
}

// MarkLedgerApplied flips the applied flag in the same transaction as the
// balance mutation it records.
func (r *SettlementRecordRepo) MarkLedgerApplied(ctx context.Context, tx pgx.Tx, referenceID, eventID string) error {
	query := `UPDATE settlement_records SET ledger_applied = TRUE, applied_at = NOW()
		WHERE reference_id = $1 AND event_id = $2`

	tag, err := tx.Exec(ctx, query, referenceID, eventID)
	if err != nil {
		return fmt.Errorf("mark ledger applied: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("settlement record not found: %s", domain.SettlementKey(referenceID, eventID))
	}
	return nil
}

// ListUnapplied returns records of committed transitions (COMPLETED
// settlements and REFUND_PENDING refunds) whose ledger side effects have not
// committed, for the retry sweep. Records past the redrive cap stay out of
// the sweep and wait for manual review.
func (r *SettlementRecordRepo) ListUnapplied(ctx context.Context, cutoff time.Time, limit int) ([]domain.SettlementRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM settlement_records
		WHERE ledger_applied = FALSE AND status IN ('COMPLETED', 'REFUND_PENDING')
			AND redrive_attempts < %d AND created_at < $1
		ORDER BY created_at ASC LIMIT $2`, recordColumns, domain.MaxLedgerRedrives)

	rows, err := r.pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list unapplied records: %w", err)
	}
	defer rows.Close()

	var recs []domain.SettlementRecord
	for rows.Next() {
		rec := domain.SettlementRecord{}
		if err := rows.Scan(
			&rec.ReferenceID, &rec.EventID, &rec.TransactionID, &rec.Status,
			&rec.ResponseJSON, &rec.LedgerApplied, &rec.RedriveAttempts, &rec.AppliedAt, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan settlement record row: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settlement record rows: %w", err)
	}
	return recs, nil
}

// IncrementRedrive counts a failed sweep retry and returns the new total.
func (r *SettlementRecordRepo) IncrementRedrive(ctx context.Context, referenceID, eventID string) (int, error) {
	query := `UPDATE settlement_records SET redrive_attempts = redrive_attempts + 1
		WHERE reference_id = $1 AND event_id = $2
		RETURNING redrive_attempts`

	var attempts int
	if err := r.pool.QueryRow(ctx, query, referenceID, eventID).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("increment redrive attempts: %w", err)
	}
	return attempts, nil
}

func scanRecord(row pgx.Row) (*domain.SettlementRecord, error) {
	rec := &domain.SettlementRecord{}
	err := row.Scan(
		&rec.ReferenceID, &rec.EventID, &rec.TransactionID, &rec.Status,
		&rec.ResponseJSON, &rec.LedgerApplied, &rec.RedriveAttempts, &rec.AppliedAt, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan settlement record: %w", err)
	}
	return rec, nil
}
