package domain

import (
	"time"

	"github.com/google/uuid"
)

// SettlementRecord proves that a given (transaction, outcome) pair has been
// applied. It is inserted in the same database transaction as the winning
// status transition and later guards side-effect replay: LedgerApplied flips
// true only once the balance mutation has committed.
type SettlementRecord struct {
	ReferenceID     string            `json:"reference_id"`
	EventID         string            `json:"event_id"` // provider event id, or "" when the provider has none
	TransactionID   uuid.UUID         `json:"transaction_id"`
	Status          TransactionStatus `json:"status"`
	ResponseJSON    []byte            `json:"response_json"` // transaction snapshot; refund records carry the refund amount
	LedgerApplied   bool              `json:"ledger_applied"`
	RedriveAttempts int               `json:"redrive_attempts"`
	AppliedAt       *time.Time        `json:"applied_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// MaxLedgerRedrives bounds how often the reconcile sweep retries an unapplied
// record before holding it for manual review.
const MaxLedgerRedrives = 5

// RefundEventID is the synthetic event id under which a transaction's refund
// settlement record is stored. A transaction refunds at most once, so the
// constant key dedupes concurrent refund attempts.
const RefundEventID = "refund"

// SettlementKey builds the idempotency key for a settlement attempt. Providers
// that supply a monotonic event id get per-event granularity; the rest key on
// the reference alone.
func SettlementKey(referenceID, eventID string) string {
	if eventID == "" {
		return referenceID
	}
	return referenceID + ":" + eventID
}

// RefundKey builds the idempotency key guarding the ledger reversal of a refund.
func RefundKey(referenceID string) string {
	return referenceID + ":" + RefundEventID
}
