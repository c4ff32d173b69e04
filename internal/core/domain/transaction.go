package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TransactionKind represents the business purpose of a money movement.
type TransactionKind string

const (
	KindTransfer             TransactionKind = "TRANSFER"
	KindSubscriptionPurchase TransactionKind = "SUBSCRIPTION_PURCHASE"
	KindWithdrawal           TransactionKind = "WITHDRAWAL"
	KindRefund               TransactionKind = "REFUND"
)

// TransactionStatus represents the lifecycle state of a transaction.
type TransactionStatus string

const (
	StatusPending       TransactionStatus = "PENDING"
	StatusCompleted     TransactionStatus = "COMPLETED"
	StatusFailed        TransactionStatus = "FAILED"
	StatusCancelled     TransactionStatus = "CANCELLED"
	StatusRefundPending TransactionStatus = "REFUND_PENDING"
	StatusRefunded      TransactionStatus = "REFUNDED"
)

// PaymentMethod identifies the external provider a transaction is routed through.
type PaymentMethod string

const (
	MethodCardGate PaymentMethod = "cardgate"
	MethodPayWave  PaymentMethod = "paywave"
)

// Transaction is the unit of settlement. Rows are never deleted; status only
// ever moves forward per CanTransition.
type Transaction struct {
	ID                 uuid.UUID         `json:"id"`
	ReferenceID        string            `json:"reference_id"`
	SenderID           *int64            `json:"sender_id,omitempty"` // nil for externally funded credits
	ReceiverID         int64             `json:"receiver_id"`
	Amount             int64             `json:"amount"` // smallest currency unit
	Currency           string            `json:"currency"`
	Kind               TransactionKind   `json:"kind"`
	Status             TransactionStatus `json:"status"`
	Method             PaymentMethod     `json:"method"`
	GatewayCorrelation *string           `json:"gateway_correlation,omitempty"` // write-once provider session id
	ProviderTxnID      *string           `json:"provider_txn_id,omitempty"`
	PlanType           *PlanType         `json:"plan_type,omitempty"` // set for subscription purchases
	Notes              *string           `json:"notes,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	SettledAt          *time.Time        `json:"settled_at,omitempty"`
}

// IsTerminal reports whether no further engine-driven transition can occur.
// REFUND_PENDING is not terminal: it still awaits the provider's refund result.
func (t *Transaction) IsTerminal() bool {
	switch t.Status {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// IsRefundable reports whether a refund may be initiated against this transaction.
func (t *Transaction) IsRefundable() bool {
	return t.Status == StatusCompleted && t.Kind != KindRefund
}

// CanTransition reports whether from -> to is a legal state machine edge.
// Only PENDING reaches a primary terminal state; the refund sub-machine is
// gated on COMPLETED.
func CanTransition(from, to TransactionStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusCompleted || to == StatusFailed || to == StatusCancelled
	case StatusCompleted:
		return to == StatusRefundPending
	case StatusRefundPending:
		return to == StatusRefunded
	}
	return false
}

// NewReferenceID generates a provider-correlatable reference, unique for the
// lifetime of the system and never reused.
func NewReferenceID() string {
	return "TXN-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
}
