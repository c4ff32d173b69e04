package domain

import "time"

// SettlementEvent is emitted exactly once per first-time terminal transition.
type SettlementEvent struct {
	ReferenceID string            `json:"reference_id"`
	Status      TransactionStatus `json:"status"`
	Kind        TransactionKind   `json:"kind"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	UserIDs     []int64           `json:"user_ids"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

// NewSettlementEvent builds the event for a transaction that just reached a
// terminal state.
func NewSettlementEvent(t *Transaction, at time.Time) SettlementEvent {
	users := make([]int64, 0, 2)
	if t.SenderID != nil {
		users = append(users, *t.SenderID)
	}
	users = append(users, t.ReceiverID)
	return SettlementEvent{
		ReferenceID: t.ReferenceID,
		Status:      t.Status,
		Kind:        t.Kind,
		Amount:      t.Amount,
		Currency:    t.Currency,
		UserIDs:     users,
		OccurredAt:  at,
	}
}
