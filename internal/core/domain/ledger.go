package domain

import "time"

// Balance is a user's running ledger balance. Balances never go negative:
// every debit is checked against the locked row at apply time.
type Balance struct {
	UserID    int64     `json:"user_id"`
	Amount    int64     `json:"amount"` // smallest currency unit
	Currency  string    `json:"currency"`
	UpdatedAt time.Time `json:"updated_at"`
}
