package dto

// CreateTransactionRequest is the request body for transaction creation.
type CreateTransactionRequest struct {
	Kind       string  `json:"kind" binding:"required,oneof=TRANSFER SUBSCRIPTION_PURCHASE WITHDRAWAL"`
	SenderID   *int64  `json:"sender_id,omitempty" binding:"omitempty,gt=0"`
	ReceiverID int64   `json:"receiver_id" binding:"required,gt=0"`
	Amount     int64   `json:"amount" binding:"required,gt=0"`
	Currency   string  `json:"currency" binding:"required,len=3"`
	Method     string  `json:"method" binding:"required,oneof=cardgate paywave"`
	PlanType   *string `json:"plan_type,omitempty" binding:"omitempty,oneof=MONTHLY YEARLY"`
	PayerRef   string  `json:"payer_ref,omitempty" binding:"omitempty,max=100"`
	Notes      *string `json:"notes,omitempty" binding:"omitempty,max=500"`
}

// RefundRequest is the request body for refund initiation. A zero or absent
// amount means a full refund.
type RefundRequest struct {
	Amount int64  `json:"amount,omitempty"`
	Reason string `json:"reason" binding:"required,max=255"`
}

// TransactionResponse is the wire form of a transaction.
type TransactionResponse struct {
	ID            string  `json:"id"`
	ReferenceID   string  `json:"reference_id"`
	SenderID      *int64  `json:"sender_id,omitempty"`
	ReceiverID    int64   `json:"receiver_id"`
	Amount        int64   `json:"amount"`
	Currency      string  `json:"currency"`
	Kind          string  `json:"kind"`
	Status        string  `json:"status"`
	Method        string  `json:"method"`
	ProviderTxnID *string `json:"provider_txn_id,omitempty"`
	PlanType      *string `json:"plan_type,omitempty"`
	CreatedAt     string  `json:"created_at"`
	SettledAt     *string `json:"settled_at,omitempty"`
}

// CreateTransactionResponse pairs the pending transaction with the provider
// redirect the client follows to pay.
type CreateTransactionResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	RedirectURL string              `json:"redirect_url,omitempty"`
	FormFields  map[string]string   `json:"form_fields,omitempty"`
}

// BalanceResponse is the response for a balance query.
type BalanceResponse struct {
	UserID   int64  `json:"user_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// SubscriptionResponse is the wire form of a subscription.
type SubscriptionResponse struct {
	ID        string `json:"id"`
	UserID    int64  `json:"user_id"`
	PlanType  string `json:"plan_type"`
	Status    string `json:"status"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}
