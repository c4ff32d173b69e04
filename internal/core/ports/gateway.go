package ports

import (
	"context"

	"peerpay-settlement/internal/core/domain"
)

//go:generate mockgen -source=gateway.go -destination=mocks/mock_gateway.go -package=mocks

// OutcomeState is the normalized provider-reported result of a payment.
type OutcomeState string

const (
	OutcomeSucceeded OutcomeState = "SUCCEEDED"
	OutcomeFailed    OutcomeState = "FAILED"
	OutcomeCancelled OutcomeState = "CANCELLED"
	OutcomePending   OutcomeState = "PENDING"
)

// Outcome is the single shape every provider's verify response and async
// notification is normalized into. The engine never sees provider fields.
type Outcome struct {
	ReferenceID   string       // our reference carried through the provider round-trip
	State         OutcomeState
	Amount        int64 // provider-reported amount, smallest unit
	Currency      string
	ProviderTxnID string
	EventID       string // provider notification id, "" when the provider has none
}

// InitiateRequest carries everything a provider needs to begin a payment.
type InitiateRequest struct {
	ReferenceID string
	Amount      int64
	Currency    string
	PayerRef    string // provider-side payer hint (phone, card token holder id)
	Description string
	SuccessURL  string
	FailURL     string
	CancelURL   string
	NotifyURL   string
}

// Initiation is the redirect/form payload handed back to the client, plus the
// provider correlation id the engine records against the transaction.
type Initiation struct {
	RedirectURL string            `json:"redirect_url,omitempty"`
	FormFields  map[string]string `json:"form_fields,omitempty"`
	Correlation string            `json:"-"`
}

// RefundOutcome is the normalized provider response to a refund request.
type RefundOutcome struct {
	State            OutcomeState
	ProviderRefundID string
}

// GatewayAdapter normalizes one external payment provider behind a uniform
// contract. Initiate must be safely retryable: a mid-call failure leaves no
// transaction holding a dangling correlation. Verify is a read-only pull and
// may be retried freely; Initiate and Refund must not be auto-retried.
type GatewayAdapter interface {
	Method() domain.PaymentMethod
	Initiate(ctx context.Context, req InitiateRequest) (*Initiation, error)
	Verify(ctx context.Context, correlation string) (*Outcome, error)
	// ParseAsyncNotification validates authenticity of a provider-pushed
	// notification and converts it into an Outcome. A signature failure is
	// returned as apperror SET_003 and the payload is dropped upstream.
	ParseAsyncNotification(payload []byte, headers map[string]string) (*Outcome, error)
	Refund(ctx context.Context, providerTxnID string, amount int64, reason string) (*RefundOutcome, error)
}

// GatewayRegistry resolves the adapter for a payment method.
type GatewayRegistry interface {
	ForMethod(m domain.PaymentMethod) (GatewayAdapter, error)
}
