package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventDeliveryStatus represents the delivery state of an emitted settlement event.
type EventDeliveryStatus string

const (
	EventDeliveryPending   EventDeliveryStatus = "PENDING"
	EventDeliveryDelivered EventDeliveryStatus = "DELIVERED"
	EventDeliveryFailed    EventDeliveryStatus = "FAILED"
)

// EventDeliveryLog records each settlement event handed to the sink, one row
// per first-time terminal transition. The log is the audit trail that the
// "exactly one emission" property can be checked against.
type EventDeliveryLog struct {
	ID          uuid.UUID           `json:"id"`
	ReferenceID string              `json:"reference_id"`
	Payload     []byte              `json:"payload"` // serialized SettlementEvent
	Status      EventDeliveryStatus `json:"status"`
	Attempt     int                 `json:"attempt"`
	LastError   *string             `json:"last_error,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}
