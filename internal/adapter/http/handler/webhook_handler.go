package handler

import (
	"io"

	"peerpay-settlement/internal/core/domain"
	"peerpay-settlement/internal/core/ports"
	"peerpay-settlement/pkg/apperror"
	"peerpay-settlement/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// WebhookHandler receives async provider notifications. Providers retry
// delivery on any non-2xx, so every path through here is idempotent.
type WebhookHandler struct {
	registry    ports.GatewayRegistry
	settlements ports.SettlementService
	log         zerolog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(registry ports.GatewayRegistry, settlements ports.SettlementService, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{registry: registry, settlements: settlements, log: log}
}

// Handle handles POST /webhooks/:method.
func (h *WebhookHandler) Handle(c *gin.Context) {
	method := domain.PaymentMethod(c.Param("method"))
	adapter, err := h.registry.ForMethod(method)
	if err != nil {
		response.Error(c, err)
		return
	}

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, apperror.Validation("cannot read notification body"))
		return
	}

	headers := make(map[string]string, len(c.Request.Header))
	for k, v := range c.Request.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	outcome, err := adapter.ParseAsyncNotification(payload, headers)
	if err != nil {
		// An unauthenticated payload is dropped, not processed. The 401
		// tells the provider's retry loop the delivery will never succeed.
		h.log.Warn().Err(err).Str("method", string(method)).Msg("notification rejected")
		response.Error(c, err)
		return
	}

	txn, err := h.settlements.Settle(c.Request.Context(), outcome.ReferenceID, *outcome, "")
	if err != nil {
		response.Error(c, err)
		return
	}

	h.log.Info().
		Str("reference_id", outcome.ReferenceID).
		Str("event_id", outcome.EventID).
		Str("status", string(txn.Status)).
		Msg("notification processed")
	response.OK(c, gin.H{"reference_id": txn.ReferenceID, "status": string(txn.Status)})
}
