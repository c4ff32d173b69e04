package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"peerpay-settlement/internal/core/domain"
	"peerpay-settlement/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// eventRetryIntervals paces redelivery of a failed settlement event.
var eventRetryIntervals = []time.Duration{
	15 * time.Second,
	60 * time.Second,
	5 * time.Minute,
}

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// EventDispatcher implements ports.EventSink by POSTing signed settlement
// events to a downstream consumer. Emit is called exactly once per first-time
// terminal transition; the delivery log row is created before the first
// attempt so an event is never silently lost.
type EventDispatcher struct {
	logRepo    ports.EventLogRepository
	sigSvc     ports.SignatureService
	httpClient HTTPClient
	sinkURL    string
	secret     string
	log        zerolog.Logger

	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
}

// NewEventDispatcher creates a new EventDispatcher. An empty sinkURL disables
// delivery; events are still logged.
func NewEventDispatcher(
	logRepo ports.EventLogRepository,
	sigSvc ports.SignatureService,
	httpClient HTTPClient,
	sinkURL string,
	secret string,
	log zerolog.Logger,
) *EventDispatcher {
	return &EventDispatcher{
		logRepo:    logRepo,
		sigSvc:     sigSvc,
		httpClient: httpClient,
		sinkURL:    sinkURL,
		secret:     secret,
		log:        log,
		done:       make(chan struct{}),
	}
}

// Emit records the event and hands it to the sink. Delivery retries run in the
// background; Emit only fails when the delivery log insert fails, because the
// log row is what proves the emission happened.
func (d *EventDispatcher) Emit(ctx context.Context, event domain.SettlementEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal settlement event: %w", err)
	}

	now := time.Now().UTC()
	entry := &domain.EventDeliveryLog{
		ID:          uuid.New(),
		ReferenceID: event.ReferenceID,
		Payload:     payload,
		Status:      domain.EventDeliveryPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := d.logRepo.Create(ctx, entry); err != nil {
		return fmt.Errorf("create event delivery log: %w", err)
	}

	if d.sinkURL == "" {
		d.log.Debug().Str("reference_id", event.ReferenceID).Msg("event sink disabled, logged only")
		return nil
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliverWithRetries(entry.ID, event.ReferenceID, payload)
	}()
	return nil
}

// Close interrupts pending retry waits and blocks until in-flight deliveries
// have recorded their state or ctx expires. The delivery log keeps anything
// undelivered re-drivable after a restart.
func (d *EventDispatcher) Close(ctx context.Context) error {
	d.closeOnce.Do(func() { close(d.done) })

	drained := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// deliverWithRetries posts the signed payload until a 2xx lands or the retry
// schedule runs out, tracking each attempt on the delivery log row.
func (d *EventDispatcher) deliverWithRetries(logID uuid.UUID, referenceID string, payload []byte) {
	ctx := context.Background()

	for attempt := 1; attempt <= len(eventRetryIntervals)+1; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(eventRetryIntervals[attempt-2]):
			case <-d.done:
				msg := "shutdown before redelivery"
				if uerr := d.logRepo.UpdateDelivery(ctx, logID, domain.EventDeliveryPending, attempt-1, &msg); uerr != nil {
					d.log.Error().Err(uerr).Str("reference_id", referenceID).Msg("event: failed to record shutdown")
				}
				d.log.Warn().Str("reference_id", referenceID).Msg("event delivery interrupted by shutdown")
				return
			}
		}

		status, err := d.post(payload)
		if err == nil && status >= 200 && status < 300 {
			if uerr := d.logRepo.UpdateDelivery(ctx, logID, domain.EventDeliveryDelivered, attempt, nil); uerr != nil {
				d.log.Error().Err(uerr).Str("reference_id", referenceID).Msg("event: failed to record delivery")
			}
			d.log.Info().Str("reference_id", referenceID).Int("attempt", attempt).Msg("event delivered")
			return
		}

		msg := fmt.Sprintf("status %d", status)
		if err != nil {
			msg = err.Error()
		}
		if uerr := d.logRepo.UpdateDelivery(ctx, logID, domain.EventDeliveryPending, attempt, &msg); uerr != nil {
			d.log.Error().Err(uerr).Str("reference_id", referenceID).Msg("event: failed to record attempt")
		}
		d.log.Warn().Str("reference_id", referenceID).Int("attempt", attempt).Str("error", msg).Msg("event delivery failed, retrying")
	}

	final := "retry schedule exhausted"
	if uerr := d.logRepo.UpdateDelivery(ctx, logID, domain.EventDeliveryFailed, len(eventRetryIntervals)+1, &final); uerr != nil {
		d.log.Error().Err(uerr).Str("reference_id", referenceID).Msg("event: failed to record exhaustion")
	}
	d.log.Error().Str("reference_id", referenceID).Msg("event delivery abandoned")
}

func (d *EventDispatcher) post(payload []byte) (int, error) {
	ts := time.Now().Unix()
	sig := d.sigSvc.Sign(d.secret, fmt.Sprintf("%d.%s", ts, payload))

	req, err := http.NewRequest(http.MethodPost, d.sinkURL, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-PPS-Timestamp", strconv.FormatInt(ts, 10))
	req.Header.Set("X-PPS-Signature", sig)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
