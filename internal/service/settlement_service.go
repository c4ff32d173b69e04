package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"peerpay-settlement/config"
	"peerpay-settlement/internal/core/domain"
	"peerpay-settlement/internal/core/ports"
	"peerpay-settlement/pkg/apperror"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const settleCacheTTL = 24 * time.Hour

// SettlementServiceImpl implements ports.SettlementService. It is invoked
// concurrently from webhook delivery, user-driven verify calls, and the
// reconciliation sweep; the conditional status transition is the sole arbiter
// of which caller wins.
type SettlementServiceImpl struct {
	txRepo      ports.TransactionRepository
	recordRepo  ports.SettlementRecordRepository
	balanceRepo ports.BalanceRepository
	ledger      ports.LedgerService
	subs        ports.SubscriptionService
	registry    ports.GatewayRegistry
	cache       ports.SettleCache
	sink        ports.EventSink
	transactor  ports.DBTransactor
	cfg         config.SettlementConfig
	log         zerolog.Logger
}

// NewSettlementService creates a new SettlementServiceImpl.
func NewSettlementService(
	txRepo ports.TransactionRepository,
	recordRepo ports.SettlementRecordRepository,
	balanceRepo ports.BalanceRepository,
	ledger ports.LedgerService,
	subs ports.SubscriptionService,
	registry ports.GatewayRegistry,
	cache ports.SettleCache,
	sink ports.EventSink,
	transactor ports.DBTransactor,
	cfg config.SettlementConfig,
	log zerolog.Logger,
) *SettlementServiceImpl {
	return &SettlementServiceImpl{
		txRepo:      txRepo,
		recordRepo:  recordRepo,
		balanceRepo: balanceRepo,
		ledger:      ledger,
		subs:        subs,
		registry:    registry,
		cache:       cache,
		sink:        sink,
		transactor:  transactor,
		cfg:         cfg,
		log:         log,
	}
}

// Create registers a pending transaction and opens a provider session for it.
// The provider correlation is recorded only after the provider call succeeds,
// so a mid-call failure leaves no transaction holding a dangling correlation.
func (s *SettlementServiceImpl) Create(ctx context.Context, req ports.CreateTransactionRequest) (*ports.CreateTransactionResult, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.Currency == "" {
		return nil, apperror.Validation("currency is required")
	}
	if req.Kind == domain.KindSubscriptionPurchase && req.PlanType == nil {
		return nil, apperror.Validation("plan_type is required for subscription purchases")
	}

	adapter, err := s.registry.ForMethod(req.Method)
	if err != nil {
		return nil, err
	}

	// Non-authoritative pre-flight; the authoritative funds check happens at
	// settlement time because the balance can change in between.
	if req.SenderID != nil {
		bal, err := s.ledger.GetBalance(ctx, *req.SenderID)
		if err != nil {
			return nil, err
		}
		if bal.Amount < req.Amount {
			return nil, apperror.ErrInsufficientFunds()
		}
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:          uuid.New(),
		ReferenceID: domain.NewReferenceID(),
		SenderID:    req.SenderID,
		ReceiverID:  req.ReceiverID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Kind:        req.Kind,
		Status:      domain.StatusPending,
		Method:      req.Method,
		PlanType:    req.PlanType,
		Notes:       req.Notes,
		CreatedAt:   now,
	}
	if err := s.txRepo.Create(ctx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	init, err := adapter.Initiate(ctx, ports.InitiateRequest{
		ReferenceID: txn.ReferenceID,
		Amount:      txn.Amount,
		Currency:    txn.Currency,
		PayerRef:    req.PayerRef,
		Description: string(txn.Kind),
		SuccessURL:  s.cfg.ReturnBaseURL + "/api/v1/payments/return",
		FailURL:     s.cfg.ReturnBaseURL + "/api/v1/payments/return",
		CancelURL:   s.cfg.ReturnBaseURL + "/api/v1/payments/return",
		NotifyURL:   s.cfg.NotifyBaseURL + "/webhooks/" + string(req.Method),
	})
	if err != nil {
		// The row stays PENDING without a correlation; the reconciler skips
		// it and the caller may retry initiation under a new reference.
		s.log.Warn().Err(err).Str("reference_id", txn.ReferenceID).Msg("provider initiation failed")
		return nil, err
	}
	if err := s.txRepo.SetGatewayCorrelation(ctx, txn.ID, init.Correlation); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("record correlation: %w", err))
	}
	txn.GatewayCorrelation = &init.Correlation

	s.log.Info().
		Str("reference_id", txn.ReferenceID).
		Str("method", string(txn.Method)).
		Str("kind", string(txn.Kind)).
		Int64("amount", txn.Amount).
		Msg("transaction created")
	return &ports.CreateTransactionResult{Transaction: txn, Initiation: init}, nil
}

// Settle resolves a transaction against a provider outcome. Duplicate
// deliveries, in any order and from any path, return the already-committed
// transaction without re-applying side effects.
func (s *SettlementServiceImpl) Settle(ctx context.Context, referenceID string, outcome ports.Outcome, idempotencyToken string) (*domain.Transaction, error) {
	timer := prometheus.NewTimer(settleDuration.WithLabelValues(string(outcome.State)))
	defer timer.ObserveDuration()

	cacheKey := idempotencyToken
	if cacheKey == "" {
		cacheKey = domain.SettlementKey(referenceID, outcome.EventID)
	}

	// Layer 1: redis fast path for replays. Failures fall through to the DB.
	cached, err := s.cache.Get(ctx, cacheKey)
	if err != nil {
		s.log.Warn().Err(err).Str("key", cacheKey).Msg("settle cache check failed, falling through to DB")
	}
	if cached != nil {
		settleTotal.WithLabelValues(string(outcome.State), resolutionReplay).Inc()
		return unmarshalTransaction(cached)
	}

	txn, err := s.txRepo.GetByReference(ctx, referenceID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("transaction")
	}

	// Layer 2: the transaction's own status. A terminal row replays its
	// committed outcome no matter what the provider says now.
	if txn.Status != domain.StatusPending {
		settleTotal.WithLabelValues(string(txn.Status), resolutionReplay).Inc()
		return txn, nil
	}

	if outcome.State == ports.OutcomeSucceeded {
		if outcome.Amount != txn.Amount || (outcome.Currency != "" && outcome.Currency != txn.Currency) {
			// Never partially honor a mismatched amount; the row stays
			// PENDING for manual reconciliation.
			return nil, apperror.ErrAmountMismatch(txn.Amount, outcome.Amount)
		}
	}
	if outcome.State == ports.OutcomePending {
		return txn, nil
	}

	target := targetStatus(outcome.State)
	won, settled, err := s.transition(ctx, txn, target, outcome)
	if err != nil {
		return nil, err
	}
	if !won {
		// Lost the race: re-read and report the committed terminal state.
		current, err := s.txRepo.GetByReference(ctx, referenceID)
		if err != nil || current == nil {
			return nil, apperror.InternalError(fmt.Errorf("reload settled transaction: %w", err))
		}
		settleTotal.WithLabelValues(string(current.Status), resolutionLost).Inc()
		return current, nil
	}

	s.applySideEffects(ctx, settled, outcome.EventID)

	if resp, err := json.Marshal(settled); err == nil {
		if cerr := s.cache.Set(ctx, cacheKey, resp, settleCacheTTL); cerr != nil {
			s.log.Warn().Err(cerr).Str("key", cacheKey).Msg("failed to cache settle result")
		}
	}

	settleTotal.WithLabelValues(string(settled.Status), resolutionWon).Inc()
	s.log.Info().
		Str("reference_id", referenceID).
		Str("status", string(settled.Status)).
		Str("event_id", outcome.EventID).
		Msg("transaction settled")
	return settled, nil
}

// transition performs the atomic conditional PENDING -> terminal update and
// inserts the settlement record in the same database transaction. The funds
// check for internally funded transfers runs here under the sender's balance
// lock, so an insufficient balance lands the row in FAILED rather than
// completing a transfer the ledger cannot honor.
func (s *SettlementServiceImpl) transition(ctx context.Context, txn *domain.Transaction, target domain.TransactionStatus, outcome ports.Outcome) (bool, *domain.Transaction, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return false, nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if target == domain.StatusCompleted && txn.SenderID != nil {
		if err := s.balanceRepo.Ensure(ctx, dbTx, *txn.SenderID, txn.Currency); err != nil {
			return false, nil, apperror.InternalError(fmt.Errorf("ensure sender balance: %w", err))
		}
		bal, err := s.balanceRepo.GetForUpdate(ctx, dbTx, *txn.SenderID)
		if err != nil {
			return false, nil, apperror.InternalError(fmt.Errorf("lock sender balance: %w", err))
		}
		if bal == nil || bal.Amount < txn.Amount {
			target = domain.StatusFailed
		}
	}

	var providerTxnID *string
	if outcome.ProviderTxnID != "" {
		providerTxnID = &outcome.ProviderTxnID
	}
	won, err := s.txRepo.Transition(ctx, dbTx, txn.ID, domain.StatusPending, target, providerTxnID)
	if err != nil {
		return false, nil, apperror.InternalError(fmt.Errorf("transition: %w", err))
	}
	if !won {
		return false, nil, nil
	}

	now := time.Now().UTC()
	settled := *txn
	settled.Status = target
	settled.SettledAt = &now
	settled.ProviderTxnID = providerTxnID

	respJSON, err := json.Marshal(&settled)
	if err != nil {
		return false, nil, apperror.InternalError(fmt.Errorf("marshal settled transaction: %w", err))
	}
	rec := &domain.SettlementRecord{
		ReferenceID:   txn.ReferenceID,
		EventID:       outcome.EventID,
		TransactionID: txn.ID,
		Status:        target,
		ResponseJSON:  respJSON,
		CreatedAt:     now,
	}
	if err := s.recordRepo.Create(ctx, dbTx, rec); err != nil {
		return false, nil, apperror.InternalError(fmt.Errorf("create settlement record: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return false, nil, apperror.InternalError(fmt.Errorf("commit transition: %w", err))
	}
	return true, &settled, nil
}

// applySideEffects runs the winner-only effects after the transition has
// committed. Failures here are logged and left for the reconciliation sweep;
// the terminal status must not be rolled back, that would re-open the race.
func (s *SettlementServiceImpl) applySideEffects(ctx context.Context, txn *domain.Transaction, eventID string) {
	if txn.Status == domain.StatusCompleted {
		if err := s.ledger.Apply(ctx, txn, eventID); err != nil {
			s.log.Error().Err(err).Str("reference_id", txn.ReferenceID).Msg("ledger apply failed, left for reconciliation")
			reconcileSweeps.WithLabelValues("apply_deferred").Inc()
		} else {
			ledgerApplyTotal.WithLabelValues("apply").Inc()
		}

		if txn.Kind == domain.KindSubscriptionPurchase {
			userID := txn.ReceiverID
			if txn.SenderID != nil {
				userID = *txn.SenderID
			}
			if txn.PlanType == nil {
				s.log.Error().Str("reference_id", txn.ReferenceID).Msg("subscription purchase settled without plan type")
			} else if _, err := s.subs.Activate(ctx, userID, *txn.PlanType); err != nil {
				s.log.Error().Err(err).Str("reference_id", txn.ReferenceID).Msg("subscription activation failed, left for reconciliation")
			}
		}
	}

	event := domain.NewSettlementEvent(txn, time.Now().UTC())
	if err := s.sink.Emit(ctx, event); err != nil {
		s.log.Error().Err(err).Str("reference_id", txn.ReferenceID).Msg("settlement event emission failed")
	}
}

// Verify pulls the provider's current status and feeds a terminal outcome
// through Settle. The user returning from the provider's page races the
// provider's webhook here; whichever lands first wins the transition.
func (s *SettlementServiceImpl) Verify(ctx context.Context, referenceID string) (*domain.Transaction, error) {
	txn, err := s.txRepo.GetByReference(ctx, referenceID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("transaction")
	}
	if txn.Status != domain.StatusPending {
		return txn, nil
	}
	if txn.GatewayCorrelation == nil {
		// initiation never completed; nothing to ask the provider about
		return txn, nil
	}

	adapter, err := s.registry.ForMethod(txn.Method)
	if err != nil {
		return nil, err
	}
	outcome, err := adapter.Verify(ctx, *txn.GatewayCorrelation)
	if err != nil {
		return nil, err
	}
	if outcome.State == ports.OutcomePending {
		return txn, nil
	}
	return s.Settle(ctx, referenceID, *outcome, "")
}

// Cancel is the owner-initiated PENDING -> CANCELLED transition. A cancel
// racing a late completion loses the conditional update and reports the
// committed state rather than an error.
func (s *SettlementServiceImpl) Cancel(ctx context.Context, referenceID string) (*domain.Transaction, error) {
	return s.Settle(ctx, referenceID, ports.Outcome{
		ReferenceID: referenceID,
		State:       ports.OutcomeCancelled,
		EventID:     "cancel",
	}, domain.SettlementKey(referenceID, "cancel"))
}

// Refund drives COMPLETED -> REFUND_PENDING -> REFUNDED. The refund settlement
// record is inserted with the REFUND_PENDING transition and guards the ledger
// reversal, so concurrent refund attempts move money at most once. Calling
// Refund on a REFUND_PENDING transaction resumes it: the provider call,
// finishing transition, and reversal all run again, each deduped by its own
// guard, so a refund stranded by a provider failure stays re-drivable.
func (s *SettlementServiceImpl) Refund(ctx context.Context, referenceID string, amount int64, reason string) (*domain.Transaction, error) {
	txn, err := s.txRepo.GetByReference(ctx, referenceID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("transaction")
	}
	resuming := txn.Status == domain.StatusRefundPending
	if !txn.IsRefundable() && !resuming {
		if txn.Status == domain.StatusRefunded {
			return txn, nil
		}
		return nil, apperror.ErrInvalidTransition(string(txn.Status))
	}
	if amount == 0 {
		amount = txn.Amount
	}
	if amount < 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if amount > txn.Amount {
		return nil, apperror.ErrRefundAmountExceedsOriginal()
	}
	if txn.ProviderTxnID == nil {
		return nil, apperror.ErrInvalidTransition("no provider transaction recorded")
	}

	adapter, err := s.registry.ForMethod(txn.Method)
	if err != nil {
		return nil, err
	}

	var pending *domain.Transaction
	if resuming {
		p := *txn
		pending = &p
	} else {
		won, p, err := s.refundTransition(ctx, txn, amount)
		if err != nil {
			return nil, err
		}
		if !won {
			current, err := s.txRepo.GetByReference(ctx, referenceID)
			if err != nil || current == nil {
				return nil, apperror.InternalError(fmt.Errorf("reload transaction: %w", err))
			}
			return current, nil
		}
		pending = p
	}

	refund, err := adapter.Refund(ctx, *txn.ProviderTxnID, amount, reason)
	if err != nil {
		// REFUND_PENDING is held; a later Refund call or the reconcile
		// sweep resumes from here. Re-opening COMPLETED would race a
		// concurrent refund attempt.
		s.log.Error().Err(err).Str("reference_id", referenceID).Msg("provider refund call failed")
		return nil, err
	}
	if refund.State != ports.OutcomeSucceeded {
		s.log.Error().Str("reference_id", referenceID).Str("state", string(refund.State)).Msg("provider rejected refund")
		return nil, apperror.ErrGatewayRejected("refund not accepted")
	}

	refunded, won, err := s.finishRefund(ctx, pending)
	if err != nil {
		return nil, err
	}
	if !won {
		// a concurrent resume finished first and owns the side effects
		return refunded, nil
	}

	s.applyReversal(ctx, refunded, amount)

	event := domain.NewSettlementEvent(refunded, time.Now().UTC())
	if err := s.sink.Emit(ctx, event); err != nil {
		s.log.Error().Err(err).Str("reference_id", referenceID).Msg("refund event emission failed")
	}

	s.log.Info().
		Str("reference_id", referenceID).
		Int64("amount", amount).
		Msg("transaction refunded")
	return refunded, nil
}

// refundTransition performs COMPLETED -> REFUND_PENDING and inserts the refund
// settlement record atomically.
func (s *SettlementServiceImpl) refundTransition(ctx context.Context, txn *domain.Transaction, amount int64) (bool, *domain.Transaction, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return false, nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	won, err := s.txRepo.Transition(ctx, dbTx, txn.ID, domain.StatusCompleted, domain.StatusRefundPending, nil)
	if err != nil {
		return false, nil, apperror.InternalError(fmt.Errorf("refund transition: %w", err))
	}
	if !won {
		return false, nil, nil
	}

	now := time.Now().UTC()
	pending := *txn
	pending.Status = domain.StatusRefundPending

	// the snapshot carries the refund amount, not the original, so the
	// reconcile sweep knows how much to reverse
	snapshot := pending
	snapshot.Amount = amount
	respJSON, err := json.Marshal(&snapshot)
	if err != nil {
		return false, nil, apperror.InternalError(fmt.Errorf("marshal refund transaction: %w", err))
	}
	rec := &domain.SettlementRecord{
		ReferenceID:   txn.ReferenceID,
		EventID:       domain.RefundEventID,
		TransactionID: txn.ID,
		Status:        domain.StatusRefundPending,
		ResponseJSON:  respJSON,
		CreatedAt:     now,
	}
	if err := s.recordRepo.Create(ctx, dbTx, rec); err != nil {
		return false, nil, apperror.InternalError(fmt.Errorf("create refund record: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return false, nil, apperror.InternalError(fmt.Errorf("commit refund transition: %w", err))
	}
	return true, &pending, nil
}

// finishRefund performs REFUND_PENDING -> REFUNDED after the provider accepted
// and reports whether this call won the transition.
func (s *SettlementServiceImpl) finishRefund(ctx context.Context, txn *domain.Transaction) (*domain.Transaction, bool, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	won, err := s.txRepo.Transition(ctx, dbTx, txn.ID, domain.StatusRefundPending, domain.StatusRefunded, nil)
	if err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("finish refund: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("commit refund: %w", err))
	}
	if !won {
		current, err := s.txRepo.GetByReference(ctx, txn.ReferenceID)
		if err != nil || current == nil {
			return nil, false, apperror.InternalError(fmt.Errorf("reload refunded transaction: %w", err))
		}
		return current, false, nil
	}

	refunded := *txn
	refunded.Status = domain.StatusRefunded
	return &refunded, true, nil
}

// applyReversal returns the refunded money, guarded by the refund record.
func (s *SettlementServiceImpl) applyReversal(ctx context.Context, txn *domain.Transaction, amount int64) {
	reversal := *txn
	reversal.Amount = amount
	if err := s.ledger.Reverse(ctx, &reversal); err != nil {
		s.log.Error().Err(err).Str("reference_id", txn.ReferenceID).Msg("ledger reversal failed, left for reconciliation")
		reconcileSweeps.WithLabelValues("reverse_deferred").Inc()
		return
	}
	ledgerApplyTotal.WithLabelValues("reverse").Inc()
}

// Reconcile is the periodic sweep. It re-verifies stale PENDING transactions
// against their providers and feeds results through Settle, then re-drives
// committed transitions whose ledger application never landed.
func (s *SettlementServiceImpl) Reconcile(ctx context.Context, maxAge time.Duration) (*ports.ReconcileReport, error) {
	report := &ports.ReconcileReport{}
	cutoff := time.Now().UTC().Add(-maxAge)

	stale, err := s.txRepo.ListStalePending(ctx, cutoff, s.cfg.SweepLimit)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list stale pending: %w", err))
	}
	for i := range stale {
		txn := &stale[i]
		report.Scanned++

		if txn.GatewayCorrelation == nil {
			// initiation never completed; there is no provider session to ask
			report.StillPending++
			continue
		}
		adapter, err := s.registry.ForMethod(txn.Method)
		if err != nil {
			report.Errors++
			s.log.Error().Err(err).Str("reference_id", txn.ReferenceID).Msg("reconcile: no adapter")
			continue
		}
		outcome, err := adapter.Verify(ctx, *txn.GatewayCorrelation)
		if err != nil {
			report.Errors++
			reconcileSweeps.WithLabelValues("verify_error").Inc()
			s.log.Warn().Err(err).Str("reference_id", txn.ReferenceID).Msg("reconcile: verify failed")
			continue
		}
		if outcome.State == ports.OutcomePending {
			report.StillPending++
			reconcileSweeps.WithLabelValues("still_pending").Inc()
			continue
		}

		if _, err := s.Settle(ctx, txn.ReferenceID, *outcome, "reconcile:"+txn.ReferenceID); err != nil {
			report.Errors++
			reconcileSweeps.WithLabelValues("settle_error").Inc()
			s.log.Error().Err(err).Str("reference_id", txn.ReferenceID).Msg("reconcile: settle failed")
			continue
		}
		report.Settled++
		reconcileSweeps.WithLabelValues("settled").Inc()
	}

	if err := s.redriveUnapplied(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// redriveUnapplied retries the missing side effects of committed transitions:
// ledger application for COMPLETED records and the full refund tail for
// REFUND_PENDING records. Each failed retry counts toward the redrive cap,
// after which the record is held for manual review.
func (s *SettlementServiceImpl) redriveUnapplied(ctx context.Context, report *ports.ReconcileReport) error {
	unapplied, err := s.recordRepo.ListUnapplied(ctx, time.Now().UTC(), s.cfg.SweepLimit)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("list unapplied records: %w", err))
	}
	for i := range unapplied {
		rec := &unapplied[i]
		txn, err := s.txRepo.GetByReference(ctx, rec.ReferenceID)
		if err != nil || txn == nil {
			report.Errors++
			s.log.Error().Err(err).Str("reference_id", rec.ReferenceID).Msg("reconcile: unapplied record without transaction")
			continue
		}
		if rec.EventID == domain.RefundEventID {
			s.redriveRefund(ctx, rec, txn, report)
			continue
		}
		if err := s.ledger.Apply(ctx, txn, rec.EventID); err != nil {
			report.Errors++
			reconcileSweeps.WithLabelValues("reapply_error").Inc()
			s.noteRedrive(ctx, rec)
			s.log.Error().Err(err).Str("reference_id", rec.ReferenceID).Msg("reconcile: ledger re-apply failed")
			continue
		}
		report.Reapplied++
		reconcileSweeps.WithLabelValues("reapplied").Inc()

		// A re-driven subscription purchase may also have missed activation.
		if txn.Kind == domain.KindSubscriptionPurchase && txn.PlanType != nil {
			userID := txn.ReceiverID
			if txn.SenderID != nil {
				userID = *txn.SenderID
			}
			if _, err := s.subs.Activate(ctx, userID, *txn.PlanType); err != nil {
				s.log.Error().Err(err).Str("reference_id", rec.ReferenceID).Msg("reconcile: subscription re-activation failed")
			}
		}
	}
	return nil
}

// redriveRefund finishes a refund whose tail never landed. The record's
// snapshot carries the refund amount.
func (s *SettlementServiceImpl) redriveRefund(ctx context.Context, rec *domain.SettlementRecord, txn *domain.Transaction, report *ports.ReconcileReport) {
	var snap domain.Transaction
	if err := json.Unmarshal(rec.ResponseJSON, &snap); err != nil {
		report.Errors++
		s.noteRedrive(ctx, rec)
		s.log.Error().Err(err).Str("reference_id", rec.ReferenceID).Msg("reconcile: unreadable refund snapshot")
		return
	}

	switch txn.Status {
	case domain.StatusRefunded:
		// provider already confirmed; only the ledger reversal is missing
		reversal := *txn
		reversal.Amount = snap.Amount
		if err := s.ledger.Reverse(ctx, &reversal); err != nil {
			report.Errors++
			reconcileSweeps.WithLabelValues("reverse_error").Inc()
			s.noteRedrive(ctx, rec)
			s.log.Error().Err(err).Str("reference_id", rec.ReferenceID).Msg("reconcile: ledger reversal re-drive failed")
			return
		}
		report.Reapplied++
		reconcileSweeps.WithLabelValues("reversed").Inc()
	case domain.StatusRefundPending:
		// stranded before provider confirmation; run the refund tail again
		if _, err := s.Refund(ctx, rec.ReferenceID, snap.Amount, "reconciliation retry"); err != nil {
			report.Errors++
			reconcileSweeps.WithLabelValues("refund_retry_error").Inc()
			s.noteRedrive(ctx, rec)
			s.log.Error().Err(err).Str("reference_id", rec.ReferenceID).Msg("reconcile: refund re-drive failed")
			return
		}
		report.Reapplied++
		reconcileSweeps.WithLabelValues("refund_redriven").Inc()
	default:
		report.Errors++
		s.noteRedrive(ctx, rec)
		s.log.Error().
			Str("reference_id", rec.ReferenceID).
			Str("status", string(txn.Status)).
			Msg("reconcile: refund record on a transaction outside the refund lifecycle")
	}
}

// noteRedrive counts a failed retry; at the cap the record leaves the sweep
// and waits for an operator.
func (s *SettlementServiceImpl) noteRedrive(ctx context.Context, rec *domain.SettlementRecord) {
	attempts, err := s.recordRepo.IncrementRedrive(ctx, rec.ReferenceID, rec.EventID)
	if err != nil {
		s.log.Error().Err(err).Str("reference_id", rec.ReferenceID).Msg("reconcile: failed to count redrive attempt")
		return
	}
	if attempts >= domain.MaxLedgerRedrives {
		reconcileSweeps.WithLabelValues("manual_review").Inc()
		s.log.Error().
			Str("reference_id", rec.ReferenceID).
			Str("event_id", rec.EventID).
			Int("attempts", attempts).
			Msg("reconcile: redrive cap reached, record held for manual review")
	}
}

func targetStatus(state ports.OutcomeState) domain.TransactionStatus {
	switch state {
	case ports.OutcomeSucceeded:
		return domain.StatusCompleted
	case ports.OutcomeCancelled:
		return domain.StatusCancelled
	default:
		return domain.StatusFailed
	}
}

// unmarshalTransaction deserializes a cached settle response.
func unmarshalTransaction(data []byte) (*domain.Transaction, error) {
	txn := &domain.Transaction{}
	if err := json.Unmarshal(data, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached transaction: %w", err))
	}
	return txn, nil
}
