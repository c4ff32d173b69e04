package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"peerpay-settlement/config"
	"peerpay-settlement/internal/core/domain"
	"peerpay-settlement/internal/core/ports"
	"peerpay-settlement/internal/core/ports/mocks"
	"peerpay-settlement/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type settlementTestDeps struct {
	svc         *SettlementServiceImpl
	txRepo      *mocks.MockTransactionRepository
	recordRepo  *mocks.MockSettlementRecordRepository
	balanceRepo *mocks.MockBalanceRepository
	ledger      *mocks.MockLedgerService
	subs        *mocks.MockSubscriptionService
	registry    *mocks.MockGatewayRegistry
	cache       *mocks.MockSettleCache
	sink        *mocks.MockEventSink
	transactor  *mocks.MockDBTransactor
	ctrl        *gomock.Controller
}

func setupSettlementService(t *testing.T) *settlementTestDeps {
	ctrl := gomock.NewController(t)
	d := &settlementTestDeps{
		txRepo:      mocks.NewMockTransactionRepository(ctrl),
		recordRepo:  mocks.NewMockSettlementRecordRepository(ctrl),
		balanceRepo: mocks.NewMockBalanceRepository(ctrl),
		ledger:      mocks.NewMockLedgerService(ctrl),
		subs:        mocks.NewMockSubscriptionService(ctrl),
		registry:    mocks.NewMockGatewayRegistry(ctrl),
		cache:       mocks.NewMockSettleCache(ctrl),
		sink:        mocks.NewMockEventSink(ctrl),
		transactor:  mocks.NewMockDBTransactor(ctrl),
		ctrl:        ctrl,
	}
	cfg := config.SettlementConfig{
		ReconcileMaxAge: 15 * time.Minute,
		SweepLimit:      100,
		ReturnBaseURL:   "http://localhost:8080",
		NotifyBaseURL:   "http://localhost:8080",
	}
	d.svc = NewSettlementService(
		d.txRepo, d.recordRepo, d.balanceRepo, d.ledger, d.subs,
		d.registry, d.cache, d.sink, d.transactor, cfg, zerolog.Nop(),
	)
	return d
}

// mockTx implements pgx.Tx for testing.
type mockTx struct{ pgx.Tx }

func (m *mockTx) Rollback(_ context.Context) error { return nil }
func (m *mockTx) Commit(_ context.Context) error   { return nil }

func i64(v int64) *int64 { return &v }

func pendingTransfer() *domain.Transaction {
	return &domain.Transaction{
		ID:          uuid.New(),
		ReferenceID: "TXN-1",
		SenderID:    i64(10),
		ReceiverID:  20,
		Amount:      500,
		Currency:    "USD",
		Kind:        domain.KindTransfer,
		Status:      domain.StatusPending,
		Method:      domain.MethodCardGate,
		CreatedAt:   time.Now().UTC(),
	}
}

func succeededOutcome(amount int64) ports.Outcome {
	return ports.Outcome{
		ReferenceID:   "TXN-1",
		State:         ports.OutcomeSucceeded,
		Amount:        amount,
		Currency:      "USD",
		ProviderTxnID: "CG-1",
		EventID:       "evt-1",
	}
}

// ==================== Settle ====================

func TestSettle_WinnerAppliesSideEffectsOnce(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	txn := pendingTransfer()
	tx := &mockTx{}
	key := domain.SettlementKey("TXN-1", "evt-1")

	d.cache.EXPECT().Get(ctx, key).Return(nil, nil)
	d.txRepo.EXPECT().GetByReference(ctx, "TXN-1").Return(txn, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.balanceRepo.EXPECT().Ensure(ctx, tx, int64(10), "USD").Return(nil)
	d.balanceRepo.EXPECT().GetForUpdate(ctx, tx, int64(10)).Return(&domain.Balance{UserID: 10, Amount: 1000}, nil)
	d.txRepo.EXPECT().
		Transition(ctx, tx, txn.ID, domain.StatusPending, domain.StatusCompleted, gomock.Any()).
		Return(true, nil)
	d.recordRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, rec *domain.SettlementRecord) error {
			assert.Equal(t, "TXN-1", rec.ReferenceID)
			assert.Equal(t, "evt-1", rec.EventID)
			assert.Equal(t, domain.StatusCompleted, rec.Status)
			assert.False(t, rec.LedgerApplied)
			return nil
		})
	d.ledger.EXPECT().Apply(ctx, gomock.Any(), "evt-1").Return(nil)
	d.sink.EXPECT().Emit(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, ev domain.SettlementEvent) error {
			assert.Equal(t, "TXN-1", ev.ReferenceID)
			assert.Equal(t, domain.StatusCompleted, ev.Status)
			assert.ElementsMatch(t, []int64{10, 20}, ev.UserIDs)
			return nil
		})
	d.cache.EXPECT().Set(ctx, key, gomock.Any(), settleCacheTTL).Return(nil)

	got, err := d.svc.Settle(ctx, "TXN-1", succeededOutcome(500), "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	require.NotNil(t, got.SettledAt)
	require.NotNil(t, got.ProviderTxnID)
	assert.Equal(t, "CG-1", *got.ProviderTxnID)
}

func TestSettle_CachedReplaySkipsEngine(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	settled := pendingTransfer()
	settled.Status = domain.StatusCompleted
	cached, _ := json.Marshal(settled)

	d.cache.EXPECT().Get(ctx, domain.SettlementKey("TXN-1", "evt-1")).Return(cached, nil)

	got, err := d.svc.Settle(ctx, "TXN-1", succeededOutcome(500), "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
}

func TestSettle_TerminalRowReplays(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	txn := pendingTransfer()
	txn.Status = domain.StatusCancelled

	d.cache.EXPECT().Get(ctx, gomock.Any()).Return(nil, nil)
	d.txRepo.EXPECT().GetByReference(ctx, "TXN-1").Return(txn, nil)

	// a late succeeded webhook for an already-cancelled row applies nothing
	got, err := d.svc.Settle(ctx, "TXN-1", succeededOutcome(500), "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status)
}

func TestSettle_NotFound(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.cache.EXPECT().Get(ctx, gomock.Any()).Return(nil, nil)
	d.txRepo.EXPECT().GetByReference(ctx, "TXN-404").Return(nil, nil)

	out := succeededOutcome(500)
	out.ReferenceID = "TXN-404"
	_, err := d.svc.Settle(ctx, "TXN-404", out, "")
	require.Error(t, err)
	assert.Equal(t, "SET_001", apperror.Code(err))
}

func TestSettle_AmountMismatchStaysPending(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	txn := pendingTransfer()

	d.cache.EXPECT().Get(ctx, gomock.Any()).Return(nil, nil)
	d.txRepo.EXPECT().GetByReference(ctx, "TXN-1").Return(txn, nil)

	_, err := d.svc.Settle(ctx, "TXN-1", succeededOutcome(140), "")
	require.Error(t, err)
	assert.Equal(t, "SET_002", apperror.Code(err))
}

func TestSettle_LoserObservesCommittedState(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	txn := pendingTransfer()
	tx := &mockTx{}

	settled := *txn
	settled.Status = domain.StatusCompleted

	d.cache.EXPECT().Get(ctx, gomock.Any()).Return(nil, nil)
	d.txRepo.EXPECT().GetByReference(ctx, "TXN-1").Return(txn, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	// failed outcome takes no funds check path
	d.txRepo.EXPECT().
		Transition(ctx, tx, txn.ID, domain.StatusPending, domain.StatusFailed, gomock.Any()).
		Return(false, nil)
	d.txRepo.EXPECT().GetByReference(ctx, "TXN-1").Return(&settled, nil)

	out := ports.Outcome{ReferenceID: "TXN-1", State: ports.OutcomeFailed, EventID: "evt-2"}
	got, err := d.svc.Settle(ctx, "TXN-1", out, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status, "loser reports the winner's terminal state")
}

func TestSettle_InsufficientFundsLandsFailed(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	txn := pendingTransfer()
	tx := &mockTx{}

	d.cache.EXPECT().Get(ctx, gomock.Any()).Return(nil, nil)
	d.txRepo.EXPECT().GetByReference(ctx, "TXN-1").Return(txn, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.balanceRepo.EXPECT().Ensure(ctx, tx, int64(10), "USD").Return(nil)
	d.balanceRepo.EXPECT().GetForUpdate(ctx, tx, int64(10)).Return(&domain.Balance{UserID: 10, Amount: 100}, nil)
	d.txRepo.EXPECT().
		Transition(ctx, tx, txn.ID, domain.StatusPending, domain.StatusFailed, gomock.Any()).
		Return(true, nil)
	d.recordRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	// no ledger apply for a failed row, but the terminal event still fires
	d.sink.EXPECT().Emit(ctx, gomock.Any()).Return(nil)
	d.cache.EXPECT().Set(ctx, gomock.Any(), gomock.Any(), settleCacheTTL).Return(nil)

	got, err := d.svc.Settle(ctx, "TXN-1", succeededOutcome(500), "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
}

func TestSettle_SubscriptionPurchaseActivates(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	plan := domain.PlanMonthly
	txn := pendingTransfer()
	txn.Kind = domain.KindSubscriptionPurchase
	txn.PlanType = &plan
	txn.SenderID = nil // externally funded purchase
	tx := &mockTx{}

	d.cache.EXPECT().Get(ctx, gomock.Any()).Return(nil, nil)
	d.txRepo.EXPECT().GetByReference(ctx, "TXN-1").Return(txn, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().
		Transition(ctx, tx, txn.ID, domain.StatusPending, domain.StatusCompleted, gomock.Any()).
		Return(true, nil)
	d.recordRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.ledger.EXPECT().Apply(ctx, gomock.Any(), "evt-1").Return(nil)
	d.subs.EXPECT().Activate(ctx, int64(20), domain.PlanMonthly).Return(&domain.Subscription{}, nil)
	d.sink.EXPECT().Emit(ctx, gomock.Any()).Return(nil)
	d.cache.EXPECT().Set(ctx, gomock.Any(), gomock.Any(), settleCacheTTL).Return(nil)

	got, err := d.svc.Settle(ctx, "TXN-1", succeededOutcome(500), "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
}

func TestSettle_PendingOutcomeIsNoop(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	txn := pendingTransfer()

	d.cache.EXPECT().Get(ctx, gomock.Any()).Return(nil, nil)
	d.txRepo.EXPECT().GetByReference(ctx, "TXN-1").Return(txn, nil)

	out := ports.Outcome{ReferenceID: "TXN-1", State: ports.OutcomePending}
	got, err := d.svc.Settle(ctx, "TXN-1", out, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
}

// ==================== Cancel ====================

func TestCancel_PendingTransitionsToCancelled(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	txn := pendingTransfer()
	tx := &mockTx{}

	d.cache.EXPECT().Get(ctx, domain.SettlementKey("TXN-1", "cancel")).Return(nil, nil)
	d.txRepo.EXPECT().GetByReference(ctx, "TXN-1").Return(txn, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().
		Transition(ctx, tx, txn.ID, domain.StatusPending, domain.StatusCancelled, gomock.Any()).
		Return(true, nil)
	d.recordRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.sink.EXPECT().Emit(ctx, gomock.Any()).Return(nil)
	d.cache.EXPECT().Set(ctx, gomock.Any(), gomock.Any(), settleCacheTTL).Return(nil)

	got, err := d.svc.Cancel(ctx, "TXN-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status)
}

func TestCancel_AfterCompletionReportsAlreadySettled(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	txn := pendingTransfer()
	txn.Status = domain.StatusCompleted

	d.cache.EXPECT().Get(ctx, gomock.Any()).Return(nil, nil)
	d.txRepo.EXPECT().GetByReference(ctx, "TXN-1").Return(txn, nil)

	got, err := d.svc.Cancel(ctx, "TXN-1")
	require.NoError(t, err, "losing a cancel race is not an error")
	assert.Equal(t, domain.StatusCompleted, got.Status)
}

// ==================== Refund ====================

func refundableTransfer() *domain.Transaction {
	txn := pendingTransfer()
	txn.Status = domain.StatusCompleted
	providerID := "CG-1"
	txn.ProviderTxnID = &providerID
	return txn
}

func TestRefund_FullFlow(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	txn := refundableTransfer()
	tx := &mockTx{}
	adapter := mocks.NewMockGatewayAdapter(d.ctrl)

	d.txRepo.EXPECT().GetByReference(ctx, "TXN-1").Return(txn, nil)
	d.registry.EXPECT().ForMethod(domain.MethodCardGate).Return(adapter, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().
		Transition(ctx, tx, txn.ID, domain.StatusCompleted, domain.StatusRefundPending, nil).
		Return(true, nil)
	d.recordRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, rec *domain.SettlementRecord) error {
			assert.Equal(t, domain.RefundEventID, rec.EventID)
			return nil
		})
	adapter.EXPECT().Refund(ctx, "CG-1", int64(500), "user request").
		Return(&ports.RefundOutcome{State: ports.OutcomeSucceeded, ProviderRefundID: "RF-1"}, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().
		Transition(ctx, tx, txn.ID, domain.StatusRefundPending, domain.StatusRefunded, nil).
		Return(true, nil)
	d.ledger.EXPECT().Reverse(ctx, gomock.Any()).Return(nil)
	d.sink.EXPECT().Emit(ctx, gomock.Any()).Return(nil)

	got, err := d.svc.Refund(ctx, "TXN-1", 0, "user request")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRefunded, got.Status)
}

func TestRefund_AmountExceedsOriginal(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.txRepo.EXPECT().GetByReference(ctx, "TXN-1").Return(refundableTransfer(), nil)

	_, err := d.svc.Refund(ctx, "TXN-1", 600, "too much")
	require.Error(t, err)
	assert.Equal(t, "SET_007", apperror.Code(err))
}

func TestRefund_PendingTransactionRejected(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.txRepo.EXPECT().GetByReference(ctx, "TXN-1").Return(pendingTransfer(), nil)

	_, err := d.svc.Refund(ctx, "TXN-1", 0, "nope")
	require.Error(t, err)
	assert.Equal(t, "SET_005", apperror.Code(err))
}

func TestRefund_DuplicateReturnsCurrentState(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	txn := refundableTransfer()
	txn.Status = domain.StatusRefunded

	d.txRepo.EXPECT().GetByReference(ctx, "TXN-1").Return(txn, nil)

	got, err := d.svc.Refund(ctx, "TXN-1", 0, "again")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRefunded, got.Status)
}

func TestRefund_ResumesAfterProviderFailure(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	adapter := mocks.NewMockGatewayAdapter(d.ctrl)

	// an earlier attempt won COMPLETED -> REFUND_PENDING but the provider
	// call failed; a second Refund must pick the refund up from there
	stranded := refundableTransfer()
	stranded.Status = domain.StatusRefundPending

	d.txRepo.EXPECT().GetByReference(ctx, "TXN-1").Return(stranded, nil)
	d.registry.EXPECT().ForMethod(domain.MethodCardGate).Return(adapter, nil)
	adapter.EXPECT().Refund(ctx, "CG-1", int64(500), "retry").
		Return(&ports.RefundOutcome{State: ports.OutcomeSucceeded, ProviderRefundID: "RF-2"}, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().
		Transition(ctx, tx, stranded.ID, domain.StatusRefundPending, domain.StatusRefunded, nil).
		Return(true, nil)
	d.ledger.EXPECT().Reverse(ctx, gomock.Any()).Return(nil)
	d.sink.EXPECT().Emit(ctx, gomock.Any()).Return(nil)

	got, err := d.svc.Refund(ctx, "TXN-1", 0, "retry")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRefunded, got.Status)
}

func TestRefund_ResumeLosesFinishRace(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	adapter := mocks.NewMockGatewayAdapter(d.ctrl)

	stranded := refundableTransfer()
	stranded.Status = domain.StatusRefundPending
	finished := refundableTransfer()
	finished.Status = domain.StatusRefunded

	d.txRepo.EXPECT().GetByReference(ctx, "TXN-1").Return(stranded, nil)
	d.registry.EXPECT().ForMethod(domain.MethodCardGate).Return(adapter, nil)
	adapter.EXPECT().Refund(ctx, "CG-1", int64(500), "retry").
		Return(&ports.RefundOutcome{State: ports.OutcomeSucceeded, ProviderRefundID: "RF-2"}, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().
		Transition(ctx, tx, stranded.ID, domain.StatusRefundPending, domain.StatusRefunded, nil).
		Return(false, nil)
	d.txRepo.EXPECT().GetByReference(ctx, "TXN-1").Return(finished, nil)

	// the concurrent winner owns reversal and event emission
	got, err := d.svc.Refund(ctx, "TXN-1", 0, "retry")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRefunded, got.Status)
}

// ==================== Reconcile ====================

// ==================== Verify ====================

func TestVerify_TerminalReturnsWithoutProviderCall(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	txn := pendingTransfer()
	txn.Status = domain.StatusCompleted
	d.txRepo.EXPECT().GetByReference(ctx, "TXN-1").Return(txn, nil)

	got, err := d.svc.Verify(ctx, "TXN-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
}

func TestVerify_ProviderStillPending(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	adapter := mocks.NewMockGatewayAdapter(d.ctrl)
	correlation := "CG-SESSION-1"
	txn := pendingTransfer()
	txn.GatewayCorrelation = &correlation

	d.txRepo.EXPECT().GetByReference(ctx, "TXN-1").Return(txn, nil)
	d.registry.EXPECT().ForMethod(domain.MethodCardGate).Return(adapter, nil)
	adapter.EXPECT().Verify(ctx, "CG-SESSION-1").Return(&ports.Outcome{
		ReferenceID: "TXN-1", State: ports.OutcomePending,
	}, nil)

	got, err := d.svc.Verify(ctx, "TXN-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestVerify_TerminalOutcomeFlowsThroughSettle(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	adapter := mocks.NewMockGatewayAdapter(d.ctrl)
	correlation := "CG-SESSION-1"
	txn := pendingTransfer()
	txn.GatewayCorrelation = &correlation

	d.txRepo.EXPECT().GetByReference(ctx, "TXN-1").Return(txn, nil)
	d.registry.EXPECT().ForMethod(domain.MethodCardGate).Return(adapter, nil)
	adapter.EXPECT().Verify(ctx, "CG-SESSION-1").Return(&ports.Outcome{
		ReferenceID: "TXN-1", State: ports.OutcomeSucceeded,
		Amount: 500, Currency: "USD", ProviderTxnID: "CG-1", EventID: "evt-1",
	}, nil)

	// the webhook already won; Settle replays from cache
	settled := pendingTransfer()
	settled.Status = domain.StatusCompleted
	cached, _ := json.Marshal(settled)
	d.cache.EXPECT().Get(ctx, domain.SettlementKey("TXN-1", "evt-1")).Return(cached, nil)

	got, err := d.svc.Verify(ctx, "TXN-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
}

func TestReconcile_SweepsStaleAndUnapplied(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	adapter := mocks.NewMockGatewayAdapter(d.ctrl)

	correlation := "TXN-1"
	stale := *pendingTransfer()
	stale.GatewayCorrelation = &correlation

	d.txRepo.EXPECT().ListStalePending(ctx, gomock.Any(), 100).Return([]domain.Transaction{stale}, nil)
	d.registry.EXPECT().ForMethod(domain.MethodCardGate).Return(adapter, nil)
	adapter.EXPECT().Verify(ctx, "TXN-1").Return(&ports.Outcome{
		ReferenceID: "TXN-1", State: ports.OutcomePending,
	}, nil)

	unapplied := domain.SettlementRecord{ReferenceID: "TXN-2", EventID: "evt-9", Status: domain.StatusCompleted}
	completed := pendingTransfer()
	completed.ReferenceID = "TXN-2"
	completed.Status = domain.StatusCompleted
	d.recordRepo.EXPECT().ListUnapplied(ctx, gomock.Any(), 100).Return([]domain.SettlementRecord{unapplied}, nil)
	d.txRepo.EXPECT().GetByReference(ctx, "TXN-2").Return(completed, nil)
	d.ledger.EXPECT().Apply(ctx, completed, "evt-9").Return(nil)

	report, err := d.svc.Reconcile(ctx, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.StillPending)
	assert.Equal(t, 0, report.Settled)
	assert.Equal(t, 1, report.Reapplied)
	assert.Equal(t, 0, report.Errors)
}

func refundRecord(t *testing.T, amount int64) domain.SettlementRecord {
	t.Helper()
	snap := refundableTransfer()
	snap.Status = domain.StatusRefundPending
	snap.Amount = amount
	respJSON, err := json.Marshal(snap)
	require.NoError(t, err)
	return domain.SettlementRecord{
		ReferenceID:  "TXN-1",
		EventID:      domain.RefundEventID,
		Status:       domain.StatusRefundPending,
		ResponseJSON: respJSON,
	}
}

func TestReconcile_RedrivesMissingReversal(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	// the REFUNDED transition committed but the reversal never did
	refunded := refundableTransfer()
	refunded.Status = domain.StatusRefunded

	d.txRepo.EXPECT().ListStalePending(ctx, gomock.Any(), 100).Return(nil, nil)
	d.recordRepo.EXPECT().ListUnapplied(ctx, gomock.Any(), 100).
		Return([]domain.SettlementRecord{refundRecord(t, 200)}, nil)
	d.txRepo.EXPECT().GetByReference(ctx, "TXN-1").Return(refunded, nil)
	d.ledger.EXPECT().Reverse(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, txn *domain.Transaction) error {
			assert.Equal(t, int64(200), txn.Amount, "reversal uses the refund amount from the record")
			return nil
		})

	report, err := d.svc.Reconcile(ctx, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Reapplied)
	assert.Equal(t, 0, report.Errors)
}

func TestReconcile_ResumesStrandedRefund(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	adapter := mocks.NewMockGatewayAdapter(d.ctrl)

	// the provider call failed after COMPLETED -> REFUND_PENDING won; the
	// sweep must run the refund tail through again
	stranded := refundableTransfer()
	stranded.Status = domain.StatusRefundPending

	d.txRepo.EXPECT().ListStalePending(ctx, gomock.Any(), 100).Return(nil, nil)
	d.recordRepo.EXPECT().ListUnapplied(ctx, gomock.Any(), 100).
		Return([]domain.SettlementRecord{refundRecord(t, 500)}, nil)
	d.txRepo.EXPECT().GetByReference(ctx, "TXN-1").Return(stranded, nil).Times(2)
	d.registry.EXPECT().ForMethod(domain.MethodCardGate).Return(adapter, nil)
	adapter.EXPECT().Refund(ctx, "CG-1", int64(500), "reconciliation retry").
		Return(&ports.RefundOutcome{State: ports.OutcomeSucceeded, ProviderRefundID: "RF-3"}, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().
		Transition(ctx, tx, stranded.ID, domain.StatusRefundPending, domain.StatusRefunded, nil).
		Return(true, nil)
	d.ledger.EXPECT().Reverse(ctx, gomock.Any()).Return(nil)
	d.sink.EXPECT().Emit(ctx, gomock.Any()).Return(nil)

	report, err := d.svc.Reconcile(ctx, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Reapplied)
	assert.Equal(t, 0, report.Errors)
}

func TestReconcile_FailedRedriveCountsTowardCap(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	unapplied := domain.SettlementRecord{ReferenceID: "TXN-2", EventID: "evt-9", Status: domain.StatusCompleted}
	completed := pendingTransfer()
	completed.ReferenceID = "TXN-2"
	completed.Status = domain.StatusCompleted

	d.txRepo.EXPECT().ListStalePending(ctx, gomock.Any(), 100).Return(nil, nil)
	d.recordRepo.EXPECT().ListUnapplied(ctx, gomock.Any(), 100).Return([]domain.SettlementRecord{unapplied}, nil)
	d.txRepo.EXPECT().GetByReference(ctx, "TXN-2").Return(completed, nil)
	d.ledger.EXPECT().Apply(ctx, completed, "evt-9").Return(apperror.ErrInsufficientFunds())
	d.recordRepo.EXPECT().IncrementRedrive(ctx, "TXN-2", "evt-9").Return(domain.MaxLedgerRedrives, nil)

	report, err := d.svc.Reconcile(ctx, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Reapplied)
	assert.Equal(t, 1, report.Errors)
}

// ==================== Create ====================

func TestCreate_RecordsCorrelationAfterInitiation(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	adapter := mocks.NewMockGatewayAdapter(d.ctrl)

	req := ports.CreateTransactionRequest{
		Kind:       domain.KindTransfer,
		SenderID:   i64(10),
		ReceiverID: 20,
		Amount:     500,
		Currency:   "USD",
		Method:     domain.MethodCardGate,
	}

	d.registry.EXPECT().ForMethod(domain.MethodCardGate).Return(adapter, nil)
	d.ledger.EXPECT().GetBalance(ctx, int64(10)).Return(&domain.Balance{UserID: 10, Amount: 1000}, nil)
	d.txRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	adapter.EXPECT().Initiate(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, ir ports.InitiateRequest) (*ports.Initiation, error) {
			assert.Equal(t, int64(500), ir.Amount)
			assert.Contains(t, ir.NotifyURL, "/webhooks/cardgate")
			return &ports.Initiation{RedirectURL: "https://gw.example/pay", Correlation: ir.ReferenceID}, nil
		})
	d.txRepo.EXPECT().SetGatewayCorrelation(ctx, gomock.Any(), gomock.Any()).Return(nil)

	res, err := d.svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, res.Transaction.Status)
	require.NotNil(t, res.Transaction.GatewayCorrelation)
	assert.NotEmpty(t, res.Initiation.RedirectURL)
}

func TestCreate_PreflightInsufficientFunds(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	adapter := mocks.NewMockGatewayAdapter(d.ctrl)

	req := ports.CreateTransactionRequest{
		Kind:       domain.KindTransfer,
		SenderID:   i64(10),
		ReceiverID: 20,
		Amount:     5000,
		Currency:   "USD",
		Method:     domain.MethodCardGate,
	}

	d.registry.EXPECT().ForMethod(domain.MethodCardGate).Return(adapter, nil)
	d.ledger.EXPECT().GetBalance(ctx, int64(10)).Return(&domain.Balance{UserID: 10, Amount: 100}, nil)

	_, err := d.svc.Create(ctx, req)
	require.Error(t, err)
	assert.Equal(t, "PAY_001", apperror.Code(err))
}

func TestCreate_SubscriptionRequiresPlan(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	req := ports.CreateTransactionRequest{
		Kind:       domain.KindSubscriptionPurchase,
		ReceiverID: 20,
		Amount:     150,
		Currency:   "USD",
		Method:     domain.MethodPayWave,
	}

	_, err := d.svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, "SET_004", apperror.Code(err))
}
