package service

import (
	"context"
	"testing"

	"peerpay-settlement/internal/core/domain"
	"peerpay-settlement/internal/core/ports/mocks"
	"peerpay-settlement/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type ledgerTestDeps struct {
	svc         *LedgerServiceImpl
	balanceRepo *mocks.MockBalanceRepository
	recordRepo  *mocks.MockSettlementRecordRepository
	transactor  *mocks.MockDBTransactor
	ctrl        *gomock.Controller
}

func setupLedgerService(t *testing.T) *ledgerTestDeps {
	ctrl := gomock.NewController(t)
	d := &ledgerTestDeps{
		balanceRepo: mocks.NewMockBalanceRepository(ctrl),
		recordRepo:  mocks.NewMockSettlementRecordRepository(ctrl),
		transactor:  mocks.NewMockDBTransactor(ctrl),
		ctrl:        ctrl,
	}
	d.svc = NewLedgerService(d.balanceRepo, d.recordRepo, d.transactor, zerolog.Nop())
	return d
}

func transferTxn(senderID, receiverID int64) *domain.Transaction {
	sid := senderID
	return &domain.Transaction{
		ID:          uuid.New(),
		ReferenceID: "TXN-1",
		SenderID:    &sid,
		ReceiverID:  receiverID,
		Amount:      500,
		Currency:    "USD",
		Kind:        domain.KindTransfer,
		Status:      domain.StatusCompleted,
	}
}

func TestLedgerApply_DebitsAndCreditsUnderAscendingLocks(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	// sender id above receiver id: lock order must still be ascending
	txn := transferTxn(20, 10)

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.recordRepo.EXPECT().GetForUpdate(ctx, tx, "TXN-1", "evt-1").
		Return(&domain.SettlementRecord{ReferenceID: "TXN-1", EventID: "evt-1"}, nil)

	gomock.InOrder(
		d.balanceRepo.EXPECT().Ensure(ctx, tx, int64(10), "USD").Return(nil),
		d.balanceRepo.EXPECT().GetForUpdate(ctx, tx, int64(10)).Return(&domain.Balance{UserID: 10, Amount: 0}, nil),
		d.balanceRepo.EXPECT().Ensure(ctx, tx, int64(20), "USD").Return(nil),
		d.balanceRepo.EXPECT().GetForUpdate(ctx, tx, int64(20)).Return(&domain.Balance{UserID: 20, Amount: 1000}, nil),
	)
	d.balanceRepo.EXPECT().Adjust(ctx, tx, int64(20), int64(-500)).Return(nil)
	d.balanceRepo.EXPECT().Adjust(ctx, tx, int64(10), int64(500)).Return(nil)
	d.recordRepo.EXPECT().MarkLedgerApplied(ctx, tx, "TXN-1", "evt-1").Return(nil)

	require.NoError(t, d.svc.Apply(ctx, txn, "evt-1"))
}

func TestLedgerApply_ReplayIsNoop(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	txn := transferTxn(10, 20)

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.recordRepo.EXPECT().GetForUpdate(ctx, tx, "TXN-1", "evt-1").
		Return(&domain.SettlementRecord{ReferenceID: "TXN-1", EventID: "evt-1", LedgerApplied: true}, nil)

	// no balance calls: the applied flag short-circuits
	require.NoError(t, d.svc.Apply(ctx, txn, "evt-1"))
}

func TestLedgerApply_InsufficientFunds(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	txn := transferTxn(10, 20)

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.recordRepo.EXPECT().GetForUpdate(ctx, tx, "TXN-1", "evt-1").
		Return(&domain.SettlementRecord{ReferenceID: "TXN-1", EventID: "evt-1"}, nil)
	d.balanceRepo.EXPECT().Ensure(ctx, tx, int64(10), "USD").Return(nil)
	d.balanceRepo.EXPECT().GetForUpdate(ctx, tx, int64(10)).Return(&domain.Balance{UserID: 10, Amount: 100}, nil)
	d.balanceRepo.EXPECT().Ensure(ctx, tx, int64(20), "USD").Return(nil)
	d.balanceRepo.EXPECT().GetForUpdate(ctx, tx, int64(20)).Return(&domain.Balance{UserID: 20, Amount: 0}, nil)

	err := d.svc.Apply(ctx, txn, "evt-1")
	require.Error(t, err)
	assert.Equal(t, "PAY_001", apperror.Code(err))
}

func TestLedgerApply_ExternallyFundedCreditsReceiverOnly(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	txn := transferTxn(10, 20)
	txn.SenderID = nil

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.recordRepo.EXPECT().GetForUpdate(ctx, tx, "TXN-1", "").
		Return(&domain.SettlementRecord{ReferenceID: "TXN-1"}, nil)
	d.balanceRepo.EXPECT().Ensure(ctx, tx, int64(20), "USD").Return(nil)
	d.balanceRepo.EXPECT().GetForUpdate(ctx, tx, int64(20)).Return(&domain.Balance{UserID: 20, Amount: 0}, nil)
	d.balanceRepo.EXPECT().Adjust(ctx, tx, int64(20), int64(500)).Return(nil)
	d.recordRepo.EXPECT().MarkLedgerApplied(ctx, tx, "TXN-1", "").Return(nil)

	require.NoError(t, d.svc.Apply(ctx, txn, ""))
}

func TestLedgerApply_WithdrawalDebitsOnly(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	txn := transferTxn(10, 20)
	txn.Kind = domain.KindWithdrawal

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.recordRepo.EXPECT().GetForUpdate(ctx, tx, "TXN-1", "evt-1").
		Return(&domain.SettlementRecord{ReferenceID: "TXN-1", EventID: "evt-1"}, nil)
	d.balanceRepo.EXPECT().Ensure(ctx, tx, int64(10), "USD").Return(nil)
	d.balanceRepo.EXPECT().GetForUpdate(ctx, tx, int64(10)).Return(&domain.Balance{UserID: 10, Amount: 1000}, nil)
	d.balanceRepo.EXPECT().Adjust(ctx, tx, int64(10), int64(-500)).Return(nil)
	d.recordRepo.EXPECT().MarkLedgerApplied(ctx, tx, "TXN-1", "evt-1").Return(nil)

	require.NoError(t, d.svc.Apply(ctx, txn, "evt-1"))
}

func TestLedgerReverse_SwapsDirection(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	txn := transferTxn(10, 20)

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.recordRepo.EXPECT().GetForUpdate(ctx, tx, "TXN-1", domain.RefundEventID).
		Return(&domain.SettlementRecord{ReferenceID: "TXN-1", EventID: domain.RefundEventID}, nil)
	d.balanceRepo.EXPECT().Ensure(ctx, tx, int64(10), "USD").Return(nil)
	d.balanceRepo.EXPECT().GetForUpdate(ctx, tx, int64(10)).Return(&domain.Balance{UserID: 10, Amount: 0}, nil)
	d.balanceRepo.EXPECT().Ensure(ctx, tx, int64(20), "USD").Return(nil)
	d.balanceRepo.EXPECT().GetForUpdate(ctx, tx, int64(20)).Return(&domain.Balance{UserID: 20, Amount: 500}, nil)
	// receiver gives the money back to the sender
	d.balanceRepo.EXPECT().Adjust(ctx, tx, int64(20), int64(-500)).Return(nil)
	d.balanceRepo.EXPECT().Adjust(ctx, tx, int64(10), int64(500)).Return(nil)
	d.recordRepo.EXPECT().MarkLedgerApplied(ctx, tx, "TXN-1", domain.RefundEventID).Return(nil)

	require.NoError(t, d.svc.Reverse(ctx, txn))
}

func TestLedgerGetBalance_MissingRowReadsZero(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.balanceRepo.EXPECT().Get(ctx, int64(42)).Return(nil, nil)

	bal, err := d.svc.GetBalance(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(0), bal.Amount)
	assert.Equal(t, int64(42), bal.UserID)
}
