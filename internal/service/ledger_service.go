package service

import (
	"context"
	"fmt"
	"sort"

	"peerpay-settlement/internal/core/domain"
	"peerpay-settlement/internal/core/ports"
	"peerpay-settlement/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// LedgerServiceImpl implements ports.LedgerService. All balance mutations run
// inside one database transaction under row locks taken in ascending user id
// order, so two concurrent applications touching the same pair of users can
// never deadlock.
type LedgerServiceImpl struct {
	balanceRepo ports.BalanceRepository
	recordRepo  ports.SettlementRecordRepository
	transactor  ports.DBTransactor
	log         zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	balanceRepo ports.BalanceRepository,
	recordRepo ports.SettlementRecordRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		balanceRepo: balanceRepo,
		recordRepo:  recordRepo,
		transactor:  transactor,
		log:         log,
	}
}

// Apply moves the money for a completed transaction. The settlement record's
// ledger_applied flag is checked and flipped under lock in the same database
// transaction as the balance updates, so a crash between transition commit and
// ledger commit leaves a record the reconciler can re-drive, never a double
// application.
func (s *LedgerServiceImpl) Apply(ctx context.Context, txn *domain.Transaction, recordEventID string) error {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	rec, err := s.recordRepo.GetForUpdate(ctx, dbTx, txn.ReferenceID, recordEventID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock settlement record: %w", err))
	}
	if rec == nil {
		return apperror.InternalError(fmt.Errorf("no settlement record for %s", txn.ReferenceID))
	}
	if rec.LedgerApplied {
		return nil
	}

	if err := s.moveFunds(ctx, dbTx, txn, false); err != nil {
		return err
	}

	if err := s.recordRepo.MarkLedgerApplied(ctx, dbTx, txn.ReferenceID, recordEventID); err != nil {
		return apperror.InternalError(fmt.Errorf("mark ledger applied: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit ledger tx: %w", err))
	}

	s.log.Info().
		Str("reference_id", txn.ReferenceID).
		Int64("amount", txn.Amount).
		Str("kind", string(txn.Kind)).
		Msg("ledger applied")
	return nil
}

// Reverse returns the money of a refunded transaction, guarded by the refund
// settlement record's applied flag.
func (s *LedgerServiceImpl) Reverse(ctx context.Context, txn *domain.Transaction) error {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	rec, err := s.recordRepo.GetForUpdate(ctx, dbTx, txn.ReferenceID, domain.RefundEventID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock refund record: %w", err))
	}
	if rec == nil {
		return apperror.InternalError(fmt.Errorf("no refund record for %s", txn.ReferenceID))
	}
	if rec.LedgerApplied {
		return nil
	}

	if err := s.moveFunds(ctx, dbTx, txn, true); err != nil {
		return err
	}

	if err := s.recordRepo.MarkLedgerApplied(ctx, dbTx, txn.ReferenceID, domain.RefundEventID); err != nil {
		return apperror.InternalError(fmt.Errorf("mark ledger applied: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit ledger tx: %w", err))
	}

	s.log.Info().
		Str("reference_id", txn.ReferenceID).
		Int64("amount", txn.Amount).
		Msg("ledger reversed")
	return nil
}

// GetBalance returns a user's balance. Users without ledger activity read as
// a zero balance rather than not found.
func (s *LedgerServiceImpl) GetBalance(ctx context.Context, userID int64) (*domain.Balance, error) {
	bal, err := s.balanceRepo.Get(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get balance: %w", err))
	}
	if bal == nil {
		return &domain.Balance{UserID: userID}, nil
	}
	return bal, nil
}

// moveFunds applies the transaction's debit and credit legs under row locks.
// reverse swaps the direction for refunds.
func (s *LedgerServiceImpl) moveFunds(ctx context.Context, dbTx pgx.Tx, txn *domain.Transaction, reverse bool) error {
	debitID := txn.SenderID
	creditID := &txn.ReceiverID
	if txn.Kind == domain.KindWithdrawal {
		// money leaves the platform; no internal credit leg
		creditID = nil
	}
	if reverse {
		debitID, creditID = creditID, debitID
	}

	locked, err := s.lockBalances(ctx, dbTx, txn.Currency, debitID, creditID)
	if err != nil {
		return err
	}

	if debitID != nil {
		if locked[*debitID].Amount < txn.Amount {
			return apperror.ErrInsufficientFunds()
		}
		if err := s.balanceRepo.Adjust(ctx, dbTx, *debitID, -txn.Amount); err != nil {
			return apperror.InternalError(fmt.Errorf("debit user %d: %w", *debitID, err))
		}
	}
	if creditID != nil {
		if err := s.balanceRepo.Adjust(ctx, dbTx, *creditID, txn.Amount); err != nil {
			return apperror.InternalError(fmt.Errorf("credit user %d: %w", *creditID, err))
		}
	}
	return nil
}

// lockBalances ensures and locks the participants' balance rows in ascending
// user id order and returns the locked balances keyed by user id.
func (s *LedgerServiceImpl) lockBalances(ctx context.Context, dbTx pgx.Tx, currency string, ids ...*int64) (map[int64]*domain.Balance, error) {
	seen := make(map[int64]bool)
	order := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == nil || seen[*id] {
			continue
		}
		seen[*id] = true
		order = append(order, *id)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	locked := make(map[int64]*domain.Balance, len(order))
	for _, id := range order {
		if err := s.balanceRepo.Ensure(ctx, dbTx, id, currency); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("ensure balance for user %d: %w", id, err))
		}
		bal, err := s.balanceRepo.GetForUpdate(ctx, dbTx, id)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("lock balance for user %d: %w", id, err))
		}
		if bal == nil {
			return nil, apperror.InternalError(fmt.Errorf("balance row missing for user %d", id))
		}
		locked[id] = bal
	}
	return locked, nil
}
