package service

import (
	"context"
	"fmt"
	"time"

	"peerpay-settlement/internal/core/domain"
	"peerpay-settlement/internal/core/ports"
	"peerpay-settlement/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SubscriptionServiceImpl implements ports.SubscriptionService. Subscription
// state is derived from settled transactions: Activate is only ever invoked by
// the settlement engine after a SUBSCRIPTION_PURCHASE completes.
type SubscriptionServiceImpl struct {
	subRepo    ports.SubscriptionRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewSubscriptionService creates a new SubscriptionServiceImpl.
func NewSubscriptionService(
	subRepo ports.SubscriptionRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *SubscriptionServiceImpl {
	return &SubscriptionServiceImpl{
		subRepo:    subRepo,
		transactor: transactor,
		log:        log,
	}
}

// Activate grants a fresh entitlement window starting now. Any prior active
// subscription is cancelled in the same database transaction, so the partial
// unique index on active rows never sees two at once. Repurchasing replaces
// the window; remaining time on the old plan is not carried over.
func (s *SubscriptionServiceImpl) Activate(ctx context.Context, userID int64, plan domain.PlanType) (*domain.Subscription, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	prior, err := s.subRepo.GetActiveForUpdate(ctx, dbTx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock active subscription: %w", err))
	}
	if prior != nil {
		if err := s.subRepo.UpdateStatus(ctx, dbTx, prior.ID, domain.SubscriptionCancelled); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("cancel prior subscription: %w", err))
		}
	}

	now := time.Now().UTC()
	sub := &domain.Subscription{
		ID:        uuid.New(),
		UserID:    userID,
		PlanType:  plan,
		Status:    domain.SubscriptionActive,
		StartDate: now,
		EndDate:   now.Add(domain.PlanDuration(plan)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.subRepo.Insert(ctx, dbTx, sub); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("insert subscription: %w", err))
	}
	if err := s.subRepo.SetPremium(ctx, dbTx, userID, true); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("set premium flag: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit subscription tx: %w", err))
	}

	s.log.Info().
		Int64("user_id", userID).
		Str("plan", string(plan)).
		Time("end_date", sub.EndDate).
		Bool("replaced", prior != nil).
		Msg("subscription activated")
	return sub, nil
}

// ExpireDue sweeps lapsed subscriptions. The repository performs the whole
// sweep in one statement, so overlapping sweeps or re-runs expire each row at
// most once.
func (s *SubscriptionServiceImpl) ExpireDue(ctx context.Context) (int64, error) {
	n, err := s.subRepo.ExpireDue(ctx, time.Now().UTC())
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("expire due subscriptions: %w", err))
	}
	if n > 0 {
		s.log.Info().Int64("expired", n).Msg("subscription sweep expired lapsed rows")
	}
	return n, nil
}
