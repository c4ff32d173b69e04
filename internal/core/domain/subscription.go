package domain

import (
	"time"

	"github.com/google/uuid"
)

// PlanType identifies a purchasable subscription plan.
type PlanType string

const (
	PlanMonthly PlanType = "MONTHLY"
	PlanYearly  PlanType = "YEARLY"
)

// PlanDuration returns the entitlement window for a plan. Unknown plans get
// the monthly window.
func PlanDuration(p PlanType) time.Duration {
	switch p {
	case PlanYearly:
		return 365 * 24 * time.Hour
	default:
		return 30 * 24 * time.Hour
	}
}

// SubscriptionStatus represents the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionPending   SubscriptionStatus = "PENDING"
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
	SubscriptionExpired   SubscriptionStatus = "EXPIRED"
)

// Subscription is a time-boxed entitlement. At most one ACTIVE row exists per
// user at any instant; a repurchase replaces the prior window rather than
// stacking on top of it.
type Subscription struct {
	ID        uuid.UUID          `json:"id"`
	UserID    int64              `json:"user_id"`
	PlanType  PlanType           `json:"plan_type"`
	Status    SubscriptionStatus `json:"status"`
	StartDate time.Time          `json:"start_date"`
	EndDate   time.Time          `json:"end_date"`
	AutoRenew bool               `json:"auto_renew"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// IsCurrent reports whether the subscription entitles the user at the given instant.
func (s *Subscription) IsCurrent(now time.Time) bool {
	return s.Status == SubscriptionActive && now.Before(s.EndDate)
}
