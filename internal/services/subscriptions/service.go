package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arjunmehta/tradejournal/internal/domain/enums"
	"github.com/arjunmehta/tradejournal/internal/domain/model"
)

var ErrValidation = errors.New("validation error")

type UserStore interface {
	FindByID(ctx context.Context, userID int64) (model.User, error)
}

type Service struct {
	users UserStore
	now   func() time.Time
}

func NewService(users UserStore) *Service {
	return &Service{
		users: users,
		now:   time.Now,
	}
}

// Status loads the user and derives the display status. Read path only, no
// mutation.
func (s *Service) Status(ctx context.Context, userID int64) (enums.SubscriptionStatus, error) {
	if userID <= 0 {
		return enums.SubscriptionStatusNone, ErrValidation
	}
	if s.users == nil {
		return enums.SubscriptionStatusNone, fmt.Errorf("user store is nil")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return enums.SubscriptionStatusNone, err
	}

	return ResolveStatus(user, s.now().UTC()), nil
}

// ResolveStatus derives the subscription status from the stored fields. The
// branch order is load-bearing: lifetime and one-time subscriptions resolve to
// active before any expiry comparison, so a lifetime user with a stray past
// expiry still reads active. Absent timestamps sit on the expired side of
// every comparison.
func ResolveStatus(user model.User, now time.Time) enums.SubscriptionStatus {
	if user.SubscriptionStartAt == nil && user.SubscriptionExpiresAt == nil {
		return enums.SubscriptionStatusNone
	}

	switch user.SubscriptionType {
	case enums.SubscriptionTypeTrial, enums.SubscriptionTypeFreeTrial:
		if afterNow(user.SubscriptionExpiresAt, now) {
			return enums.SubscriptionStatusTrial
		}
		return enums.SubscriptionStatusExpired
	case enums.SubscriptionTypeOneTime, enums.SubscriptionTypeLifetime:
		return enums.SubscriptionStatusActive
	case enums.SubscriptionTypeRecurring:
		if afterNow(user.SubscriptionExpiresAt, now) {
			return enums.SubscriptionStatusActive
		}
		return enums.SubscriptionStatusExpired
	default:
		return enums.SubscriptionStatusNone
	}
}

// ApplyCryptoPayment applies a confirmed crypto order onto the user record:
// plan, type, expiry, billing-cycle reset, and the matching entry in the
// embedded order history. Returns false and leaves the user untouched when
// either input is missing; the payment-confirmation path must not blow up on
// partial data. The caller persists the mutated user.
func ApplyCryptoPayment(user *model.User, order model.Order, now time.Time) bool {
	if user == nil || order.ID.IsZero() {
		return false
	}

	if order.IsLifetime() {
		user.SubscriptionPlan = enums.SubscriptionPlanLifetime
		user.SubscriptionType = enums.SubscriptionTypeLifetime
		user.SubscriptionExpiresAt = nil
	} else {
		expiresAt := now
		switch order.Period {
		case enums.PlanPeriodMonthly:
			expiresAt = now.AddDate(0, 1, 0)
		case enums.PlanPeriodYearly:
			expiresAt = now.AddDate(1, 0, 0)
		}
		// An unknown period leaves expiresAt at now: the payment records but
		// grants no extension.
		user.SubscriptionPlan = enums.SubscriptionPlanPro
		user.SubscriptionType = enums.SubscriptionTypeOneTime
		user.SubscriptionExpiresAt = &expiresAt
	}

	startAt := now
	user.SubscriptionStatus = enums.SubscriptionStatusActive
	user.SubscriptionStartAt = &startAt
	user.SubscriptionCreatedAt = &startAt
	user.LastBillingDate = nil
	user.NextBillingDate = nil

	for i, summary := range user.Orders {
		if summary.OrderID != order.ID {
			continue
		}
		summary.Status = enums.OrderStatusPaid
		summary.UpdatedAt = now
		user.Orders[i] = summary
	}

	return true
}

func afterNow(ts *time.Time, now time.Time) bool {
	return ts != nil && ts.After(now)
}
