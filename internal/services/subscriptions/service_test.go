package subscriptions

import (
	"testing"
	"time"

	"github.com/arjunmehta/tradejournal/internal/domain/enums"
	"github.com/arjunmehta/tradejournal/internal/domain/model"
)

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestResolveStatusBranches(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := timePtr(now.Add(-24 * time.Hour))
	future := timePtr(now.Add(24 * time.Hour))

	tests := []struct {
		name string
		user model.User
		want enums.SubscriptionStatus
	}{
		{
			name: "no timestamps at all",
			user: model.User{SubscriptionType: enums.SubscriptionTypeRecurring},
			want: enums.SubscriptionStatusNone,
		},
		{
			name: "trial with future expiry",
			user: model.User{
				SubscriptionType:      enums.SubscriptionTypeTrial,
				SubscriptionStartAt:   past,
				SubscriptionExpiresAt: future,
			},
			want: enums.SubscriptionStatusTrial,
		},
		{
			name: "free trial with future expiry",
			user: model.User{
				SubscriptionType:      enums.SubscriptionTypeFreeTrial,
				SubscriptionStartAt:   past,
				SubscriptionExpiresAt: future,
			},
			want: enums.SubscriptionStatusTrial,
		},
		{
			name: "trial past expiry",
			user: model.User{
				SubscriptionType:      enums.SubscriptionTypeTrial,
				SubscriptionStartAt:   past,
				SubscriptionExpiresAt: past,
			},
			want: enums.SubscriptionStatusExpired,
		},
		{
			name: "one-time is active regardless of expiry",
			user: model.User{
				SubscriptionType:      enums.SubscriptionTypeOneTime,
				SubscriptionStartAt:   past,
				SubscriptionExpiresAt: past,
			},
			want: enums.SubscriptionStatusActive,
		},
		{
			name: "lifetime overrides stale expiry",
			user: model.User{
				SubscriptionType:      enums.SubscriptionTypeLifetime,
				SubscriptionStartAt:   past,
				SubscriptionExpiresAt: past,
			},
			want: enums.SubscriptionStatusActive,
		},
		{
			name: "recurring with future expiry",
			user: model.User{
				SubscriptionType:      enums.SubscriptionTypeRecurring,
				SubscriptionStartAt:   past,
				SubscriptionExpiresAt: future,
			},
			want: enums.SubscriptionStatusActive,
		},
		{
			name: "recurring expired exactly at now",
			user: model.User{
				SubscriptionType:      enums.SubscriptionTypeRecurring,
				SubscriptionStartAt:   past,
				SubscriptionExpiresAt: timePtr(now),
			},
			want: enums.SubscriptionStatusExpired,
		},
		{
			name: "recurring with missing expiry counts as expired",
			user: model.User{
				SubscriptionType:    enums.SubscriptionTypeRecurring,
				SubscriptionStartAt: past,
			},
			want: enums.SubscriptionStatusExpired,
		},
		{
			name: "unknown type with timestamps",
			user: model.User{
				SubscriptionType:    enums.SubscriptionType("corporate"),
				SubscriptionStartAt: past,
			},
			want: enums.SubscriptionStatusNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveStatus(tt.user, now)
			if got != tt.want {
				t.Fatalf("ResolveStatus = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyCryptoPaymentMonthlyExtension(t *testing.T) {
	now := time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC)
	user := model.User{
		SubscriptionStatus: enums.SubscriptionStatusExpired,
		LastBillingDate:    timePtr(now.Add(-40 * 24 * time.Hour)),
		NextBillingDate:    timePtr(now.Add(-10 * 24 * time.Hour)),
	}
	order := model.Order{
		ID:     model.OrderID("ord-1"),
		Period: enums.PlanPeriodMonthly,
	}

	if !ApplyCryptoPayment(&user, order, now) {
		t.Fatal("ApplyCryptoPayment returned false")
	}

	// Jan 31 + 1 month normalizes to Mar 3 per Go date overflow.
	wantExpiry := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	if user.SubscriptionExpiresAt == nil || !user.SubscriptionExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expires at = %v, want %v", user.SubscriptionExpiresAt, wantExpiry)
	}
	if user.SubscriptionPlan != enums.SubscriptionPlanPro {
		t.Fatalf("plan = %q, want pro", user.SubscriptionPlan)
	}
	if user.SubscriptionType != enums.SubscriptionTypeOneTime {
		t.Fatalf("type = %q, want one-time", user.SubscriptionType)
	}
	if user.SubscriptionStatus != enums.SubscriptionStatusActive {
		t.Fatalf("status = %q, want active", user.SubscriptionStatus)
	}
	if user.SubscriptionStartAt == nil || !user.SubscriptionStartAt.Equal(now) {
		t.Fatalf("start at = %v, want %v", user.SubscriptionStartAt, now)
	}
	if user.LastBillingDate != nil || user.NextBillingDate != nil {
		t.Fatal("billing dates were not cleared")
	}
}

func TestApplyCryptoPaymentYearlyExtension(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	user := model.User{}
	order := model.Order{
		ID:     model.OrderID("ord-2"),
		Period: enums.PlanPeriodYearly,
	}

	if !ApplyCryptoPayment(&user, order, now) {
		t.Fatal("ApplyCryptoPayment returned false")
	}

	wantExpiry := now.AddDate(1, 0, 0)
	if user.SubscriptionExpiresAt == nil || !user.SubscriptionExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expires at = %v, want %v", user.SubscriptionExpiresAt, wantExpiry)
	}
}

func TestApplyCryptoPaymentUnknownPeriodGrantsNoExtension(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	user := model.User{}
	order := model.Order{
		ID:     model.OrderID("ord-3"),
		Period: enums.PlanPeriod("weekly"),
	}

	if !ApplyCryptoPayment(&user, order, now) {
		t.Fatal("ApplyCryptoPayment returned false")
	}

	if user.SubscriptionExpiresAt == nil || !user.SubscriptionExpiresAt.Equal(now) {
		t.Fatalf("expires at = %v, want %v", user.SubscriptionExpiresAt, now)
	}
	if user.SubscriptionStatus != enums.SubscriptionStatusActive {
		t.Fatalf("status = %q, want active", user.SubscriptionStatus)
	}
}

func TestApplyCryptoPaymentLifetime(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("period lifetime", func(t *testing.T) {
		user := model.User{
			SubscriptionExpiresAt: timePtr(now.Add(24 * time.Hour)),
		}
		order := model.Order{
			ID:     model.OrderID("ord-4"),
			Period: enums.PlanPeriodLifetime,
		}

		if !ApplyCryptoPayment(&user, order, now) {
			t.Fatal("ApplyCryptoPayment returned false")
		}
		if user.SubscriptionExpiresAt != nil {
			t.Fatalf("expires at = %v, want nil", user.SubscriptionExpiresAt)
		}
		if user.SubscriptionPlan != enums.SubscriptionPlanLifetime {
			t.Fatalf("plan = %q, want lifetime", user.SubscriptionPlan)
		}
		if user.SubscriptionType != enums.SubscriptionTypeLifetime {
			t.Fatalf("type = %q, want lifetime", user.SubscriptionType)
		}
	})

	t.Run("meta override", func(t *testing.T) {
		user := model.User{}
		order := model.Order{
			ID:     model.OrderID("ord-5"),
			Period: enums.PlanPeriodMonthly,
			Meta:   map[string]any{"is_lifetime": true},
		}

		if !ApplyCryptoPayment(&user, order, now) {
			t.Fatal("ApplyCryptoPayment returned false")
		}
		if user.SubscriptionExpiresAt != nil {
			t.Fatalf("expires at = %v, want nil", user.SubscriptionExpiresAt)
		}
		if user.SubscriptionPlan != enums.SubscriptionPlanLifetime {
			t.Fatalf("plan = %q, want lifetime", user.SubscriptionPlan)
		}
	})
}

func TestApplyCryptoPaymentSyncsOrderHistory(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	stale := now.Add(-72 * time.Hour)
	user := model.User{
		Orders: []model.OrderSummary{
			{OrderID: model.OrderID("ord-a"), Status: enums.OrderStatusPaid, UpdatedAt: stale},
			{OrderID: model.OrderID("ord-b"), Status: enums.OrderStatusCreated, UpdatedAt: stale},
			{OrderID: model.OrderID("ord-c"), Status: enums.OrderStatusFailed, UpdatedAt: stale},
		},
	}
	order := model.Order{
		ID:     model.OrderID("ord-b"),
		Period: enums.PlanPeriodMonthly,
	}

	if !ApplyCryptoPayment(&user, order, now) {
		t.Fatal("ApplyCryptoPayment returned false")
	}

	if user.Orders[1].Status != enums.OrderStatusPaid {
		t.Fatalf("matched entry status = %q, want paid", user.Orders[1].Status)
	}
	if !user.Orders[1].UpdatedAt.Equal(now) {
		t.Fatalf("matched entry updated at = %v, want %v", user.Orders[1].UpdatedAt, now)
	}
	if user.Orders[0].Status != enums.OrderStatusPaid || !user.Orders[0].UpdatedAt.Equal(stale) {
		t.Fatal("sibling entry ord-a was touched")
	}
	if user.Orders[2].Status != enums.OrderStatusFailed || !user.Orders[2].UpdatedAt.Equal(stale) {
		t.Fatal("sibling entry ord-c was touched")
	}
}

func TestApplyCryptoPaymentNoMatchIsSilentNoOpOnHistory(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	stale := now.Add(-72 * time.Hour)
	user := model.User{
		Orders: []model.OrderSummary{
			{OrderID: model.OrderID("ord-a"), Status: enums.OrderStatusCreated, UpdatedAt: stale},
		},
	}
	order := model.Order{
		ID:     model.OrderID("ord-missing"),
		Period: enums.PlanPeriodMonthly,
	}

	if !ApplyCryptoPayment(&user, order, now) {
		t.Fatal("ApplyCryptoPayment returned false")
	}

	if user.Orders[0].Status != enums.OrderStatusCreated || !user.Orders[0].UpdatedAt.Equal(stale) {
		t.Fatal("unrelated history entry was touched")
	}
	if user.SubscriptionStatus != enums.SubscriptionStatusActive {
		t.Fatal("subscription fields were not applied")
	}
}

func TestApplyCryptoPaymentMissingInputs(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	if ApplyCryptoPayment(nil, model.Order{ID: model.OrderID("ord-1")}, now) {
		t.Fatal("nil user should not apply")
	}

	user := model.User{SubscriptionStatus: enums.SubscriptionStatusNone}
	if ApplyCryptoPayment(&user, model.Order{}, now) {
		t.Fatal("zero order id should not apply")
	}
	if user.SubscriptionStatus != enums.SubscriptionStatusNone {
		t.Fatal("user was mutated on rejected input")
	}
}
