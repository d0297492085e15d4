package model

import (
	"time"

	"github.com/arjunmehta/tradejournal/internal/domain/enums"
)

// OrderSummary is the denormalized copy of an order kept on the user record.
// It is synced manually after payment confirmation; the orders table stays
// authoritative.
type OrderSummary struct {
	OrderID   OrderID           `json:"order_id"`
	Status    enums.OrderStatus `json:"status"`
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Timezone string `json:"timezone"`

	SubscriptionPlan      enums.SubscriptionPlan   `json:"subscription_plan"`
	SubscriptionType      enums.SubscriptionType   `json:"subscription_type"`
	SubscriptionStatus    enums.SubscriptionStatus `json:"subscription_status"`
	SubscriptionStartAt   *time.Time               `json:"subscription_start_at"`
	SubscriptionExpiresAt *time.Time               `json:"subscription_expires_at"`
	SubscriptionCreatedAt *time.Time               `json:"subscription_created_at"`
	LastBillingDate       *time.Time               `json:"last_billing_date"`
	NextBillingDate       *time.Time               `json:"next_billing_date"`

	Orders []OrderSummary `json:"orders"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
