package model

import (
	"strings"
	"time"

	"github.com/arjunmehta/tradejournal/internal/domain/enums"
)

// OrderID is the canonical order identifier. Both the orders table and the
// user's embedded order history carry this exact type, so joins are plain
// equality instead of stringify-and-compare.
type OrderID string

func (id OrderID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

func (id OrderID) String() string {
	return string(id)
}

type Order struct {
	ID     OrderID `json:"id"`
	UserID int64   `json:"user_id"`

	// Amount is in minor currency units.
	Amount   int64                 `json:"amount"`
	Currency string                `json:"currency"`
	Method   enums.PaymentMethod   `json:"method"`
	Provider enums.PaymentProvider `json:"provider"`
	Status   enums.OrderStatus     `json:"status"`
	Period   enums.PlanPeriod      `json:"period"`

	// ProviderTxID is the externally issued transaction id. At most one order
	// exists per value; the unique index enforces it.
	ProviderTxID *string `json:"provider_tx_id"`

	// Meta is an open-ended payload; a true "is_lifetime" entry overrides the
	// period when the crypto post-processor runs.
	Meta map[string]any `json:"meta"`

	// ReviewChatID overrides the default operator chat for this order.
	ReviewChatID *int64 `json:"review_chat_id"`

	// TelegramMessageID is set once the review notification is published and
	// is never cleared afterwards.
	TelegramMessageID *int `json:"telegram_message_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsLifetime reports whether this order grants a lifetime plan, either via its
// period or the meta override.
func (o Order) IsLifetime() bool {
	if o.Period == enums.PlanPeriodLifetime {
		return true
	}
	v, ok := o.Meta["is_lifetime"]
	if !ok {
		return false
	}
	flag, ok := v.(bool)
	return ok && flag
}
