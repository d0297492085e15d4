package dto

import (
	"time"

	"github.com/arjunmehta/tradejournal/internal/domain/model"
)

type CheckoutRequest struct {
	Period   string `json:"period"`
	Method   string `json:"method"`
	Provider string `json:"provider"`
}

type OrderResponse struct {
	ID        string    `json:"id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Method    string    `json:"method"`
	Provider  string    `json:"provider"`
	Status    string    `json:"status"`
	Period    string    `json:"period"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
}

type WebhookRequest struct {
	OrderID      string `json:"order_id"`
	ProviderTxID string `json:"provider_tx_id"`
	Status       string `json:"status"`
}

type WebhookResponse struct {
	OrderID          string `json:"order_id"`
	Status           string `json:"status"`
	AlreadyProcessed bool   `json:"already_processed"`
}

func OrderResponseFrom(order model.Order) OrderResponse {
	return OrderResponse{
		ID:        string(order.ID),
		Amount:    order.Amount,
		Currency:  order.Currency,
		Method:    string(order.Method),
		Provider:  string(order.Provider),
		Status:    string(order.Status),
		Period:    string(order.Period),
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
}
