package enums

import "strings"

// OrderStatus is the single vocabulary for order state. Operator review
// actions and gateway webhooks both land on this enum; there is no separate
// "telegram status" field on the record.
type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "created"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusCaptured  OrderStatus = "captured"
	OrderStatusNeedsEdit OrderStatus = "needs_edit"
)

func ParseOrderStatus(raw string) (OrderStatus, bool) {
	switch OrderStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case OrderStatusCreated:
		return OrderStatusCreated, true
	case OrderStatusPaid:
		return OrderStatusPaid, true
	case OrderStatusFailed:
		return OrderStatusFailed, true
	case OrderStatusCaptured:
		return OrderStatusCaptured, true
	case OrderStatusNeedsEdit:
		return OrderStatusNeedsEdit, true
	default:
		return "", false
	}
}

type PaymentMethod string

const (
	PaymentMethodUPI        PaymentMethod = "upi"
	PaymentMethodCard       PaymentMethod = "card"
	PaymentMethodNetbanking PaymentMethod = "netbanking"
	PaymentMethodCrypto     PaymentMethod = "crypto"
)

type PaymentProvider string

const (
	ProviderRazorpay PaymentProvider = "razorpay"
	ProviderPhonePe  PaymentProvider = "phonepe"
	ProviderPaddle   PaymentProvider = "paddle"
	ProviderCrypto   PaymentProvider = "crypto"
)

func ParseProvider(raw string) (PaymentProvider, bool) {
	switch PaymentProvider(strings.ToLower(strings.TrimSpace(raw))) {
	case ProviderRazorpay:
		return ProviderRazorpay, true
	case ProviderPhonePe:
		return ProviderPhonePe, true
	case ProviderPaddle:
		return ProviderPaddle, true
	case ProviderCrypto:
		return ProviderCrypto, true
	default:
		return "", false
	}
}
