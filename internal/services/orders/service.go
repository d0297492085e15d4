package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arjunmehta/tradejournal/internal/config"
	"github.com/arjunmehta/tradejournal/internal/domain/enums"
	"github.com/arjunmehta/tradejournal/internal/domain/model"
	pgrepo "github.com/arjunmehta/tradejournal/internal/repo/postgres"
	"github.com/arjunmehta/tradejournal/internal/services/subscriptions"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrUnsupportedPeriod   = errors.New("unsupported plan period")
	ErrOrderNotFound       = errors.New("order not found")
)

type OrderStore interface {
	Create(ctx context.Context, in pgrepo.CreateOrderInput) (model.Order, error)
	FindByID(ctx context.Context, orderID model.OrderID) (model.Order, error)
	FindByProviderTx(ctx context.Context, provider enums.PaymentProvider, providerTxID string) (model.Order, error)
	ListForUser(ctx context.Context, userID int64, limit int) ([]model.Order, error)
	MarkPaid(ctx context.Context, orderID model.OrderID, providerTxID string) (model.Order, bool, error)
	UpdateStatus(ctx context.Context, orderID model.OrderID, status enums.OrderStatus) (model.Order, error)
}

type UserStore interface {
	FindByID(ctx context.Context, userID int64) (model.User, error)
	SaveSubscription(ctx context.Context, user model.User) error
	AppendOrderSummary(ctx context.Context, userID int64, summary model.OrderSummary) error
}

type Service struct {
	orders OrderStore
	users  UserStore
	plans  config.PlansConfig
	now    func() time.Time
}

func NewService(orders OrderStore, users UserStore, plans config.PlansConfig) *Service {
	return &Service{
		orders: orders,
		users:  users,
		plans:  plans,
		now:    time.Now,
	}
}

type CheckoutInput struct {
	Period   string
	Method   string
	Provider string
}

// Checkout creates the order in status created and appends a summary to the
// user's embedded history. Publishing the order for operator review is the
// caller's job.
func (s *Service) Checkout(ctx context.Context, userID int64, in CheckoutInput) (model.Order, error) {
	if userID <= 0 {
		return model.Order{}, ErrValidation
	}
	if s.orders == nil || s.users == nil {
		return model.Order{}, fmt.Errorf("orders dependencies are not configured")
	}

	provider, ok := enums.ParseProvider(in.Provider)
	if !ok {
		return model.Order{}, ErrUnsupportedProvider
	}
	period, ok := parsePeriod(in.Period)
	if !ok {
		return model.Order{}, ErrUnsupportedPeriod
	}
	method, ok := parseMethod(in.Method)
	if !ok {
		return model.Order{}, ErrValidation
	}

	amount := s.plans.AmountFor(string(period))
	if amount <= 0 {
		return model.Order{}, ErrUnsupportedPeriod
	}

	order, err := s.orders.Create(ctx, pgrepo.CreateOrderInput{
		UserID:   userID,
		Amount:   amount,
		Currency: s.plans.Currency,
		Method:   method,
		Provider: provider,
		Period:   period,
	})
	if err != nil {
		return model.Order{}, fmt.Errorf("create order: %w", err)
	}

	summary := model.OrderSummary{
		OrderID:   order.ID,
		Status:    order.Status,
		Amount:    order.Amount,
		Currency:  order.Currency,
		UpdatedAt: order.CreatedAt,
	}
	if err := s.users.AppendOrderSummary(ctx, userID, summary); err != nil {
		return model.Order{}, fmt.Errorf("append order history: %w", err)
	}

	return order, nil
}

type WebhookInput struct {
	OrderID      string
	Provider     string
	ProviderTxID string
	Status       string
}

type WebhookResult struct {
	Order            model.Order
	AlreadyProcessed bool
}

// ConfirmWebhook processes a gateway event. Replays are detected by the
// (provider, provider tx id) pair and return the stored order without a
// second state change. A confirmed crypto order additionally applies the
// subscription onto the user record and persists it.
func (s *Service) ConfirmWebhook(ctx context.Context, in WebhookInput) (WebhookResult, error) {
	if s.orders == nil || s.users == nil {
		return WebhookResult{}, fmt.Errorf("orders dependencies are not configured")
	}

	provider, ok := enums.ParseProvider(in.Provider)
	if !ok {
		return WebhookResult{}, ErrUnsupportedProvider
	}
	providerTxID := strings.TrimSpace(in.ProviderTxID)
	if providerTxID == "" {
		return WebhookResult{}, ErrValidation
	}

	if isFailureStatus(in.Status) {
		return s.failOrder(ctx, in.OrderID)
	}
	if !isConfirmationStatus(in.Status) {
		return WebhookResult{}, ErrValidation
	}

	existing, err := s.orders.FindByProviderTx(ctx, provider, providerTxID)
	if err == nil {
		return WebhookResult{
			Order:            existing,
			AlreadyProcessed: existing.Status == enums.OrderStatusPaid,
		}, nil
	}
	if !errors.Is(err, pgrepo.ErrOrderNotFound) {
		return WebhookResult{}, err
	}

	orderID := model.OrderID(strings.TrimSpace(in.OrderID))
	if orderID.IsZero() {
		return WebhookResult{}, ErrValidation
	}

	order, changed, err := s.orders.MarkPaid(ctx, orderID, providerTxID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrOrderNotFound) {
			return WebhookResult{}, ErrOrderNotFound
		}
		if errors.Is(err, pgrepo.ErrDuplicateProviderTx) {
			conflict, lookupErr := s.orders.FindByProviderTx(ctx, provider, providerTxID)
			if lookupErr == nil {
				return WebhookResult{
					Order:            conflict,
					AlreadyProcessed: conflict.Status == enums.OrderStatusPaid,
				}, nil
			}
		}
		return WebhookResult{}, err
	}

	if !changed {
		return WebhookResult{Order: order, AlreadyProcessed: true}, nil
	}

	if order.Provider == enums.ProviderCrypto {
		if err := s.applyCrypto(ctx, order); err != nil {
			return WebhookResult{}, err
		}
	}

	return WebhookResult{Order: order}, nil
}

func (s *Service) Get(ctx context.Context, userID int64, orderID model.OrderID) (model.Order, error) {
	if userID <= 0 || orderID.IsZero() {
		return model.Order{}, ErrValidation
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrOrderNotFound) {
			return model.Order{}, ErrOrderNotFound
		}
		return model.Order{}, err
	}
	if order.UserID != userID {
		return model.Order{}, ErrOrderNotFound
	}

	return order, nil
}

func (s *Service) ListForUser(ctx context.Context, userID int64, limit int) ([]model.Order, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}
	return s.orders.ListForUser(ctx, userID, limit)
}

func (s *Service) failOrder(ctx context.Context, rawOrderID string) (WebhookResult, error) {
	orderID := model.OrderID(strings.TrimSpace(rawOrderID))
	if orderID.IsZero() {
		return WebhookResult{}, ErrValidation
	}

	order, err := s.orders.UpdateStatus(ctx, orderID, enums.OrderStatusFailed)
	if err != nil {
		if errors.Is(err, pgrepo.ErrOrderNotFound) {
			return WebhookResult{}, ErrOrderNotFound
		}
		return WebhookResult{}, err
	}

	return WebhookResult{Order: order}, nil
}

func (s *Service) applyCrypto(ctx context.Context, order model.Order) error {
	user, err := s.users.FindByID(ctx, order.UserID)
	if err != nil {
		return fmt.Errorf("load user for crypto confirmation: %w", err)
	}

	if !subscriptions.ApplyCryptoPayment(&user, order, s.now().UTC()) {
		return fmt.Errorf("crypto confirmation rejected for order %s", order.ID)
	}

	if err := s.users.SaveSubscription(ctx, user); err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}

	return nil
}

func parsePeriod(raw string) (enums.PlanPeriod, bool) {
	switch enums.PlanPeriod(strings.ToLower(strings.TrimSpace(raw))) {
	case enums.PlanPeriodMonthly:
		return enums.PlanPeriodMonthly, true
	case enums.PlanPeriodYearly:
		return enums.PlanPeriodYearly, true
	case enums.PlanPeriodLifetime:
		return enums.PlanPeriodLifetime, true
	default:
		return "", false
	}
}

func parseMethod(raw string) (enums.PaymentMethod, bool) {
	switch enums.PaymentMethod(strings.ToLower(strings.TrimSpace(raw))) {
	case enums.PaymentMethodUPI:
		return enums.PaymentMethodUPI, true
	case enums.PaymentMethodCard:
		return enums.PaymentMethodCard, true
	case enums.PaymentMethodNetbanking:
		return enums.PaymentMethodNetbanking, true
	case enums.PaymentMethodCrypto:
		return enums.PaymentMethodCrypto, true
	default:
		return "", false
	}
}

func isConfirmationStatus(raw string) bool {
	status := strings.ToLower(strings.TrimSpace(raw))
	if status == "" {
		return true
	}
	switch status {
	case "confirmed", "success", "paid", "captured":
		return true
	default:
		return false
	}
}

func isFailureStatus(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "failed", "failure", "declined":
		return true
	default:
		return false
	}
}
