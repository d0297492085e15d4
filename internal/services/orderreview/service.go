package orderreview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arjunmehta/tradejournal/internal/config"
	"github.com/arjunmehta/tradejournal/internal/domain/enums"
	"github.com/arjunmehta/tradejournal/internal/domain/model"
	pgrepo "github.com/arjunmehta/tradejournal/internal/repo/postgres"
)

var ErrValidation = errors.New("validation error")

type OrderStore interface {
	FindByID(ctx context.Context, orderID model.OrderID) (model.Order, error)
	UpdateStatus(ctx context.Context, orderID model.OrderID, status enums.OrderStatus) (model.Order, error)
	SetTelegramMessage(ctx context.Context, orderID model.OrderID, messageID int) error
	ListByStatus(ctx context.Context, status enums.OrderStatus, limit int) ([]model.Order, error)
}

type UserStore interface {
	FindByID(ctx context.Context, userID int64) (model.User, error)
}

type Notifier interface {
	SendOrderReview(ctx context.Context, chatID int64, text, orderID string) (int, error)
	EditMessageText(ctx context.Context, chatID int64, messageID int, text string) error
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
}

// Service forwards new orders to the operator chat and applies the operator's
// button presses back onto the order record.
type Service struct {
	orders   OrderStore
	users    UserStore
	notifier Notifier
	log      *zap.Logger

	reviewChatID int64
	operators    map[int64]struct{}
}

func NewService(orders OrderStore, users UserStore, notifier Notifier, cfg config.BotConfig, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}

	operators := make(map[int64]struct{})
	if cfg.OperatorID > 0 {
		operators[cfg.OperatorID] = struct{}{}
	}
	for _, id := range cfg.OperatorAllowList() {
		operators[id] = struct{}{}
	}

	return &Service{
		orders:       orders,
		users:        users,
		notifier:     notifier,
		log:          log,
		reviewChatID: cfg.ReviewChatID,
		operators:    operators,
	}
}

// Publish sends the order snapshot with approve/fail/edit buttons and stores
// the returned message id on the order. The send is not transactional with
// the persist: when persisting fails the message is already out, so the
// handle is returned alongside the error and the caller decides what to do
// with it.
func (s *Service) Publish(ctx context.Context, order model.Order, user model.User) (int, error) {
	if order.ID.IsZero() {
		return 0, ErrValidation
	}
	if s.notifier == nil || s.orders == nil {
		return 0, fmt.Errorf("order review dependencies are not configured")
	}

	chatID := s.reviewChatID
	if order.ReviewChatID != nil && *order.ReviewChatID != 0 {
		chatID = *order.ReviewChatID
	}
	if chatID == 0 {
		return 0, fmt.Errorf("no review chat configured for order %s", order.ID)
	}

	messageID, err := s.notifier.SendOrderReview(ctx, chatID, renderOrderText(order, user), string(order.ID))
	if err != nil {
		return 0, fmt.Errorf("send order review: %w", err)
	}

	if err := s.orders.SetTelegramMessage(ctx, order.ID, messageID); err != nil {
		return messageID, fmt.Errorf("persist review message id: %w", err)
	}

	return messageID, nil
}

// PublishOrder is Publish with the user looked up from the store. A missing
// user still publishes; the snapshot falls back to the numeric user id.
func (s *Service) PublishOrder(ctx context.Context, order model.Order) (int, error) {
	var user model.User
	if s.users != nil {
		loaded, err := s.users.FindByID(ctx, order.UserID)
		if err != nil {
			s.log.Warn("load user for order publish",
				zap.Int64("user_id", order.UserID),
				zap.Error(err))
		} else {
			user = loaded
		}
	}
	return s.Publish(ctx, order, user)
}

type Callback struct {
	CallbackID string
	ChatID     int64
	MessageID  int
	UserID     int64
	Data       string
}

type Result struct {
	OK     bool
	Reason string
	Order  model.Order
}

// HandleCallback processes one operator button press. Unauthorized presses
// are answered with a blocking alert before any store access; a press on an
// order that has since been deleted answers with a toast. The status write is
// a plain last-write-wins update, and a failed message edit after the write
// propagates without undoing it.
func (s *Service) HandleCallback(ctx context.Context, cb Callback) (Result, error) {
	data := strings.TrimSpace(cb.Data)
	if data == "" {
		return Result{}, nil
	}

	if _, ok := s.operators[cb.UserID]; !ok {
		if err := s.notifier.AnswerCallback(ctx, cb.CallbackID, "Unauthorized", true); err != nil {
			s.log.Warn("answer unauthorized callback", zap.Error(err))
		}
		return Result{Reason: "unauthorized"}, nil
	}

	action, rawID := splitCallbackToken(data)
	orderID := model.OrderID(rawID)
	if orderID.IsZero() {
		return Result{}, nil
	}
	status := statusForAction(action)

	if _, err := s.orders.FindByID(ctx, orderID); err != nil {
		if errors.Is(err, pgrepo.ErrOrderNotFound) {
			if answerErr := s.notifier.AnswerCallback(ctx, cb.CallbackID, "Order not found", false); answerErr != nil {
				s.log.Warn("answer missing order callback", zap.Error(answerErr))
			}
			return Result{Reason: "order not found"}, nil
		}
		return Result{}, fmt.Errorf("load order for callback: %w", err)
	}

	updated, err := s.orders.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return Result{}, fmt.Errorf("apply callback status: %w", err)
	}

	user, userErr := s.users.FindByID(ctx, updated.UserID)
	if userErr != nil {
		s.log.Warn("load user for review snapshot",
			zap.Int64("user_id", updated.UserID),
			zap.Error(userErr))
	}

	result := Result{OK: true, Order: updated}

	if err := s.notifier.EditMessageText(ctx, cb.ChatID, cb.MessageID, renderOrderText(updated, user)); err != nil {
		return result, fmt.Errorf("edit review message: %w", err)
	}

	toast := fmt.Sprintf("Order marked as %s", updated.Status)
	if err := s.notifier.AnswerCallback(ctx, cb.CallbackID, toast, false); err != nil {
		s.log.Warn("answer callback", zap.Error(err))
	}

	return result, nil
}

// Pending returns orders still awaiting an operator decision, oldest first.
func (s *Service) Pending(ctx context.Context, limit int) ([]model.Order, error) {
	return s.orders.ListByStatus(ctx, enums.OrderStatusCreated, limit)
}

// Authorized reports whether the telegram user may operate the review chat.
func (s *Service) Authorized(userID int64) bool {
	_, ok := s.operators[userID]
	return ok
}

func splitCallbackToken(data string) (action, orderID string) {
	parts := strings.SplitN(data, "_", 2)
	if len(parts) != 2 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}

func statusForAction(action string) enums.OrderStatus {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "approve":
		return enums.OrderStatusPaid
	case "fail":
		return enums.OrderStatusFailed
	case "edit":
		return enums.OrderStatusNeedsEdit
	default:
		return enums.OrderStatusCreated
	}
}

func renderOrderText(order model.Order, user model.User) string {
	identity := strings.TrimSpace(user.Name)
	if user.Email != "" {
		if identity != "" {
			identity += " "
		}
		identity += "(" + user.Email + ")"
	}
	if identity == "" {
		identity = fmt.Sprintf("user #%d", order.UserID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Order %s\n", order.ID)
	fmt.Fprintf(&b, "From: %s\n", identity)
	fmt.Fprintf(&b, "Amount: %s %s\n", formatAmount(order.Amount), order.Currency)
	fmt.Fprintf(&b, "Period: %s via %s\n", order.Period, order.Provider)
	fmt.Fprintf(&b, "Status: %s\n", order.Status)
	fmt.Fprintf(&b, "Updated: %s", order.UpdatedAt.UTC().Format(time.RFC3339))
	return b.String()
}

func formatAmount(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}
