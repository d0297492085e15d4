package orderreview

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/arjunmehta/tradejournal/internal/config"
	"github.com/arjunmehta/tradejournal/internal/domain/enums"
	"github.com/arjunmehta/tradejournal/internal/domain/model"
	pgrepo "github.com/arjunmehta/tradejournal/internal/repo/postgres"
)

type stubOrderStore struct {
	orders map[model.OrderID]model.Order
	calls  int

	messageIDs    map[model.OrderID]int
	setMessageErr error
	statusWrites  []enums.OrderStatus
}

func newStubOrderStore() *stubOrderStore {
	return &stubOrderStore{
		orders:     map[model.OrderID]model.Order{},
		messageIDs: map[model.OrderID]int{},
	}
}

func (s *stubOrderStore) FindByID(_ context.Context, orderID model.OrderID) (model.Order, error) {
	s.calls++
	order, ok := s.orders[orderID]
	if !ok {
		return model.Order{}, pgrepo.ErrOrderNotFound
	}
	return order, nil
}

func (s *stubOrderStore) UpdateStatus(_ context.Context, orderID model.OrderID, status enums.OrderStatus) (model.Order, error) {
	s.calls++
	order, ok := s.orders[orderID]
	if !ok {
		return model.Order{}, pgrepo.ErrOrderNotFound
	}
	order.Status = status
	order.UpdatedAt = time.Now().UTC()
	s.orders[orderID] = order
	s.statusWrites = append(s.statusWrites, status)
	return order, nil
}

func (s *stubOrderStore) SetTelegramMessage(_ context.Context, orderID model.OrderID, messageID int) error {
	s.calls++
	if s.setMessageErr != nil {
		return s.setMessageErr
	}
	s.messageIDs[orderID] = messageID
	return nil
}

func (s *stubOrderStore) ListByStatus(_ context.Context, status enums.OrderStatus, _ int) ([]model.Order, error) {
	s.calls++
	var out []model.Order
	for _, order := range s.orders {
		if order.Status == status {
			out = append(out, order)
		}
	}
	return out, nil
}

type stubUserStore struct {
	users map[int64]model.User
}

func (s *stubUserStore) FindByID(_ context.Context, userID int64) (model.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return model.User{}, pgrepo.ErrUserNotFound
	}
	return user, nil
}

type notifierCall struct {
	kind  string
	chat  int64
	msg   int
	text  string
	alert bool
}

type stubNotifier struct {
	calls   []notifierCall
	sendID  int
	editErr error
}

func (n *stubNotifier) SendOrderReview(_ context.Context, chatID int64, text, orderID string) (int, error) {
	n.calls = append(n.calls, notifierCall{kind: "send", chat: chatID, text: text})
	if n.sendID == 0 {
		n.sendID = 1000
	}
	return n.sendID, nil
}

func (n *stubNotifier) EditMessageText(_ context.Context, chatID int64, messageID int, text string) error {
	n.calls = append(n.calls, notifierCall{kind: "edit", chat: chatID, msg: messageID, text: text})
	return n.editErr
}

func (n *stubNotifier) AnswerCallback(_ context.Context, callbackID, text string, alert bool) error {
	n.calls = append(n.calls, notifierCall{kind: "answer", text: text, alert: alert})
	return nil
}

func (n *stubNotifier) last(kind string) (notifierCall, bool) {
	for i := len(n.calls) - 1; i >= 0; i-- {
		if n.calls[i].kind == kind {
			return n.calls[i], true
		}
	}
	return notifierCall{}, false
}

const (
	operatorID  = int64(500)
	extraOpID   = int64(501)
	strangerID  = int64(999)
	defaultChat = int64(-100200300)
)

func newBridgeForTest() (*Service, *stubOrderStore, *stubNotifier) {
	orderStore := newStubOrderStore()
	userStore := &stubUserStore{users: map[int64]model.User{
		7: {ID: 7, Name: "Asha", Email: "asha@example.com"},
	}}
	notifier := &stubNotifier{}
	cfg := config.BotConfig{
		ReviewChatID:     defaultChat,
		OperatorID:       operatorID,
		ExtraOperatorIDs: " 501 , , abc ",
	}
	svc := NewService(orderStore, userStore, notifier, cfg, nil)
	return svc, orderStore, notifier
}

func seedOrder(store *stubOrderStore, id string) model.Order {
	order := model.Order{
		ID:       model.OrderID(id),
		UserID:   7,
		Amount:   49900,
		Currency: "INR",
		Provider: enums.ProviderCrypto,
		Period:   enums.PlanPeriodMonthly,
		Status:   enums.OrderStatusCreated,
	}
	store.orders[order.ID] = order
	return order
}

func TestPublishSendsAndPersistsHandle(t *testing.T) {
	svc, store, notifier := newBridgeForTest()
	order := seedOrder(store, "ord-1")

	msgID, err := svc.Publish(context.Background(), order, model.User{ID: 7, Name: "Asha", Email: "asha@example.com"})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if msgID != 1000 {
		t.Fatalf("message id = %d, want 1000", msgID)
	}
	if store.messageIDs[order.ID] != 1000 {
		t.Fatalf("persisted handle = %d, want 1000", store.messageIDs[order.ID])
	}

	sent, ok := notifier.last("send")
	if !ok {
		t.Fatal("no review message was sent")
	}
	if sent.chat != defaultChat {
		t.Fatalf("sent to chat %d, want default %d", sent.chat, defaultChat)
	}
	for _, want := range []string{"ord-1", "Asha", "asha@example.com", "499.00 INR", "created"} {
		if !strings.Contains(sent.text, want) {
			t.Fatalf("review text missing %q:\n%s", want, sent.text)
		}
	}
}

func TestPublishPrefersOrderReviewChat(t *testing.T) {
	svc, store, notifier := newBridgeForTest()
	order := seedOrder(store, "ord-2")
	chat := int64(-42)
	order.ReviewChatID = &chat

	if _, err := svc.Publish(context.Background(), order, model.User{ID: 7}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	sent, _ := notifier.last("send")
	if sent.chat != chat {
		t.Fatalf("sent to chat %d, want order chat %d", sent.chat, chat)
	}
}

func TestRepublishSendsAgainAndOverwritesHandle(t *testing.T) {
	svc, store, notifier := newBridgeForTest()
	order := seedOrder(store, "ord-7")

	if _, err := svc.Publish(context.Background(), order, model.User{ID: 7}); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	notifier.sendID = 2000
	msgID, err := svc.Publish(context.Background(), order, model.User{ID: 7})
	if err != nil {
		t.Fatalf("second publish: %v", err)
	}

	sends := 0
	for _, call := range notifier.calls {
		if call.kind == "send" {
			sends++
		}
	}
	if sends != 2 {
		t.Fatalf("send count = %d, want 2", sends)
	}
	if msgID != 2000 || store.messageIDs[order.ID] != 2000 {
		t.Fatalf("handle = %d (stored %d), want the newest 2000", msgID, store.messageIDs[order.ID])
	}
}

func TestPublishReturnsHandleWhenPersistFails(t *testing.T) {
	svc, store, _ := newBridgeForTest()
	order := seedOrder(store, "ord-3")
	store.setMessageErr = errors.New("db down")

	msgID, err := svc.Publish(context.Background(), order, model.User{ID: 7})
	if err == nil {
		t.Fatal("expected error from failed persist")
	}
	if msgID != 1000 {
		t.Fatalf("message id = %d, want the already-sent handle 1000", msgID)
	}
}

func TestHandleCallbackApprove(t *testing.T) {
	svc, store, notifier := newBridgeForTest()
	order := seedOrder(store, "ord-4")

	res, err := svc.HandleCallback(context.Background(), Callback{
		CallbackID: "cb1",
		ChatID:     defaultChat,
		MessageID:  1000,
		UserID:     operatorID,
		Data:       "approve_ord-4",
	})
	if err != nil {
		t.Fatalf("handle callback: %v", err)
	}
	if !res.OK {
		t.Fatalf("result not ok: %+v", res)
	}
	if res.Order.Status != enums.OrderStatusPaid {
		t.Fatalf("order status = %q, want paid", res.Order.Status)
	}
	if store.orders[order.ID].Status != enums.OrderStatusPaid {
		t.Fatal("status was not persisted")
	}

	edit, ok := notifier.last("edit")
	if !ok {
		t.Fatal("review message was not edited")
	}
	if edit.msg != 1000 || !strings.Contains(edit.text, "paid") {
		t.Fatalf("edit = %+v", edit)
	}
	answer, _ := notifier.last("answer")
	if answer.text != "Order marked as paid" || answer.alert {
		t.Fatalf("answer = %+v, want non-alert toast", answer)
	}
}

func TestHandleCallbackActionMapping(t *testing.T) {
	tests := []struct {
		action string
		want   enums.OrderStatus
	}{
		{"approve", enums.OrderStatusPaid},
		{"fail", enums.OrderStatusFailed},
		{"edit", enums.OrderStatusNeedsEdit},
		{"archive", enums.OrderStatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			svc, store, _ := newBridgeForTest()
			order := seedOrder(store, "ord-5")

			res, err := svc.HandleCallback(context.Background(), Callback{
				CallbackID: "cb",
				ChatID:     defaultChat,
				MessageID:  1,
				UserID:     extraOpID,
				Data:       tt.action + "_" + string(order.ID),
			})
			if err != nil {
				t.Fatalf("handle callback: %v", err)
			}
			if res.Order.Status != tt.want {
				t.Fatalf("status = %q, want %q", res.Order.Status, tt.want)
			}
		})
	}
}

func TestHandleCallbackUnauthorized(t *testing.T) {
	svc, store, notifier := newBridgeForTest()
	seedOrder(store, "ord-6")

	res, err := svc.HandleCallback(context.Background(), Callback{
		CallbackID: "cb",
		ChatID:     defaultChat,
		MessageID:  1,
		UserID:     strangerID,
		Data:       "approve_ord-6",
	})
	if err != nil {
		t.Fatalf("handle callback: %v", err)
	}
	if res.OK || res.Reason != "unauthorized" {
		t.Fatalf("result = %+v, want unauthorized rejection", res)
	}
	if store.calls != 0 {
		t.Fatalf("store calls = %d, want 0 for unauthorized press", store.calls)
	}

	answer, ok := notifier.last("answer")
	if !ok {
		t.Fatal("no alert was sent")
	}
	if answer.text != "Unauthorized" || !answer.alert {
		t.Fatalf("answer = %+v, want blocking Unauthorized alert", answer)
	}
}

func TestHandleCallbackMissingOrder(t *testing.T) {
	svc, _, notifier := newBridgeForTest()

	res, err := svc.HandleCallback(context.Background(), Callback{
		CallbackID: "cb",
		ChatID:     defaultChat,
		MessageID:  1,
		UserID:     operatorID,
		Data:       "approve_ord-gone",
	})
	if err != nil {
		t.Fatalf("handle callback: %v", err)
	}
	if res.OK || res.Reason != "order not found" {
		t.Fatalf("result = %+v, want order-not-found rejection", res)
	}

	answer, _ := notifier.last("answer")
	if answer.text != "Order not found" || answer.alert {
		t.Fatalf("answer = %+v, want non-blocking toast", answer)
	}
}

func TestHandleCallbackEmptyDataIsNoOp(t *testing.T) {
	svc, store, notifier := newBridgeForTest()
	seedOrder(store, "ord-7")

	res, err := svc.HandleCallback(context.Background(), Callback{
		CallbackID: "cb",
		UserID:     operatorID,
		Data:       "  ",
	})
	if err != nil {
		t.Fatalf("handle callback: %v", err)
	}
	if res.OK {
		t.Fatal("empty data produced a result")
	}
	if store.calls != 0 || len(notifier.calls) != 0 {
		t.Fatal("empty data touched stores or telegram")
	}
}

func TestHandleCallbackLastWriteWins(t *testing.T) {
	svc, store, _ := newBridgeForTest()
	order := seedOrder(store, "ord-8")

	for _, data := range []string{"approve_ord-8", "fail_ord-8"} {
		if _, err := svc.HandleCallback(context.Background(), Callback{
			CallbackID: "cb",
			ChatID:     defaultChat,
			MessageID:  1,
			UserID:     operatorID,
			Data:       data,
		}); err != nil {
			t.Fatalf("handle %q: %v", data, err)
		}
	}

	if got := store.orders[order.ID].Status; got != enums.OrderStatusFailed {
		t.Fatalf("final status = %q, want the later write failed", got)
	}
	if len(store.statusWrites) != 2 {
		t.Fatalf("status writes = %d, want both presses applied", len(store.statusWrites))
	}
}

func TestHandleCallbackEditFailureKeepsStatusWrite(t *testing.T) {
	svc, store, notifier := newBridgeForTest()
	order := seedOrder(store, "ord-9")
	notifier.editErr = errors.New("message to edit not found")

	res, err := svc.HandleCallback(context.Background(), Callback{
		CallbackID: "cb",
		ChatID:     defaultChat,
		MessageID:  1,
		UserID:     operatorID,
		Data:       "approve_ord-9",
	})
	if err == nil {
		t.Fatal("expected edit failure to propagate")
	}
	if !res.OK || res.Order.Status != enums.OrderStatusPaid {
		t.Fatalf("result = %+v, want applied order returned with the error", res)
	}
	if store.orders[order.ID].Status != enums.OrderStatusPaid {
		t.Fatal("status write was rolled back")
	}
}

func TestPendingListsCreatedOrders(t *testing.T) {
	svc, store, _ := newBridgeForTest()
	seedOrder(store, "ord-a")
	paid := seedOrder(store, "ord-b")
	paid.Status = enums.OrderStatusPaid
	store.orders[paid.ID] = paid

	pending, err := svc.Pending(context.Background(), 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != model.OrderID("ord-a") {
		t.Fatalf("pending = %+v, want only ord-a", pending)
	}
}
