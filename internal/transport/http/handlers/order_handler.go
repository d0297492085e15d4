package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/arjunmehta/tradejournal/internal/domain/model"
	authsvc "github.com/arjunmehta/tradejournal/internal/services/auth"
	ordersvc "github.com/arjunmehta/tradejournal/internal/services/orders"
	"github.com/arjunmehta/tradejournal/internal/transport/http/dto"
	httperrors "github.com/arjunmehta/tradejournal/internal/transport/http/errors"
)

// ReviewPublisher forwards a fresh order to the operator chat. nil means the
// bot side is not configured and checkout proceeds without a notification.
type ReviewPublisher interface {
	PublishOrder(ctx context.Context, order model.Order) (int, error)
}

type OrderHandler struct {
	service   *ordersvc.Service
	publisher ReviewPublisher
	log       *zap.Logger
}

func NewOrderHandler(service *ordersvc.Service, publisher ReviewPublisher, log *zap.Logger) *OrderHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderHandler{service: service, publisher: publisher, log: log}
}

func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "ORDER_SERVICE_UNAVAILABLE", "order service is unavailable")
		return
	}

	var req dto.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	order, err := h.service.Checkout(r.Context(), identity.UserID, ordersvc.CheckoutInput{
		Period:   req.Period,
		Method:   req.Method,
		Provider: req.Provider,
	})
	if err != nil {
		handleOrderError(w, err)
		return
	}

	if h.publisher != nil {
		if _, err := h.publisher.PublishOrder(r.Context(), order); err != nil {
			h.log.Warn("publish order for review",
				zap.String("order_id", string(order.ID)),
				zap.Error(err))
		}
	}

	httperrors.Write(w, http.StatusCreated, dto.OrderResponseFrom(order))
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	orderID := model.OrderID(strings.TrimSpace(chi.URLParam(r, "orderID")))
	order, err := h.service.Get(r.Context(), identity.UserID, orderID)
	if err != nil {
		handleOrderError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OrderResponseFrom(order))
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	orders, err := h.service.ListForUser(r.Context(), identity.UserID, limit)
	if err != nil {
		handleOrderError(w, err)
		return
	}

	items := make([]dto.OrderResponse, 0, len(orders))
	for _, order := range orders {
		items = append(items, dto.OrderResponseFrom(order))
	}

	httperrors.Write(w, http.StatusOK, dto.OrderListResponse{Orders: items})
}

func handleOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ordersvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid order request")
	case errors.Is(err, ordersvc.ErrUnsupportedProvider):
		writeBadRequest(w, "UNSUPPORTED_PROVIDER", "payment provider is not supported")
	case errors.Is(err, ordersvc.ErrUnsupportedPeriod):
		writeBadRequest(w, "UNSUPPORTED_PERIOD", "plan period is not supported")
	case errors.Is(err, ordersvc.ErrOrderNotFound):
		writeNotFound(w, "ORDER_NOT_FOUND", "order not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
