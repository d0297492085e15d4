package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	ordersvc "github.com/arjunmehta/tradejournal/internal/services/orders"
	"github.com/arjunmehta/tradejournal/internal/transport/http/dto"
	httperrors "github.com/arjunmehta/tradejournal/internal/transport/http/errors"
)

// WebhookHandler receives gateway payment events. The provider comes from the
// URL, everything else from the body; the service de-duplicates replays.
type WebhookHandler struct {
	service *ordersvc.Service
	log     *zap.Logger
}

func NewWebhookHandler(service *ordersvc.Service, log *zap.Logger) *WebhookHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WebhookHandler{service: service, log: log}
}

func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "ORDER_SERVICE_UNAVAILABLE", "order service is unavailable")
		return
	}

	provider := strings.TrimSpace(chi.URLParam(r, "provider"))

	var req dto.WebhookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	res, err := h.service.ConfirmWebhook(r.Context(), ordersvc.WebhookInput{
		OrderID:      req.OrderID,
		Provider:     provider,
		ProviderTxID: req.ProviderTxID,
		Status:       req.Status,
	})
	if err != nil {
		h.log.Warn("webhook rejected",
			zap.String("provider", provider),
			zap.String("order_id", req.OrderID),
			zap.Error(err))
		handleOrderError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.WebhookResponse{
		OrderID:          string(res.Order.ID),
		Status:           string(res.Order.Status),
		AlreadyProcessed: res.AlreadyProcessed,
	})
}
