package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/arjunmehta/tradejournal/internal/services/auth"
	subsvc "github.com/arjunmehta/tradejournal/internal/services/subscriptions"
	"github.com/arjunmehta/tradejournal/internal/transport/http/dto"
	httperrors "github.com/arjunmehta/tradejournal/internal/transport/http/errors"

	pgrepo "github.com/arjunmehta/tradejournal/internal/repo/postgres"
)

type SubscriptionHandler struct {
	service *subsvc.Service
	users   subsvc.UserStore
}

func NewSubscriptionHandler(service *subsvc.Service, users subsvc.UserStore) *SubscriptionHandler {
	return &SubscriptionHandler{service: service, users: users}
}

// Me reports the caller's derived subscription status along with the stored
// plan fields.
func (h *SubscriptionHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil || h.users == nil {
		writeInternal(w, "SUBSCRIPTION_SERVICE_UNAVAILABLE", "subscription service is unavailable")
		return
	}

	status, err := h.service.Status(r.Context(), identity.UserID)
	if err != nil {
		switch {
		case errors.Is(err, subsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid subscription request")
		case errors.Is(err, pgrepo.ErrUserNotFound):
			writeNotFound(w, "USER_NOT_FOUND", "user not found")
		default:
			writeInternal(w, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	user, err := h.users.FindByID(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SubscriptionResponse{
		Status:    string(status),
		Plan:      string(user.SubscriptionPlan),
		Type:      string(user.SubscriptionType),
		StartAt:   user.SubscriptionStartAt,
		ExpiresAt: user.SubscriptionExpiresAt,
	})
}
