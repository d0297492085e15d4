package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/arjunmehta/tradejournal/internal/services/auth"
	tradesvc "github.com/arjunmehta/tradejournal/internal/services/trades"
	"github.com/arjunmehta/tradejournal/internal/transport/http/dto"
	httperrors "github.com/arjunmehta/tradejournal/internal/transport/http/errors"
)

const maxScreenshotUploadSize = 10 << 20 // 10 MiB

type TradeHandler struct {
	service *tradesvc.Service
}

func NewTradeHandler(service *tradesvc.Service) *TradeHandler {
	return &TradeHandler{service: service}
}

func (h *TradeHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.TradeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	trade, err := h.service.Create(r.Context(), identity.UserID, tradeInput(req))
	if err != nil {
		handleTradeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.TradeResponseFrom(trade))
}

func (h *TradeHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	tradeID := strings.TrimSpace(chi.URLParam(r, "tradeID"))

	var req dto.TradeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	trade, err := h.service.Update(r.Context(), identity.UserID, tradeID, tradeInput(req))
	if err != nil {
		handleTradeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.TradeResponseFrom(trade))
}

func (h *TradeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	tradeID := strings.TrimSpace(chi.URLParam(r, "tradeID"))
	if err := h.service.Delete(r.Context(), identity.UserID, tradeID); err != nil {
		handleTradeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TradeHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	tradeID := strings.TrimSpace(chi.URLParam(r, "tradeID"))
	trade, err := h.service.Get(r.Context(), identity.UserID, tradeID)
	if err != nil {
		handleTradeError(w, err)
		return
	}

	resp := dto.TradeResponseFrom(trade)
	// Presign failure leaves the raw key in the response instead of failing
	// the whole read.
	if url, err := h.service.ScreenshotLink(r.Context(), trade); err == nil {
		resp.ScreenshotURL = url
	}

	httperrors.Write(w, http.StatusOK, resp)
}

func (h *TradeHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))

	trades, err := h.service.List(r.Context(), identity.UserID, query.Get("symbol"), limit, offset)
	if err != nil {
		handleTradeError(w, err)
		return
	}

	items := make([]dto.TradeResponse, 0, len(trades))
	for _, trade := range trades {
		items = append(items, dto.TradeResponseFrom(trade))
	}

	httperrors.Write(w, http.StatusOK, dto.TradeListResponse{Trades: items})
}

func (h *TradeHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	stats, err := h.service.Dashboard(r.Context(), identity.UserID)
	if err != nil {
		handleTradeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.DashboardResponse{
		TotalTrades: stats.TotalTrades,
		Wins:        stats.Wins,
		Losses:      stats.Losses,
		WinRate:     stats.WinRate,
		NetPnL:      stats.NetPnL,
		BestSymbol:  stats.BestSymbol,
		WorstSymbol: stats.WorstSymbol,
	})
}

func (h *TradeHandler) UploadScreenshot(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	tradeID := strings.TrimSpace(chi.URLParam(r, "tradeID"))

	r.Body = http.MaxBytesReader(w, r.Body, maxScreenshotUploadSize)
	if err := r.ParseMultipartForm(maxScreenshotUploadSize); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "file is required")
		return
	}
	defer file.Close()

	if header == nil || header.Size <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "file is empty")
		return
	}

	contentType := header.Header.Get("Content-Type")
	key, err := h.service.AttachScreenshot(r.Context(), identity.UserID, tradeID, file, header.Size, contentType)
	if err != nil {
		handleTradeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ScreenshotResponse{Key: key})
}

func tradeInput(req dto.TradeRequest) tradesvc.UpsertInput {
	return tradesvc.UpsertInput{
		Symbol:     req.Symbol,
		Side:       req.Side,
		Quantity:   req.Quantity,
		EntryPrice: req.EntryPrice,
		ExitPrice:  req.ExitPrice,
		Fees:       req.Fees,
		Strategy:   req.Strategy,
		Notes:      req.Notes,
		OpenedAt:   req.OpenedAt,
		ClosedAt:   req.ClosedAt,
	}
}

func handleTradeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tradesvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid trade request")
	case errors.Is(err, tradesvc.ErrTradeNotFound):
		writeNotFound(w, "TRADE_NOT_FOUND", "trade not found")
	case errors.Is(err, tradesvc.ErrUnsupportedImage):
		writeBadRequest(w, "UNSUPPORTED_IMAGE", "screenshot must be png, jpeg or webp")
	case errors.Is(err, tradesvc.ErrScreenshotTooLarge):
		writeBadRequest(w, "SCREENSHOT_TOO_LARGE", "screenshot exceeds the size limit")
	case errors.Is(err, tradesvc.ErrStorageUnavailable):
		writeInternal(w, "STORAGE_UNAVAILABLE", "screenshot storage is unavailable")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
