package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/arjunmehta/tradejournal/internal/domain/model"
	pgrepo "github.com/arjunmehta/tradejournal/internal/repo/postgres"
	authsvc "github.com/arjunmehta/tradejournal/internal/services/auth"
	tradesvc "github.com/arjunmehta/tradejournal/internal/services/trades"
	"github.com/arjunmehta/tradejournal/internal/transport/http/dto"
)

type memTradeStore struct {
	nextID int
	trades map[string]model.Trade
	stats  model.TradeStats
}

func newMemTradeStore() *memTradeStore {
	return &memTradeStore{nextID: 1, trades: map[string]model.Trade{}}
}

func (s *memTradeStore) Create(_ context.Context, trade model.Trade) (model.Trade, error) {
	trade.ID = fmt.Sprintf("trade-%d", s.nextID)
	s.nextID++
	trade.CreatedAt = time.Now().UTC()
	s.trades[trade.ID] = trade
	return trade, nil
}

func (s *memTradeStore) FindByID(_ context.Context, userID int64, tradeID string) (model.Trade, error) {
	trade, ok := s.trades[tradeID]
	if !ok || trade.UserID != userID {
		return model.Trade{}, pgrepo.ErrTradeNotFound
	}
	return trade, nil
}

func (s *memTradeStore) Update(_ context.Context, trade model.Trade) (model.Trade, error) {
	existing, ok := s.trades[trade.ID]
	if !ok || existing.UserID != trade.UserID {
		return model.Trade{}, pgrepo.ErrTradeNotFound
	}
	s.trades[trade.ID] = trade
	return trade, nil
}

func (s *memTradeStore) Delete(_ context.Context, userID int64, tradeID string) error {
	trade, ok := s.trades[tradeID]
	if !ok || trade.UserID != userID {
		return pgrepo.ErrTradeNotFound
	}
	delete(s.trades, tradeID)
	return nil
}

func (s *memTradeStore) List(_ context.Context, userID int64, symbol string, _, _ int) ([]model.Trade, error) {
	var out []model.Trade
	for _, trade := range s.trades {
		if trade.UserID != userID {
			continue
		}
		if symbol != "" && trade.Symbol != symbol {
			continue
		}
		out = append(out, trade)
	}
	return out, nil
}

func (s *memTradeStore) SetScreenshotKey(_ context.Context, userID int64, tradeID, key string) error {
	trade, ok := s.trades[tradeID]
	if !ok || trade.UserID != userID {
		return pgrepo.ErrTradeNotFound
	}
	trade.ScreenshotKey = &key
	s.trades[tradeID] = trade
	return nil
}

func (s *memTradeStore) Stats(_ context.Context, _ int64) (model.TradeStats, error) {
	return s.stats, nil
}

func newTradeTestRouter(store *memTradeStore) *chi.Mux {
	svc := tradesvc.NewService(store, nil, nil, nil)
	handler := NewTradeHandler(svc)

	withIdentity := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx := authsvc.WithIdentity(r.Context(), authsvc.Identity{UserID: 7, SID: "sid", Role: "USER"})
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}

	r := chi.NewRouter()
	r.Post("/trades", withIdentity(handler.Create))
	r.Get("/trades", withIdentity(handler.List))
	r.Get("/trades/{tradeID}", withIdentity(handler.Get))
	r.Put("/trades/{tradeID}", withIdentity(handler.Update))
	r.Delete("/trades/{tradeID}", withIdentity(handler.Delete))
	r.Get("/dashboard", withIdentity(handler.Dashboard))

	// unauthenticated mirror to exercise the identity guard
	r.Post("/naked/trades", handler.Create)
	return r
}

func tradeBody(t *testing.T) string {
	t.Helper()
	raw, err := json.Marshal(dto.TradeRequest{
		Symbol:     "tcs",
		Side:       "long",
		Quantity:   5,
		EntryPrice: 4000,
		ExitPrice:  4100,
		Fees:       50,
		OpenedAt:   time.Date(2026, 7, 1, 9, 30, 0, 0, time.UTC),
		ClosedAt:   time.Date(2026, 7, 1, 15, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("marshal trade body: %v", err)
	}
	return string(raw)
}

func TestTradeCreateRequiresIdentity(t *testing.T) {
	router := newTradeTestRouter(newMemTradeStore())

	req := httptest.NewRequest(http.MethodPost, "/naked/trades", strings.NewReader(tradeBody(t)))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestTradeCreateAndGet(t *testing.T) {
	router := newTradeTestRouter(newMemTradeStore())

	req := httptest.NewRequest(http.MethodPost, "/trades", strings.NewReader(tradeBody(t)))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rr.Code, rr.Body.String())
	}

	var created dto.TradeResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.Symbol != "TCS" {
		t.Fatalf("symbol = %q, want TCS", created.Symbol)
	}
	// (4100-4000)*5 - 50
	if created.PnL != 450 {
		t.Fatalf("pnl = %v, want 450", created.PnL)
	}

	getReq := httptest.NewRequest(http.MethodGet, "/trades/"+created.ID, nil)
	getRR := httptest.NewRecorder()
	router.ServeHTTP(getRR, getReq)
	if getRR.Code != http.StatusOK {
		t.Fatalf("get status = %d", getRR.Code)
	}
}

func TestTradeGetMissingReturns404(t *testing.T) {
	router := newTradeTestRouter(newMemTradeStore())

	req := httptest.NewRequest(http.MethodGet, "/trades/nope", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestDashboardReturnsStats(t *testing.T) {
	store := newMemTradeStore()
	store.stats = model.TradeStats{TotalTrades: 12, Wins: 7, Losses: 5, WinRate: 58.33, NetPnL: 8200, BestSymbol: "INFY"}
	router := newTradeTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var payload dto.DashboardResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.TotalTrades != 12 || payload.BestSymbol != "INFY" {
		t.Fatalf("payload = %+v", payload)
	}
}
