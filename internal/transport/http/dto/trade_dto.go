package dto

import (
	"time"

	"github.com/arjunmehta/tradejournal/internal/domain/model"
)

type TradeRequest struct {
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	Quantity   float64   `json:"quantity"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Fees       float64   `json:"fees"`
	Strategy   string    `json:"strategy"`
	Notes      string    `json:"notes"`
	OpenedAt   time.Time `json:"opened_at"`
	ClosedAt   time.Time `json:"closed_at"`
}

type TradeResponse struct {
	ID            string    `json:"id"`
	Symbol        string    `json:"symbol"`
	Side          string    `json:"side"`
	Quantity      float64   `json:"quantity"`
	EntryPrice    float64   `json:"entry_price"`
	ExitPrice     float64   `json:"exit_price"`
	Fees          float64   `json:"fees"`
	PnL           float64   `json:"pnl"`
	Strategy      string    `json:"strategy,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	ScreenshotKey string    `json:"screenshot_key,omitempty"`
	ScreenshotURL string    `json:"screenshot_url,omitempty"`
	OpenedAt      time.Time `json:"opened_at"`
	ClosedAt      time.Time `json:"closed_at"`
	CreatedAt     time.Time `json:"created_at"`
}

type TradeListResponse struct {
	Trades []TradeResponse `json:"trades"`
}

type DashboardResponse struct {
	TotalTrades int     `json:"total_trades"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"win_rate"`
	NetPnL      float64 `json:"net_pnl"`
	BestSymbol  string  `json:"best_symbol,omitempty"`
	WorstSymbol string  `json:"worst_symbol,omitempty"`
}

type ScreenshotResponse struct {
	Key string `json:"key"`
}

func TradeResponseFrom(trade model.Trade) TradeResponse {
	resp := TradeResponse{
		ID:         trade.ID,
		Symbol:     trade.Symbol,
		Side:       string(trade.Side),
		Quantity:   trade.Quantity,
		EntryPrice: trade.EntryPrice,
		ExitPrice:  trade.ExitPrice,
		Fees:       trade.Fees,
		PnL:        trade.PnL,
		Strategy:   trade.Strategy,
		Notes:      trade.Notes,
		OpenedAt:   trade.OpenedAt,
		ClosedAt:   trade.ClosedAt,
		CreatedAt:  trade.CreatedAt,
	}
	if trade.ScreenshotKey != nil {
		resp.ScreenshotKey = *trade.ScreenshotKey
	}
	return resp
}
