package model

import "time"

type TradeSide string

const (
	TradeSideLong  TradeSide = "long"
	TradeSideShort TradeSide = "short"
)

type Trade struct {
	ID     string    `json:"id"`
	UserID int64     `json:"user_id"`
	Symbol string    `json:"symbol"`
	Side   TradeSide `json:"side"`

	Quantity   float64 `json:"quantity"`
	EntryPrice float64 `json:"entry_price"`
	ExitPrice  float64 `json:"exit_price"`
	Fees       float64 `json:"fees"`
	PnL        float64 `json:"pnl"`

	Strategy string `json:"strategy"`
	Notes    string `json:"notes"`

	// ScreenshotKey points at the chart snapshot in object storage.
	ScreenshotKey *string `json:"screenshot_key"`

	OpenedAt  time.Time `json:"opened_at"`
	ClosedAt  time.Time `json:"closed_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TradeStats struct {
	TotalTrades int     `json:"total_trades"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"win_rate"`
	NetPnL      float64 `json:"net_pnl"`
	BestSymbol  string  `json:"best_symbol"`
	WorstSymbol string  `json:"worst_symbol"`
}
