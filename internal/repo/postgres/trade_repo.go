package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arjunmehta/tradejournal/internal/domain/model"
)

var (
	ErrTradeNotFound = errors.New("trade not found")
	ErrTradeInvalid  = errors.New("invalid trade payload")
)

const tradeColumns = `id, user_id, symbol, side, quantity, entry_price, exit_price, fees, pnl, strategy, notes, screenshot_key, opened_at, closed_at, created_at, updated_at`

type TradeRepo struct {
	pool *pgxpool.Pool
}

func NewTradeRepo(pool *pgxpool.Pool) *TradeRepo {
	return &TradeRepo{pool: pool}
}

func (r *TradeRepo) Create(ctx context.Context, trade model.Trade) (model.Trade, error) {
	if r.pool == nil {
		return model.Trade{}, fmt.Errorf("postgres pool is nil")
	}
	if trade.UserID <= 0 || strings.TrimSpace(trade.Symbol) == "" {
		return model.Trade{}, ErrTradeInvalid
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO trades (
	id,
	user_id,
	symbol,
	side,
	quantity,
	entry_price,
	exit_price,
	fees,
	pnl,
	strategy,
	notes,
	opened_at,
	closed_at,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
RETURNING `+tradeColumns,
		uuid.NewString(),
		trade.UserID,
		strings.ToUpper(strings.TrimSpace(trade.Symbol)),
		trade.Side,
		trade.Quantity,
		trade.EntryPrice,
		trade.ExitPrice,
		trade.Fees,
		trade.PnL,
		strings.TrimSpace(trade.Strategy),
		trade.Notes,
		trade.OpenedAt,
		trade.ClosedAt,
	)

	created, err := scanTrade(row)
	if err != nil {
		return model.Trade{}, fmt.Errorf("create trade: %w", err)
	}

	return created, nil
}

func (r *TradeRepo) FindByID(ctx context.Context, userID int64, tradeID string) (model.Trade, error) {
	if r.pool == nil {
		return model.Trade{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || strings.TrimSpace(tradeID) == "" {
		return model.Trade{}, ErrTradeInvalid
	}

	trade, err := scanTrade(r.pool.QueryRow(ctx, `
SELECT `+tradeColumns+`
FROM trades
WHERE id = $1
  AND user_id = $2
LIMIT 1
`, tradeID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Trade{}, ErrTradeNotFound
		}
		return model.Trade{}, fmt.Errorf("find trade by id: %w", err)
	}

	return trade, nil
}

func (r *TradeRepo) Update(ctx context.Context, trade model.Trade) (model.Trade, error) {
	if r.pool == nil {
		return model.Trade{}, fmt.Errorf("postgres pool is nil")
	}
	if trade.UserID <= 0 || strings.TrimSpace(trade.ID) == "" {
		return model.Trade{}, ErrTradeInvalid
	}

	updated, err := scanTrade(r.pool.QueryRow(ctx, `
UPDATE trades
SET
	symbol = $3,
	side = $4,
	quantity = $5,
	entry_price = $6,
	exit_price = $7,
	fees = $8,
	pnl = $9,
	strategy = $10,
	notes = $11,
	opened_at = $12,
	closed_at = $13,
	updated_at = NOW()
WHERE id = $1
  AND user_id = $2
RETURNING `+tradeColumns,
		trade.ID,
		trade.UserID,
		strings.ToUpper(strings.TrimSpace(trade.Symbol)),
		trade.Side,
		trade.Quantity,
		trade.EntryPrice,
		trade.ExitPrice,
		trade.Fees,
		trade.PnL,
		strings.TrimSpace(trade.Strategy),
		trade.Notes,
		trade.OpenedAt,
		trade.ClosedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Trade{}, ErrTradeNotFound
		}
		return model.Trade{}, fmt.Errorf("update trade: %w", err)
	}

	return updated, nil
}

func (r *TradeRepo) Delete(ctx context.Context, userID int64, tradeID string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || strings.TrimSpace(tradeID) == "" {
		return ErrTradeInvalid
	}

	tag, err := r.pool.Exec(ctx, `
DELETE FROM trades
WHERE id = $1
  AND user_id = $2
`, tradeID, userID)
	if err != nil {
		return fmt.Errorf("delete trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTradeNotFound
	}

	return nil
}

func (r *TradeRepo) List(ctx context.Context, userID int64, symbol string, limit, offset int) ([]model.Trade, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return nil, ErrTradeInvalid
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	rows, err := r.pool.Query(ctx, `
SELECT `+tradeColumns+`
FROM trades
WHERE user_id = $1
  AND ($2 = '' OR symbol = $2)
ORDER BY closed_at DESC
LIMIT $3 OFFSET $4
`, userID, symbol, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	defer rows.Close()

	var trades []model.Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}
		trades = append(trades, trade)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	return trades, nil
}

func (r *TradeRepo) SetScreenshotKey(ctx context.Context, userID int64, tradeID, key string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || strings.TrimSpace(tradeID) == "" || strings.TrimSpace(key) == "" {
		return ErrTradeInvalid
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE trades
SET screenshot_key = $3,
    updated_at = NOW()
WHERE id = $1
  AND user_id = $2
`, tradeID, userID, key)
	if err != nil {
		return fmt.Errorf("set trade screenshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTradeNotFound
	}

	return nil
}

// Stats aggregates the dashboard numbers in one round trip.
func (r *TradeRepo) Stats(ctx context.Context, userID int64) (model.TradeStats, error) {
	if r.pool == nil {
		return model.TradeStats{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return model.TradeStats{}, ErrTradeInvalid
	}

	var stats model.TradeStats
	err := r.pool.QueryRow(ctx, `
SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE pnl > 0),
	COUNT(*) FILTER (WHERE pnl < 0),
	COALESCE(SUM(pnl), 0)
FROM trades
WHERE user_id = $1
`, userID).Scan(&stats.TotalTrades, &stats.Wins, &stats.Losses, &stats.NetPnL)
	if err != nil {
		return model.TradeStats{}, fmt.Errorf("aggregate trade stats: %w", err)
	}

	if stats.TotalTrades > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.TotalTrades)
	}

	best, worst, err := r.symbolExtremes(ctx, userID)
	if err != nil {
		return model.TradeStats{}, err
	}
	stats.BestSymbol = best
	stats.WorstSymbol = worst

	return stats, nil
}

func (r *TradeRepo) symbolExtremes(ctx context.Context, userID int64) (string, string, error) {
	rows, err := r.pool.Query(ctx, `
SELECT symbol, SUM(pnl) AS total
FROM trades
WHERE user_id = $1
GROUP BY symbol
ORDER BY total DESC
`, userID)
	if err != nil {
		return "", "", fmt.Errorf("aggregate symbol pnl: %w", err)
	}
	defer rows.Close()

	var (
		first, last string
		seen        bool
	)
	for rows.Next() {
		var (
			symbol string
			total  float64
		)
		if err := rows.Scan(&symbol, &total); err != nil {
			return "", "", fmt.Errorf("scan symbol pnl: %w", err)
		}
		if !seen {
			first = symbol
			seen = true
		}
		last = symbol
	}
	if err := rows.Err(); err != nil {
		return "", "", fmt.Errorf("iterate symbol pnl: %w", err)
	}

	return first, last, nil
}

func scanTrade(row pgx.Row) (model.Trade, error) {
	var trade model.Trade
	if err := row.Scan(
		&trade.ID,
		&trade.UserID,
		&trade.Symbol,
		&trade.Side,
		&trade.Quantity,
		&trade.EntryPrice,
		&trade.ExitPrice,
		&trade.Fees,
		&trade.PnL,
		&trade.Strategy,
		&trade.Notes,
		&trade.ScreenshotKey,
		&trade.OpenedAt,
		&trade.ClosedAt,
		&trade.CreatedAt,
		&trade.UpdatedAt,
	); err != nil {
		return model.Trade{}, err
	}
	return trade, nil
}
