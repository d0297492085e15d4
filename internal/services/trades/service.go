package trades

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arjunmehta/tradejournal/internal/domain/model"
	pgrepo "github.com/arjunmehta/tradejournal/internal/repo/postgres"
)

const maxScreenshotSize = 10 << 20

var (
	ErrValidation         = errors.New("validation error")
	ErrTradeNotFound      = errors.New("trade not found")
	ErrStorageUnavailable = errors.New("screenshot storage is unavailable")
	ErrUnsupportedImage   = errors.New("unsupported image type")
	ErrScreenshotTooLarge = errors.New("screenshot exceeds size limit")
)

type TradeStore interface {
	Create(ctx context.Context, trade model.Trade) (model.Trade, error)
	FindByID(ctx context.Context, userID int64, tradeID string) (model.Trade, error)
	Update(ctx context.Context, trade model.Trade) (model.Trade, error)
	Delete(ctx context.Context, userID int64, tradeID string) error
	List(ctx context.Context, userID int64, symbol string, limit, offset int) ([]model.Trade, error)
	SetScreenshotKey(ctx context.Context, userID int64, tradeID, key string) error
	Stats(ctx context.Context, userID int64) (model.TradeStats, error)
}

type StatsCache interface {
	Get(ctx context.Context, userID int64) (model.TradeStats, bool, error)
	Set(ctx context.Context, userID int64, stats model.TradeStats) error
	Invalidate(ctx context.Context, userID int64) error
}

type ScreenshotStorage interface {
	PutScreenshot(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Service struct {
	trades TradeStore
	cache  StatsCache
	shots  ScreenshotStorage
	log    *zap.Logger
}

func NewService(trades TradeStore, cache StatsCache, shots ScreenshotStorage, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		trades: trades,
		cache:  cache,
		shots:  shots,
		log:    log,
	}
}

type UpsertInput struct {
	Symbol     string
	Side       string
	Quantity   float64
	EntryPrice float64
	ExitPrice  float64
	Fees       float64
	Strategy   string
	Notes      string
	OpenedAt   time.Time
	ClosedAt   time.Time
}

func (s *Service) Create(ctx context.Context, userID int64, in UpsertInput) (model.Trade, error) {
	trade, err := buildTrade(userID, in)
	if err != nil {
		return model.Trade{}, err
	}

	created, err := s.trades.Create(ctx, trade)
	if err != nil {
		return model.Trade{}, fmt.Errorf("create trade: %w", err)
	}

	s.invalidateStats(ctx, userID)
	return created, nil
}

func (s *Service) Update(ctx context.Context, userID int64, tradeID string, in UpsertInput) (model.Trade, error) {
	if strings.TrimSpace(tradeID) == "" {
		return model.Trade{}, ErrValidation
	}

	existing, err := s.trades.FindByID(ctx, userID, tradeID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrTradeNotFound) {
			return model.Trade{}, ErrTradeNotFound
		}
		return model.Trade{}, err
	}

	trade, err := buildTrade(userID, in)
	if err != nil {
		return model.Trade{}, err
	}
	trade.ID = existing.ID
	trade.ScreenshotKey = existing.ScreenshotKey

	updated, err := s.trades.Update(ctx, trade)
	if err != nil {
		if errors.Is(err, pgrepo.ErrTradeNotFound) {
			return model.Trade{}, ErrTradeNotFound
		}
		return model.Trade{}, fmt.Errorf("update trade: %w", err)
	}

	s.invalidateStats(ctx, userID)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, userID int64, tradeID string) error {
	if userID <= 0 || strings.TrimSpace(tradeID) == "" {
		return ErrValidation
	}

	if err := s.trades.Delete(ctx, userID, tradeID); err != nil {
		if errors.Is(err, pgrepo.ErrTradeNotFound) {
			return ErrTradeNotFound
		}
		return err
	}

	s.invalidateStats(ctx, userID)
	return nil
}

func (s *Service) Get(ctx context.Context, userID int64, tradeID string) (model.Trade, error) {
	if userID <= 0 || strings.TrimSpace(tradeID) == "" {
		return model.Trade{}, ErrValidation
	}

	trade, err := s.trades.FindByID(ctx, userID, tradeID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrTradeNotFound) {
			return model.Trade{}, ErrTradeNotFound
		}
		return model.Trade{}, err
	}
	return trade, nil
}

func (s *Service) List(ctx context.Context, userID int64, symbol string, limit, offset int) ([]model.Trade, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}
	return s.trades.List(ctx, userID, strings.ToUpper(strings.TrimSpace(symbol)), limit, offset)
}

// Dashboard aggregates journal stats, served from the redis cache when warm.
// Cache failures degrade to the database, never to an error.
func (s *Service) Dashboard(ctx context.Context, userID int64) (model.TradeStats, error) {
	if userID <= 0 {
		return model.TradeStats{}, ErrValidation
	}

	if s.cache != nil {
		stats, hit, err := s.cache.Get(ctx, userID)
		if err != nil {
			s.log.Warn("dashboard cache read", zap.Int64("user_id", userID), zap.Error(err))
		} else if hit {
			return stats, nil
		}
	}

	stats, err := s.trades.Stats(ctx, userID)
	if err != nil {
		return model.TradeStats{}, fmt.Errorf("aggregate trade stats: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, stats); err != nil {
			s.log.Warn("dashboard cache write", zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	return stats, nil
}

// AttachScreenshot stores a chart snapshot and links it to the trade.
func (s *Service) AttachScreenshot(ctx context.Context, userID int64, tradeID string, body io.Reader, size int64, contentType string) (string, error) {
	if userID <= 0 || strings.TrimSpace(tradeID) == "" || body == nil {
		return "", ErrValidation
	}
	if s.shots == nil {
		return "", ErrStorageUnavailable
	}
	if size <= 0 || size > maxScreenshotSize {
		return "", ErrScreenshotTooLarge
	}

	ext, ok := imageExtension(contentType)
	if !ok {
		return "", ErrUnsupportedImage
	}

	trade, err := s.trades.FindByID(ctx, userID, tradeID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrTradeNotFound) {
			return "", ErrTradeNotFound
		}
		return "", err
	}

	key := path.Join("screenshots", fmt.Sprintf("%d", userID), trade.ID+ext)
	if err := s.shots.PutScreenshot(ctx, key, body, size, contentType); err != nil {
		return "", err
	}

	if err := s.trades.SetScreenshotKey(ctx, userID, trade.ID, key); err != nil {
		return "", fmt.Errorf("link screenshot key: %w", err)
	}

	return key, nil
}

// ScreenshotLink returns a short-lived download URL for the trade's chart
// snapshot, or empty when none is attached.
func (s *Service) ScreenshotLink(ctx context.Context, trade model.Trade) (string, error) {
	if trade.ScreenshotKey == nil || *trade.ScreenshotKey == "" {
		return "", nil
	}
	if s.shots == nil {
		return "", ErrStorageUnavailable
	}
	return s.shots.PresignGet(ctx, *trade.ScreenshotKey, signedURLTTL)
}

func (s *Service) invalidateStats(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.log.Warn("dashboard cache invalidate", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func buildTrade(userID int64, in UpsertInput) (model.Trade, error) {
	if userID <= 0 {
		return model.Trade{}, ErrValidation
	}

	symbol := strings.ToUpper(strings.TrimSpace(in.Symbol))
	if symbol == "" || in.Quantity <= 0 || in.EntryPrice < 0 || in.ExitPrice < 0 {
		return model.Trade{}, ErrValidation
	}

	side, ok := parseSide(in.Side)
	if !ok {
		return model.Trade{}, ErrValidation
	}

	closedAt := in.ClosedAt
	if closedAt.IsZero() {
		closedAt = in.OpenedAt
	}
	if !in.OpenedAt.IsZero() && closedAt.Before(in.OpenedAt) {
		return model.Trade{}, ErrValidation
	}

	return model.Trade{
		UserID:     userID,
		Symbol:     symbol,
		Side:       side,
		Quantity:   in.Quantity,
		EntryPrice: in.EntryPrice,
		ExitPrice:  in.ExitPrice,
		Fees:       in.Fees,
		PnL:        realizedPnL(side, in.Quantity, in.EntryPrice, in.ExitPrice, in.Fees),
		Strategy:   strings.TrimSpace(in.Strategy),
		Notes:      in.Notes,
		OpenedAt:   in.OpenedAt,
		ClosedAt:   closedAt,
	}, nil
}

func realizedPnL(side model.TradeSide, qty, entry, exit, fees float64) float64 {
	gross := (exit - entry) * qty
	if side == model.TradeSideShort {
		gross = (entry - exit) * qty
	}
	return gross - fees
}

func parseSide(raw string) (model.TradeSide, bool) {
	switch model.TradeSide(strings.ToLower(strings.TrimSpace(raw))) {
	case model.TradeSideLong:
		return model.TradeSideLong, true
	case model.TradeSideShort:
		return model.TradeSideShort, true
	default:
		return "", false
	}
}

func imageExtension(contentType string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/png":
		return ".png", true
	case "image/jpeg", "image/jpg":
		return ".jpg", true
	case "image/webp":
		return ".webp", true
	default:
		return "", false
	}
}
