package botapp

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/arjunmehta/tradejournal/internal/config"
	"github.com/arjunmehta/tradejournal/internal/infra/telegram"
	pgrepo "github.com/arjunmehta/tradejournal/internal/repo/postgres"
	orderreviewsvc "github.com/arjunmehta/tradejournal/internal/services/orderreview"
)

const pendingListLimit = 20

// App is the operator bot: it receives review button presses and the
// /pending command and drives the order review workflow.
type App struct {
	cfg    config.Config
	logger *zap.Logger

	postgres *pgxpool.Pool
	bot      *telegram.Bot
	review   *orderreviewsvc.Service
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	bot, err := telegram.NewBot(cfg.Bot.Token)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}

	orderRepo := pgrepo.NewOrderRepo(pool)
	userRepo := pgrepo.NewUserRepo(pool)
	review := orderreviewsvc.NewService(orderRepo, userRepo, bot, cfg.Bot, log)

	return &App{
		cfg:      cfg,
		logger:   log,
		postgres: pool,
		bot:      bot,
		review:   review,
	}, nil
}

// Run blocks on the Telegram long-poll loop until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("bot listening")

	return a.bot.Listen(ctx, telegram.Handlers{
		OnCommand:  a.handleCommand,
		OnCallback: a.handleCallback,
	})
}

func (a *App) Shutdown() {
	if a.postgres != nil {
		a.postgres.Close()
	}
}

func (a *App) handleCommand(ctx context.Context, update telegram.CommandUpdate) error {
	switch update.Command {
	case "pending":
		a.handlePending(ctx, update)
	case "start":
		if a.review.Authorized(update.UserID) {
			a.reply(ctx, update.ChatID, "Ready. Use /pending to list orders awaiting review.")
		}
	default:
		a.logger.Debug("ignoring unknown command",
			zap.String("command", update.Command),
			zap.Int64("user_id", update.UserID),
		)
	}
	return nil
}

func (a *App) handlePending(ctx context.Context, update telegram.CommandUpdate) {
	if !a.review.Authorized(update.UserID) {
		a.logger.Warn("pending command from unauthorized user",
			zap.Int64("user_id", update.UserID),
			zap.String("username", update.Username),
		)
		return
	}

	orders, err := a.review.Pending(ctx, pendingListLimit)
	if err != nil {
		a.logger.Error("list pending orders", zap.Error(err))
		a.reply(ctx, update.ChatID, "Failed to load pending orders.")
		return
	}

	if len(orders) == 0 {
		a.reply(ctx, update.ChatID, "No orders awaiting review.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Pending orders (%d):\n", len(orders))
	for _, order := range orders {
		fmt.Fprintf(&sb, "%s  %d.%02d %s  %s\n",
			order.ID, order.Amount/100, order.Amount%100, order.Currency, order.Period)
	}
	a.reply(ctx, update.ChatID, sb.String())
}

func (a *App) handleCallback(ctx context.Context, update telegram.CallbackUpdate) error {
	result, err := a.review.HandleCallback(ctx, orderreviewsvc.Callback{
		CallbackID: update.CallbackID,
		ChatID:     update.ChatID,
		MessageID:  update.MessageID,
		UserID:     update.UserID,
		Data:       update.Data,
	})
	if err != nil {
		a.logger.Error("handle review callback",
			zap.String("data", update.Data),
			zap.Int64("user_id", update.UserID),
			zap.Error(err),
		)
	}
	if result.OK {
		a.logger.Info("order review applied",
			zap.String("order_id", result.Order.ID.String()),
			zap.String("status", string(result.Order.Status)),
			zap.Int64("operator_id", update.UserID),
		)
	}
	return nil
}

func (a *App) reply(ctx context.Context, chatID int64, text string) {
	if err := a.bot.SendText(ctx, chatID, text); err != nil {
		a.logger.Error("send telegram reply", zap.Error(err))
	}
}
