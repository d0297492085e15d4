package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/arjunmehta/tradejournal/internal/config"
	s3infra "github.com/arjunmehta/tradejournal/internal/infra/s3"
	"github.com/arjunmehta/tradejournal/internal/infra/telegram"
	pgrepo "github.com/arjunmehta/tradejournal/internal/repo/postgres"
	redrepo "github.com/arjunmehta/tradejournal/internal/repo/redis"
	authsvc "github.com/arjunmehta/tradejournal/internal/services/auth"
	orderreviewsvc "github.com/arjunmehta/tradejournal/internal/services/orderreview"
	ordersvc "github.com/arjunmehta/tradejournal/internal/services/orders"
	subsvc "github.com/arjunmehta/tradejournal/internal/services/subscriptions"
	tradesvc "github.com/arjunmehta/tradejournal/internal/services/trades"
	"github.com/arjunmehta/tradejournal/internal/transport/http/handlers"
)

const statsCacheTTL = 5 * time.Minute

// App is the HTTP API application: journal CRUD, auth, billing and the
// subscription status endpoint.
type App struct {
	cfg    config.Config
	logger *zap.Logger

	server   *http.Server
	postgres *pgxpool.Pool
	redis    *goredis.Client
	s3       *minio.Client

	httpRouter http.Handler
}

// New wires repositories, services and HTTP routes. Postgres and S3 are
// allowed to be down at startup: the app comes up degraded and the affected
// endpoints fail per-request instead.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Warn("postgres is unavailable, starting degraded", zap.Error(err))
		pool = nil
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	s3Client, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	})
	if err != nil {
		log.Warn("s3 is unavailable, screenshots disabled", zap.Error(err))
		s3Client = nil
	}

	userRepo := pgrepo.NewUserRepo(pool)
	orderRepo := pgrepo.NewOrderRepo(pool)
	tradeRepo := pgrepo.NewTradeRepo(pool)

	sessionRepo := redrepo.NewSessionRepo(redisClient)
	statsCache := redrepo.NewStatsCache(redisClient, statsCacheTTL)

	var screenshotStorage tradesvc.ScreenshotStorage
	if s3Client != nil {
		screenshotStorage = tradesvc.NewS3Storage(s3Client, cfg.S3.Bucket)
	}

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, sessionRepo, userRepo, cfg.Auth.RefreshTTL)
	subscriptionService := subsvc.NewService(userRepo)
	orderService := ordersvc.NewService(orderRepo, userRepo, cfg.Plans)
	tradeService := tradesvc.NewService(tradeRepo, statsCache, screenshotStorage, log)

	var reviewPublisher handlers.ReviewPublisher
	if cfg.Bot.Token != "" {
		bot, err := telegram.NewBot(cfg.Bot.Token)
		if err != nil {
			log.Warn("telegram bot init failed, order review notifications disabled", zap.Error(err))
		} else {
			reviewPublisher = orderreviewsvc.NewService(orderRepo, userRepo, bot, cfg.Bot, log)
		}
	}

	RegisterRoutes(r, Dependencies{
		AuthService:         authService,
		SubscriptionService: subscriptionService,
		OrderService:        orderService,
		TradeService:        tradeService,
		UserStore:           userRepo,
		ReviewPublisher:     reviewPublisher,
		Logger:              log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api listening", zap.String("addr", a.cfg.HTTP.Addr))
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	var firstErr error
	if err := a.server.Shutdown(ctx); err != nil {
		firstErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Handler exposes the router for tests.
func (a *App) Handler() http.Handler {
	return a.httpRouter
}
