package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/arjunmehta/tradejournal/internal/app/botapp"
	"github.com/arjunmehta/tradejournal/internal/config"
	"github.com/arjunmehta/tradejournal/internal/infra/logger"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := os.Getenv("APP_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := botapp.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("init bot app", zap.Error(err))
	}
	defer app.Shutdown()

	if err := app.Run(ctx); err != nil {
		log.Error("bot stopped", zap.Error(err))
	}
}
