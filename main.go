package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"savdash/internal/config"
	"savdash/internal/container"
	"savdash/ui"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer zap.L().Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.Open(ctx, cfg)
	if err != nil {
		zap.L().Fatal("failed to initialize container", zap.Error(err))
	}
	defer c.Close()

	if err := c.LoadInitialData(ctx); err != nil {
		zap.L().Error("failed to load initial dataset",
			zap.String("path", cfg.Data.ExcelFile),
			zap.Error(err))
	}

	server := ui.NewServer(ui.Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, c.Datasets, c.Statistics, c.Filters)

	if err := server.Start(ctx); err != nil {
		zap.L().Fatal("server error", zap.Error(err))
	}
}
