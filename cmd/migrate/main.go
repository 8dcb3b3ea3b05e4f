package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"savdash/internal/config"
	"savdash/internal/migration"
)

func main() {
	_ = godotenv.Load()

	runner := migration.NewRunner()
	if len(os.Args) > 1 && os.Args[1] == "print" {
		for _, stmt := range runner.Statements() {
			fmt.Println(stmt + ";")
		}
		return
	}

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

	databaseURL := cfg.Database.URL
	if len(os.Args) > 1 {
		databaseURL = os.Args[1]
	}
	if databaseURL == "" {
		zap.L().Fatal("usage: migrate [database_url | print] (or set SAVDASH_DATABASE_URL)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		zap.L().Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := runner.Run(ctx, db); err != nil {
		zap.L().Fatal("migration failed", zap.Error(err))
	}
	zap.L().Info("migrations applied", zap.String("version", runner.Version()))
}
