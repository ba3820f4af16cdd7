package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"partyroom/internal/app"
	"partyroom/internal/config"
	"partyroom/internal/repository"
	"partyroom/internal/seed"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := config.NewLogger(cfg.LogLevel)

	if cfg.MongoURI == "" {
		log.Error("MONGO_URI is required to seed questions")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := app.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		log.Error("mongo unavailable", "error", err)
		os.Exit(1)
	}
	defer client.Disconnect(ctx)

	repo := repository.NewQuestionRepo(client.Database(cfg.MongoDatabase))

	existing, err := repo.GetAll(ctx)
	if err != nil {
		log.Error("reading questions failed", "error", err)
		os.Exit(1)
	}
	if len(existing) > 0 {
		log.Info("question pool already populated, nothing to do", "count", len(existing))
		return
	}

	inserted := 0
	for _, q := range seed.Questions() {
		if err := repo.Create(ctx, &q); err != nil {
			log.Error("insert question failed", "text", q.Text, "error", err)
			os.Exit(1)
		}
		inserted++
	}
	log.Info("seeded question pool", "database", cfg.MongoDatabase, "count", inserted)
}
