package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"hrbot/internal/config"
	"hrbot/internal/database"
	"hrbot/internal/metrics"
	"hrbot/internal/tasks"
	"hrbot/internal/telegram"
	"hrbot/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	log.Println("database connection ready for worker")

	telegramClient := telegram.NewClient(cfg.Telegram.APIBaseURL, cfg.Telegram.BotToken, nil)

	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr()}
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
	})

	notifyHandler := worker.NewNotifyTaskHandler(db, telegramClient, logger)

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeApplicationReceived, notifyHandler)
	mux.Handle(tasks.TypePhotoUploaded, notifyHandler)
	mux.Handle(tasks.TypeStatusChanged, notifyHandler)

	logger.Info("worker service started", slog.String("redis_addr", cfg.Redis.Addr()))
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}
