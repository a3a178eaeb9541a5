package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"resumex/internal/config"
	"resumex/internal/database"
	"resumex/internal/extract"
	"resumex/internal/metrics"
	"resumex/internal/progress"
	"resumex/internal/render/pdf"
	"resumex/internal/storage"
	"resumex/internal/tasks"
	"resumex/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	logger.Info("database connection ready for worker")

	if err := db.AutoMigrate(&database.User{}, &database.ResumeFile{}); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	logger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	extractClient := extract.NewClient(
		cfg.Extractor.BaseURL,
		cfg.Extractor.PollInterval,
		cfg.Extractor.RetryDelay,
		cfg.Extractor.MaxRetries,
	)

	progressStore := progress.NewStore(redisClient)

	extractHandler := worker.NewExtractTaskHandler(db, storageClient, redisClient, progressStore, extractClient, logger)
	renderHandler := worker.NewRenderTaskHandler(db, storageClient, redisClient, pdf.NewRenderer(logger), logger)

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeResumeExtract, extractHandler)
	mux.Handle(tasks.TypePDFRender, renderHandler)

	server := asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()}, asynq.Config{
		Concurrency: 10,
	})

	logger.Info("worker service started", slog.String("redis_addr", cfg.Redis.Addr()))
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}
