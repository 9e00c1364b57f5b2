// Package main runs the transcoding worker: pulls job descriptors from the
// Redis queue and processes them through the HLS pipeline.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/strelitziathe1/anime/config"
	"github.com/strelitziathe1/anime/internal/jobs"
	"github.com/strelitziathe1/anime/internal/media"
	"github.com/strelitziathe1/anime/internal/worker"
	"github.com/strelitziathe1/anime/pkg/database"
	"github.com/strelitziathe1/anime/pkg/queue"
	"github.com/strelitziathe1/anime/pkg/redis"
	"github.com/strelitziathe1/anime/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	s3Client, err := storage.NewS3(ctx, storage.Config{
		Region:          cfg.S3.Region,
		Endpoint:        cfg.S3.Endpoint,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		UsePathStyle:    cfg.S3.UsePathStyle,
	}, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	jobRepo := jobs.NewRepository(pool)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	scanner := media.NewClamAV(cfg.Worker.ClamdscanBin, time.Duration(cfg.Worker.ScanTimeoutSec)*time.Second, logger)
	prober := media.NewFFprobe(cfg.Worker.FFprobeBin, time.Duration(cfg.Worker.ProbeTimeoutSec)*time.Second, logger)
	encoder := media.NewFFmpeg(cfg.Worker.FFmpegBin, time.Duration(cfg.Worker.EncodeTimeoutMin)*time.Minute, logger)

	w := worker.New(jobQueue, jobRepo, s3Client, scanner, prober, encoder, worker.Options{
		WorkDir:       cfg.Worker.WorkDir,
		PollInterval:  time.Duration(cfg.Worker.PollIntervalSec) * time.Second,
		DefaultBucket: cfg.S3.Bucket,
	}, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go w.Run(workerCtx)
	logger.Info("transcoding worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("transcoding worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
