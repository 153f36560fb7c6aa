package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	redisv9 "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"account_backend/internal/app/di"
	"account_backend/internal/app/router"
	"account_backend/internal/config"
	authhandler "account_backend/internal/feature/auth/transport/handler"
	infradb "account_backend/internal/platform/db"
	infrahttp "account_backend/internal/platform/http"
	platformhandler "account_backend/internal/platform/http/handler"
	"account_backend/internal/platform/logger"
	infraredis "account_backend/internal/platform/redis"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(logger.New(os.Stdout, cfg.Log.Format, cfg.Log.Level))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// db
	db, err := infradb.OpenDB(cfg.DB)
	if err != nil {
		return err
	}

	// Redis（任意）
	var rdb *redisv9.Client
	if cfg.Redis.Enabled() {
		if tmp, err := infraredis.NewRedisClient(ctx, cfg.Redis); err != nil {
			slog.Warn("Redis unavailable. Running with in-process mail queue and rate limiter.", "error", err)
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("Failed to close Redis client", "error", err)
				}
			}()
		}
	}

	return serve(ctx, cfg, db, rdb)
}

// newMailQueue はテストで差し替えるためのフックです。
var newMailQueue = di.NewMailQueue

// serve はハンドラーを組み立て、ctxがキャンセルされるまでメールワーカーとHTTPサーバーを動かします。
// ワーカーは組み立てがすべて成功してから起動し、戻る前に必ず終了を待ちます。
func serve(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redisv9.Client) error {
	// Mail
	sender := di.NewMailSender(cfg.SMTP)
	queue, worker := newMailQueue(rdb, sender)

	// Usecase
	authUC, err := di.NewAuthUsecase(cfg, db, queue)
	if err != nil {
		return err
	}

	// Handler
	authH := authhandler.NewAuthHandler(authUC)
	healthH := platformhandler.NewHealthHandler(func(ctx context.Context) error {
		return infradb.Ping(ctx, db)
	})

	// ルータ生成
	r := router.NewRouter(authH, healthH, di.ResolveUser(authUC), di.NewLimiter(rdb, cfg.RateLimit), cfg.RateLimit)
	srv := infrahttp.NewServer(cfg.HTTP, r)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := worker(ctx); err != nil {
			slog.Error("mail worker stopped", "error", err)
		}
	}()

	err = infrahttp.Run(ctx, srv, cfg.HTTP.ShutdownTimeout)

	cancel()
	<-workerDone
	return err
}
