package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/hypermedia-labs/trillas/internal/app"
	"github.com/hypermedia-labs/trillas/internal/auth"
	"github.com/hypermedia-labs/trillas/internal/books"
	"github.com/hypermedia-labs/trillas/internal/lending"
	"github.com/hypermedia-labs/trillas/internal/observability"
	"github.com/hypermedia-labs/trillas/internal/platform/cache"
	"github.com/hypermedia-labs/trillas/internal/platform/db"
	"github.com/hypermedia-labs/trillas/internal/token"
	"github.com/hypermedia-labs/trillas/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := db.Migrate(ctx, cfg.PGDSN); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	mailQueue := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := mailQueue.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()

	tokens := token.NewService([]byte(cfg.JWTSecret), cfg.JWTTTL, cfg.JWTIssuer)

	authRepo := auth.NewRepository(pool)
	issuer := auth.NewIssuer(cfg.ActivationTTL)
	authService := auth.NewService(authRepo, issuer, mailQueue, logger)

	booksRepo := books.NewRepository(pool)
	booksService := books.NewService(booksRepo, redisClient)

	lendingRepo := lending.NewRepository(pool)
	lendingService := lending.NewService(lendingRepo)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		AuthHandler:    auth.NewHandler(logger, authService, tokens),
		BooksHandler:   books.NewHandler(logger, booksService),
		LendingHandler: lending.NewHandler(logger, lendingService),
		Tokens:         tokens,
		Users:          authRepo,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
