package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"textbookexchange/backend/internal/account"
	"textbookexchange/backend/internal/api/handler"
	"textbookexchange/backend/internal/auth"
	"textbookexchange/backend/internal/chathub"
	"textbookexchange/backend/internal/config"
	"textbookexchange/backend/internal/listing"
	"textbookexchange/backend/internal/mail"
	"textbookexchange/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/mama165/sdk-go/logs"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const purgeInterval = time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func setupDependencies(ctx context.Context, cfg config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect PostgreSQL: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to connect Redis: %w", err)
	}
	return db, rdb, nil
}

func newMailer(cfg config.Config, log *slog.Logger) (mail.Mailer, error) {
	if strings.EqualFold(cfg.MailDriver, "ses") {
		return mail.NewSESMailer(cfg.AWSRegion, cfg.MailFrom)
	}
	return &mail.LogMailer{Log: log}, nil
}

func run() error {
	// 1. Configuration & Logger
	cfg, err := config.Load(nil)
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. PostgreSQL, Redis and migrations
	db, rdb, err := setupDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("Closing Redis...")
		_ = rdb.Close()
	}()

	store := storage.NewStorageService(db, rdb)
	if err := store.Migrate(); err != nil {
		return err
	}
	log.Info("Database and Redis connections established, migrations complete")

	mailer, err := newMailer(cfg, log)
	if err != nil {
		return fmt.Errorf("mailer setup failed: %w", err)
	}

	// 3. Services
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	accounts := account.NewService(store, tokens, mailer, log, account.Options{
		VerificationTTL: cfg.VerificationTTL,
		VerifyURLBase:   cfg.VerifyURLBase,
	})
	listings := listing.NewService(store, log)
	hub := chathub.NewManagerService(log)
	relay := chathub.NewRelay(store, hub, log)
	gate := auth.NewGate(tokens, store, log, handler.PublicRoutes...)

	go hub.Run(ctx)
	go accounts.RunPurger(ctx, purgeInterval, cfg.UnverifiedMaxAge)

	// 4. HTTP
	h := handler.NewHandler(ctx, accounts, listings, store, hub, relay, gate, log, cfg.AllowedOrigins)
	router, err := handler.NewRouter(h, gate, cfg.AllowedOrigins)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	<-hub.Done()
	log.Info("Program stopped cleanly")
	return nil
}
