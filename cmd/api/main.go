package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pesaprime/internal/config"
	"pesaprime/internal/database"
	"pesaprime/internal/lock"
	"pesaprime/internal/logger"
	"pesaprime/internal/pricefeed"
	"pesaprime/internal/router"
	"pesaprime/internal/services"
	"pesaprime/internal/store"
)

// @title           PesaPrime API
// @version         1.0
// @description     PesaPrime is a KES wallet with simulated market investments.

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() { _ = dbManager.Close() }()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	locker, closeLocker, err := newLocker(appConfig)
	if err != nil {
		return err
	}
	defer closeLocker()

	feed := pricefeed.NewDefaultFeed(pricefeed.Config{
		Live:    appConfig.PriceFeedLive,
		Timeout: appConfig.PriceFeedTimeout,
	}, appConfig.Currency)

	bundle := services.NewBundle(store.NewGormLedger(dbManager.DB()), locker, feed, services.Settings{
		Currency:    appConfig.Currency,
		SignupBonus: appConfig.SignupBonus,
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router.New(bundle, appConfig.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting PesaPrime server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newLocker uses Redis when REDIS_ADDR is set so several API replicas
// serialise on the same wallet, and an in-process locker otherwise.
func newLocker(cfg *config.Config) (lock.Locker, func(), error) {
	if cfg.RedisAddr == "" {
		logger.Get().Info("Using in-process wallet locks")
		return lock.NewLocalLocker(), func() {}, nil
	}

	client := lock.NewRedisClient(&lock.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}

	logger.Get().Infof("Using redis wallet locks at %s", cfg.RedisAddr)
	return lock.NewRedisLocker(client, 0, 0), func() { _ = client.Close() }, nil
}
