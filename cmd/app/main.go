package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"saas-starter/internal/config"
	"saas-starter/internal/infra/auth"
	"saas-starter/internal/infra/billing"
	pg "saas-starter/internal/infra/db/postgres"
	"saas-starter/internal/infra/logging"
	"saas-starter/internal/infra/metrics"
	red "saas-starter/internal/infra/redis"
	"saas-starter/internal/infra/web"
	"saas-starter/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, .env loading)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer func() { _ = redisClient.Close() }()
	sessions := red.NewSessionStore(redisClient, cfg.Redis.TTL)

	verifier, err := auth.NewSessionVerifier(cfg.Auth.JWTSecret, sessions)
	if err != nil {
		logger.Fatal().Err(err).Msg("session verifier init failed")
	}

	// ---- Repositories ----
	userRepo := pg.NewPostgresUserRepo(pool)
	productRepo := pg.NewPostgresProductRepo(pool)
	subRepo := pg.NewPostgresSubscriptionRepo(pool)
	eventRepo := pg.NewPostgresWebhookEventRepo(pool)
	txm := pg.NewTxManager(pool)

	// ---- Billing gateway ----
	gateway, err := billing.NewPolarClient(cfg.Polar.AccessToken, cfg.Polar.OrganizationID, cfg.Polar.BaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("polar client init failed")
	}

	// ---- Use cases ----
	subUC := usecase.NewSubscriptionUseCase(subRepo, productRepo, userRepo, gateway, txm, cfg.Server.AppURL, logger)
	webhookUC := usecase.NewWebhookUseCase(eventRepo, subUC, cfg.Polar.WebhookSecret, logger)
	userUC := usecase.NewUserUseCase(userRepo, logger)
	productUC := usecase.NewProductUseCase(productRepo, logger)

	// ---- HTTP server ----
	srv := web.NewServer(webhookUC, subUC, userUC, productUC, verifier, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	cancel()
}
