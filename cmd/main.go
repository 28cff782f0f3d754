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

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tbank-bot/internal/config"
	"tbank-bot/internal/integrations/chartgen"
	"tbank-bot/internal/integrations/paramstore"
	"tbank-bot/internal/integrations/tbank"
	"tbank-bot/internal/session"
	"tbank-bot/internal/telegram"
	"tbank-bot/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	// ---- Secrets ----
	token := cfg.TelegramToken
	consumerID := cfg.ConsumerID
	if token == "" || consumerID == "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			slog.Error("failed to load AWS config", "err", err)
			os.Exit(1)
		}
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			slog.Error("failed to create SSM client", "err", err)
			os.Exit(1)
		}
		secrets, err := paramstore.LoadSecrets(ctx, ssmClient, cfg.ParamPrefix)
		if err != nil {
			slog.Error("failed to load secrets", "err", err)
			os.Exit(1)
		}
		if token == "" {
			token = secrets.TelegramToken
		}
		if consumerID == "" {
			consumerID = secrets.ConsumerID
		}
	}

	// ---- Session store ----
	var store session.Store
	switch cfg.SessionBackend {
	case config.BackendDynamo:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			slog.Error("failed to load AWS config", "err", err)
			os.Exit(1)
		}
		store, err = session.NewDynamo(awsdynamodb.NewFromConfig(awsCfg), cfg.StateTable)
		if err != nil {
			slog.Error("failed to create session store", "err", err)
			os.Exit(1)
		}
	case config.BackendRedis:
		store, err = session.NewRedis(cfg.RedisURL)
		if err != nil {
			slog.Error("failed to create session store", "err", err)
			os.Exit(1)
		}
	default:
		store = session.NewMemory()
	}

	// ---- Clients ----
	gateway, err := tbank.NewClient(cfg.TBankURL, consumerID)
	if err != nil {
		slog.Error("failed to create gateway client", "err", err)
		os.Exit(1)
	}
	charts, err := chartgen.NewClient(cfg.ChartGeneratorURL)
	if err != nil {
		slog.Error("failed to create chart generator client", "err", err)
		os.Exit(1)
	}
	bot, err := telegram.NewBot(token)
	if err != nil {
		slog.Error("failed to create telegram bot", "err", err)
		os.Exit(1)
	}

	controller, err := usecase.NewController(gateway, store, bot, charts)
	if err != nil {
		slog.Error("failed to create controller", "err", err)
		os.Exit(1)
	}

	// ---- Health server ----
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{Addr: cfg.HealthAddr, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("health server failed", "err", err)
		}
	}()

	slog.Info("bot started", "backend", cfg.SessionBackend, "health_addr", cfg.HealthAddr)
	bot.Listen(ctx, controller.HandleUpdate)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("health server shutdown", "err", err)
	}
	slog.Info("bot stopped")
}
