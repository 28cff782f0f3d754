// Webhook-mode entry point: Telegram pushes updates through API Gateway into
// a Lambda function. The long-poll daemon lives in cmd/main.go.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"tbank-bot/handler"
	"tbank-bot/internal/config"
	"tbank-bot/internal/integrations/chartgen"
	"tbank-bot/internal/integrations/paramstore"
	"tbank-bot/internal/integrations/tbank"
	"tbank-bot/internal/session"
	"tbank-bot/internal/telegram"
	"tbank-bot/internal/usecase"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	if cfg.SessionBackend != config.BackendDynamo {
		slog.Error("webhook mode requires the dynamo session backend", "backend", cfg.SessionBackend)
		os.Exit(1)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	token := cfg.TelegramToken
	consumerID := cfg.ConsumerID
	if token == "" || consumerID == "" {
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

	store, err := session.NewDynamo(awsdynamodb.NewFromConfig(awsCfg), cfg.StateTable)
	if err != nil {
		slog.Error("failed to create session store", "err", err)
		os.Exit(1)
	}
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
	h, err := handler.NewHandler(controller)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
