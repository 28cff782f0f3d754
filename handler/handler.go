// Package handler is the Lambda webhook entry point. Telegram delivers
// updates as API Gateway proxy requests; the handler decodes them and runs
// the conversation controller.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tbank-bot/internal/telegram"
)

// Controller handles one inbound chat update end to end.
type Controller interface {
	HandleUpdate(ctx context.Context, u telegram.Update)
}

type Handler struct {
	controller Controller
}

func NewHandler(controller Controller) (*Handler, error) {
	if controller == nil {
		return nil, errors.New("handler: controller must not be nil")
	}
	return &Handler{controller: controller}, nil
}

// Handle processes one webhook delivery. It always returns 200: Telegram
// retries non-2xx deliveries indefinitely, and a malformed or unsupported
// update will not become well-formed on retry.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	ok := events.APIGatewayProxyResponse{StatusCode: http.StatusOK}

	var raw tgbotapi.Update
	if err := json.Unmarshal([]byte(req.Body), &raw); err != nil {
		slog.Warn("discarding malformed webhook body", "err", err)
		return ok, nil
	}
	update, supported := telegram.FromBotUpdate(raw)
	if !supported {
		return ok, nil
	}

	h.controller.HandleUpdate(ctx, update)
	return ok, nil
}
