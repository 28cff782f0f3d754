package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"tbank-bot/internal/telegram"
)

type stubController struct {
	updates []telegram.Update
}

func (s *stubController) HandleUpdate(_ context.Context, u telegram.Update) {
	s.updates = append(s.updates, u)
}

func makeEvent(body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/webhook",
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func TestNewHandler_ValidatesDependency(t *testing.T) {
	_, err := NewHandler(nil)
	require.Error(t, err)
}

func TestHandle_TextMessage(t *testing.T) {
	ctrl := &stubController{}
	h, err := NewHandler(ctrl)
	require.NoError(t, err)

	body := `{"update_id":1,"message":{"message_id":42,"chat":{"id":777},"text":"/start"}}`
	resp, err := h.Handle(context.Background(), makeEvent(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, ctrl.updates, 1)
	require.Equal(t, telegram.Update{ChatID: "777", MessageID: 42, Text: "/start"}, ctrl.updates[0])
}

func TestHandle_CallbackQuery(t *testing.T) {
	ctrl := &stubController{}
	h, err := NewHandler(ctrl)
	require.NoError(t, err)

	body := `{"update_id":2,"callback_query":{"id":"cb-1","data":"Login","message":{"message_id":7,"chat":{"id":777}}}}`
	resp, err := h.Handle(context.Background(), makeEvent(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, ctrl.updates, 1)
	require.Equal(t, telegram.Update{ChatID: "777", MessageID: 7, Callback: "Login"}, ctrl.updates[0])
}

func TestHandle_MalformedBody_StillOK(t *testing.T) {
	ctrl := &stubController{}
	h, err := NewHandler(ctrl)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(`not-json`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, ctrl.updates)
}

func TestHandle_UnsupportedUpdateKind_StillOK(t *testing.T) {
	ctrl := &stubController{}
	h, err := NewHandler(ctrl)
	require.NoError(t, err)

	// An edited message carries neither a text message nor a callback.
	body := `{"update_id":3,"edited_message":{"message_id":9,"chat":{"id":777},"text":"later"}}`
	resp, err := h.Handle(context.Background(), makeEvent(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, ctrl.updates)
}
