package chartgen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"tbank-bot/internal/domain"
)

var testTrend = domain.BalanceTrend{
	MonthEnd: []domain.BalancePoint{
		{YearMonth: "2026-06", Balance: "180.00"},
		{YearMonth: "2026-07", Balance: "200.00"},
	},
	CurrentMonth: domain.BalancePoint{YearMonth: "2026-08", Balance: "150.00"},
}

func TestNewClient_Validates(t *testing.T) {
	_, err := NewClient("  ")
	require.Error(t, err)
}

func TestRender(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var trend domain.BalanceTrend
		require.NoError(t, json.NewDecoder(r.Body).Decode(&trend))
		require.Equal(t, testTrend, trend)

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	png, err := c.Render(context.Background(), testTrend)
	require.NoError(t, err)
	require.Equal(t, []byte("png-bytes"), png)
}

func TestRender_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "renderer broke", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.Render(context.Background(), testTrend)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected status 500")
}

func TestRender_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.Render(context.Background(), testTrend)
	require.Error(t, err)
}
