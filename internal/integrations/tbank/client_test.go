package tbank

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"tbank-bot/internal/domain"
)

// newGatewayServer serves canned envelope payloads and records each request's
// decoded query parameters.
type gatewayServer struct {
	*httptest.Server
	requests []url.Values
}

func newGatewayServer(t *testing.T, serviceResponse string) *gatewayServer {
	t.Helper()
	gs := &gatewayServer{}
	gs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		gs.requests = append(gs.requests, r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Content":{"ServiceResponse":` + serviceResponse + `}}`))
	}))
	t.Cleanup(gs.Close)
	return gs
}

func (gs *gatewayServer) lastHeader(t *testing.T) map[string]string {
	t.Helper()
	require.NotEmpty(t, gs.requests)
	var h map[string]string
	require.NoError(t, json.Unmarshal([]byte(gs.requests[len(gs.requests)-1].Get("Header")), &h))
	return h
}

func (gs *gatewayServer) lastContent(t *testing.T) map[string]any {
	t.Helper()
	require.NotEmpty(t, gs.requests)
	var c map[string]any
	require.NoError(t, json.Unmarshal([]byte(gs.requests[len(gs.requests)-1].Get("Content")), &c))
	return c
}

func TestNewClient_Validates(t *testing.T) {
	_, err := NewClient("", "consumer-1")
	require.Error(t, err)
	_, err = NewClient("http://gateway", "  ")
	require.Error(t, err)
}

func TestInvoke_QueryEncoding(t *testing.T) {
	gs := newGatewayServer(t, `{"ErrorText":"","ErrorDetails":"success","GlobalErrorID":""}`)
	c, err := NewClient(gs.URL, "consumer-1")
	require.NoError(t, err)

	cred := domain.Credentials{UserID: "alice", PIN: "1234"}
	require.NoError(t, c.RequestOTP(context.Background(), cred))

	q := gs.requests[0]
	require.Equal(t, "consumer-1", q.Get("ConsumerID"))

	// The gateway is case-sensitive about the header's field spellings.
	header := gs.lastHeader(t)
	require.Equal(t, "requestOTP", header["serviceName"])
	require.Equal(t, "alice", header["userID"])
	require.Equal(t, "1234", header["PIN"])
	require.NotContains(t, header, "OTP")
	require.Empty(t, q.Get("Content"))
}

func TestInvoke_Non2xxIsHTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, "consumer-1")
	require.NoError(t, err)

	err = c.RequestOTP(context.Background(), domain.Credentials{UserID: "alice", PIN: "1234"})
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusBadGateway, statusErr.HTTPStatusCode())
}

func TestInvoke_MalformedEnvelopeIsDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, "consumer-1")
	require.NoError(t, err)

	err = c.RequestOTP(context.Background(), domain.Credentials{UserID: "alice", PIN: "1234"})
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	require.Equal(t, "requestOTP", decodeErr.Op)
	require.Contains(t, string(decodeErr.Payload), "not json")
}

func TestInvoke_MissingServiceResponseIsDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"Content":{}}`))
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, "consumer-1")
	require.NoError(t, err)

	err = c.RequestOTP(context.Background(), domain.Credentials{UserID: "alice", PIN: "1234"})
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
}
