package ticker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newKrakenTestClient(t *testing.T, handler http.HandlerFunc) *KrakenClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewKrakenClient(srv.URL, "ETHUSD", time.Second, zap.NewNop())
}

func TestKrakenClient_ParsesPrice(t *testing.T) {
	client := newKrakenTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/0/public/Ticker", r.URL.Path)
		assert.Equal(t, "ETHUSD", r.URL.Query().Get("pair"))
		w.Write([]byte(`{"error":[],"result":{"XETHZUSD":{"c":["2000.25","12.5"]}}}`))
	})

	price, err := client.PriceUSD(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2000.25, price)
}

func TestKrakenClient_APIErrorSignal(t *testing.T) {
	client := newKrakenTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"error":["EService:Unavailable"],"result":{}}`))
	})

	_, err := client.PriceUSD(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EService:Unavailable")
}

func TestKrakenClient_NonOKStatus(t *testing.T) {
	client := newKrakenTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":[]}`))
	})

	_, err := client.PriceUSD(context.Background())
	require.Error(t, err)
}

func TestKrakenClient_ZeroPriceRejected(t *testing.T) {
	client := newKrakenTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"error":[],"result":{"XETHZUSD":{"c":["0.00","1.0"]}}}`))
	})

	_, err := client.PriceUSD(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zero")
}

func TestKrakenClient_MissingPriceField(t *testing.T) {
	client := newKrakenTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"error":[],"result":{}}`))
	})

	_, err := client.PriceUSD(context.Background())
	require.Error(t, err)
}

func TestKrakenClient_UnparseablePrice(t *testing.T) {
	client := newKrakenTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"error":[],"result":{"XETHZUSD":{"c":["not-a-number"]}}}`))
	})

	_, err := client.PriceUSD(context.Background())
	require.Error(t, err)
}
