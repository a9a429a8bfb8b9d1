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

func newBinanceTestClient(t *testing.T, handler http.HandlerFunc) *BinanceClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewBinanceClient(srv.URL, "ETHUSDT", time.Second, zap.NewNop())
}

func TestBinanceClient_ParsesPrice(t *testing.T) {
	client := newBinanceTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/avgPrice", r.URL.Path)
		assert.Equal(t, "ETHUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"mins":5,"price":"1999.12345678"}`))
	})

	price, err := client.PriceUSD(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1999.12345678, price)
}

func TestBinanceClient_APIError(t *testing.T) {
	client := newBinanceTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	})

	_, err := client.PriceUSD(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid symbol.")
}

func TestBinanceClient_MissingPriceField(t *testing.T) {
	client := newBinanceTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"mins":5}`))
	})

	_, err := client.PriceUSD(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no price")
}

func TestBinanceClient_ZeroPriceRejected(t *testing.T) {
	client := newBinanceTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"price":"0"}`))
	})

	_, err := client.PriceUSD(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zero")
}

func TestBinanceClient_UnparseablePrice(t *testing.T) {
	client := newBinanceTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"price":"NaN-ish"}`))
	})

	_, err := client.PriceUSD(context.Background())
	require.Error(t, err)
}
