package ticker

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"balance_valuer/internal/app/port"
)

// binanceAvgPriceResponse is Binance's current average price payload. Msg is
// set on error responses.
type binanceAvgPriceResponse struct {
	Price string `json:"price"`
	Msg   string `json:"msg"`
}

// BinanceClient fetches the base currency USD price from Binance's average
// price endpoint.
type BinanceClient struct {
	client  *fasthttp.Client
	baseURL string
	symbol  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewBinanceClient creates a Binance ticker source for the given symbol,
// e.g. "ETHUSDT".
func NewBinanceClient(baseURL, symbol string, timeout time.Duration, logger *zap.Logger) *BinanceClient {
	return &BinanceClient{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		symbol:  symbol,
		timeout: timeout,
		logger:  logger.Named("BinanceClient"),
	}
}

// Name implements port.TickerSource.
func (c *BinanceClient) Name() string {
	return "binance"
}

// PriceUSD implements port.TickerSource.
func (c *BinanceClient) PriceUSD(ctx context.Context) (float64, error) {
	requestURL := fmt.Sprintf("%s/api/v3/avgPrice?symbol=%s", c.baseURL, c.symbol)

	body, statusCode, err := doGet(ctx, c.client, requestURL, c.timeout)
	if err != nil {
		return 0, fmt.Errorf("binance request to %s failed: %w", requestURL, err)
	}

	var payload binanceAvgPriceResponse
	if unmarshalErr := json.Unmarshal(body, &payload); unmarshalErr != nil {
		return 0, fmt.Errorf("failed to unmarshal binance response from %s: %w", requestURL, unmarshalErr)
	}
	if statusCode != fasthttp.StatusOK {
		c.logger.Warn("Binance ticker request rejected",
			zap.String("url", requestURL),
			zap.Int("statusCode", statusCode),
			zap.String("apiError", payload.Msg))
		return 0, fmt.Errorf("binance request to %s failed with status %d: %s", requestURL, statusCode, payload.Msg)
	}
	if payload.Price == "" {
		return 0, fmt.Errorf("binance response from %s contains no price", requestURL)
	}

	price, convErr := strconv.ParseFloat(payload.Price, 64)
	if convErr != nil {
		return 0, fmt.Errorf("failed to parse binance price %q: %w", payload.Price, convErr)
	}
	if price == 0 {
		return 0, fmt.Errorf("binance price from %s is zero", requestURL)
	}
	return price, nil
}

var _ port.TickerSource = (*BinanceClient)(nil)
