package ticker

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"balance_valuer/internal/app/port"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// krakenTickerResponse is the relevant part of Kraken's public Ticker payload.
// "c" holds the last trade close price as its first element.
type krakenTickerResponse struct {
	Error  []interface{} `json:"error"`
	Result map[string]struct {
		Close []string `json:"c"`
	} `json:"result"`
}

// KrakenClient fetches the base currency USD price from Kraken's public
// ticker endpoint.
type KrakenClient struct {
	client  *fasthttp.Client
	baseURL string
	pair    string
	timeout time.Duration
	logger  *zap.Logger
}

// NewKrakenClient creates a Kraken ticker source for the given pair,
// e.g. "ETHUSD".
func NewKrakenClient(baseURL, pair string, timeout time.Duration, logger *zap.Logger) *KrakenClient {
	return &KrakenClient{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		pair:    pair,
		timeout: timeout,
		logger:  logger.Named("KrakenClient"),
	}
}

// Name implements port.TickerSource.
func (c *KrakenClient) Name() string {
	return "kraken"
}

// PriceUSD implements port.TickerSource.
func (c *KrakenClient) PriceUSD(ctx context.Context) (float64, error) {
	requestURL := fmt.Sprintf("%s/0/public/Ticker?pair=%s", c.baseURL, c.pair)

	body, statusCode, err := doGet(ctx, c.client, requestURL, c.timeout)
	if err != nil {
		return 0, fmt.Errorf("kraken request to %s failed: %w", requestURL, err)
	}

	var payload krakenTickerResponse
	if unmarshalErr := json.Unmarshal(body, &payload); unmarshalErr != nil {
		return 0, fmt.Errorf("failed to unmarshal kraken response from %s: %w", requestURL, unmarshalErr)
	}
	if statusCode != fasthttp.StatusOK || len(payload.Error) > 0 {
		c.logger.Warn("Kraken ticker request rejected",
			zap.String("url", requestURL),
			zap.Int("statusCode", statusCode),
			zap.Any("apiError", payload.Error))
		return 0, fmt.Errorf("kraken request to %s failed with status %d: %v", requestURL, statusCode, payload.Error)
	}

	for _, tickerData := range payload.Result {
		if len(tickerData.Close) == 0 {
			continue
		}
		price, convErr := strconv.ParseFloat(tickerData.Close[0], 64)
		if convErr != nil {
			return 0, fmt.Errorf("failed to parse kraken price %q: %w", tickerData.Close[0], convErr)
		}
		if price == 0 {
			return 0, fmt.Errorf("kraken price from %s is zero", requestURL)
		}
		return price, nil
	}

	return 0, fmt.Errorf("kraken response from %s contains no price", requestURL)
}

// doGet executes a GET request honouring the context deadline when present,
// falling back to the client timeout otherwise.
func doGet(ctx context.Context, client *fasthttp.Client, requestURL string, timeout time.Duration) ([]byte, int, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = client.DoDeadline(req, resp, deadline)
	} else {
		err = client.DoTimeout(req, resp, timeout)
	}
	if err != nil {
		return nil, 0, err
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, resp.StatusCode(), nil
}

var _ port.TickerSource = (*KrakenClient)(nil)
