package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"balance_valuer/internal/app/port"
	"balance_valuer/internal/domain/entity"
	"balance_valuer/internal/pkg/cache"
	"balance_valuer/internal/pkg/metrics"
)

const basePriceCacheKey = "base_usd"

// basePriceFeedImpl implements port.BasePriceFeed over an ordered list of
// ticker sources. The first source that answers wins; the result is cached.
// Failures are never cached, so the next call retries immediately.
type basePriceFeedImpl struct {
	sources []port.TickerSource
	cache   *cache.Cache[string, float64]
	logger  *zap.Logger
}

// NewBasePriceFeed creates a base currency price feed. Sources are tried in
// the given order.
func NewBasePriceFeed(
	sources []port.TickerSource,
	priceCache *cache.Cache[string, float64],
	logger *zap.Logger,
) port.BasePriceFeed {
	return &basePriceFeedImpl{
		sources: sources,
		cache:   priceCache,
		logger:  logger.Named("BasePriceFeed"),
	}
}

// PriceUSD implements port.BasePriceFeed.
func (s *basePriceFeedImpl) PriceUSD(ctx context.Context) (float64, error) {
	if price, ok := s.cache.Get(basePriceCacheKey); ok {
		return price, nil
	}

	var lastErr error
	for _, source := range s.sources {
		price, err := source.PriceUSD(ctx)
		if err != nil {
			metrics.TickerFailures.WithLabelValues(source.Name()).Inc()
			s.logger.Warn("Cannot get base currency price from source",
				zap.String("source", source.Name()),
				zap.Error(err))
			lastErr = err
			continue
		}
		s.cache.Add(basePriceCacheKey, price)
		return price, nil
	}

	return 0, fmt.Errorf("%w: all sources failed, last error: %v", entity.ErrPriceUnavailable, lastErr)
}
