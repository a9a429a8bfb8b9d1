package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"balance_valuer/internal/app/port"
	"balance_valuer/internal/pkg/cache"
	"balance_valuer/internal/pkg/metrics"
)

// tokenPriceServiceImpl implements port.TokenPriceService over an ordered
// list of on-chain oracles. It never fails: when every oracle fails the
// price degrades to 0, and that zero is cached for the full TTL like any
// other value, so a token with no liquidity is not re-queried on every call.
type tokenPriceServiceImpl struct {
	oracles []port.PriceOracle
	cache   *cache.Cache[string, float64]
	logger  *zap.Logger
}

// NewTokenPriceService creates a token price oracle chain. Oracles are tried
// in the given order.
func NewTokenPriceService(
	oracles []port.PriceOracle,
	priceCache *cache.Cache[string, float64],
	logger *zap.Logger,
) port.TokenPriceService {
	return &tokenPriceServiceImpl{
		oracles: oracles,
		cache:   priceCache,
		logger:  logger.Named("TokenPriceService"),
	}
}

// PriceInBase implements port.TokenPriceService.
func (s *tokenPriceServiceImpl) PriceInBase(ctx context.Context, tokenAddress string) float64 {
	key := strings.ToLower(tokenAddress)
	if price, ok := s.cache.Get(key); ok {
		return price
	}

	for _, o := range s.oracles {
		price, err := o.SpotPrice(ctx, tokenAddress)
		if err != nil {
			metrics.OracleFailures.WithLabelValues(o.Name()).Inc()
			s.logger.Warn("Cannot get base currency value for token from oracle",
				zap.String("oracle", o.Name()),
				zap.String("tokenAddress", tokenAddress),
				zap.Error(err))
			continue
		}
		s.cache.Add(key, price)
		return price
	}

	metrics.OracleZeroDegradations.Inc()
	s.logger.Warn("All oracles failed for token, degrading price to zero",
		zap.String("tokenAddress", tokenAddress))
	s.cache.Add(key, 0)
	return 0
}
