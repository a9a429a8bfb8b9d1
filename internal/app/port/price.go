package port

import "context"

// TickerSource is a single REST ticker API returning the base currency price
// in USD.
type TickerSource interface {
	Name() string
	PriceUSD(ctx context.Context) (float64, error)
}

// PriceOracle is a single on-chain price source derived from
// decentralized-exchange liquidity. SpotPrice returns the price of one unit
// of the token in base currency units, or an *entity.OracleError.
type PriceOracle interface {
	Name() string
	SpotPrice(ctx context.Context, tokenAddress string) (float64, error)
}

// BasePriceFeed returns the current base currency price in USD, trying its
// ticker sources in order. Fails with entity.ErrPriceUnavailable only when
// every source failed.
type BasePriceFeed interface {
	PriceUSD(ctx context.Context) (float64, error)
}

// TokenPriceService returns a token's price denominated in the base
// currency. It never fails: when no oracle succeeds the price degrades to 0,
// meaning the token has no determinable market value.
type TokenPriceService interface {
	PriceInBase(ctx context.Context, tokenAddress string) float64
}
