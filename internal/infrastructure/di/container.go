package di

import (
	"context"
	"time"

	"go.uber.org/zap"

	"balance_valuer/internal/app/port"
	"balance_valuer/internal/app/service"
	"balance_valuer/internal/domain/entity"
	"balance_valuer/internal/infrastructure/configloader"
	"balance_valuer/internal/infrastructure/network/client"
	"balance_valuer/internal/infrastructure/oracle"
	"balance_valuer/internal/infrastructure/ticker"
	"balance_valuer/internal/infrastructure/tokenindex"
	"balance_valuer/internal/pkg/cache"
)

// Container holds the wired valuation pipeline. One container is built per
// process; it owns the three caches and every collaborator handle, so there
// is no hidden process-wide state.
type Container struct {
	ChainClient    *client.EthClient
	TokenIndex     port.TokenIndex
	Metadata       port.MetadataResolver
	BasePriceFeed  port.BasePriceFeed
	TokenPrices    port.TokenPriceService
	BalanceService port.BalanceService
}

// Build dials the chain RPC endpoint and wires the full pipeline: token
// index, ticker fallback chain, oracle fallback chain and the three caches.
func Build(ctx context.Context, cfg *configloader.Config, logger *zap.Logger) (*Container, error) {
	ethClient, err := client.NewEthClient(ctx, cfg.Chain.RPCURL,
		time.Duration(cfg.Chain.ConnectionTimeoutSeconds)*time.Second,
		time.Duration(cfg.Chain.RPCCallTimeoutSeconds)*time.Second,
		logger)
	if err != nil {
		return nil, err
	}

	tokenIndex := tokenindex.NewLogIndex(ethClient.Eth(),
		cfg.TokenIndex.StartBlock, cfg.TokenIndex.BlockChunkSize,
		cfg.TokenIndex.RequestsPerSecond, logger)

	metadataCache := cache.New[string, entity.TokenMetadata]("token_metadata", cfg.Caches.MaxEntries, 0)
	basePriceCache := cache.New[string, float64]("base_price", cfg.Caches.MaxEntries,
		time.Duration(cfg.Caches.BasePriceTTLMinutes)*time.Minute)
	tokenPriceCache := cache.New[string, float64]("token_price", cfg.Caches.MaxEntries,
		time.Duration(cfg.Caches.TokenPriceTTLMinutes)*time.Minute)

	metadataResolver := service.NewMetadataResolver(ethClient, metadataCache, cfg.Tokens.LogoBaseURL, logger)

	basePriceFeed := service.NewBasePriceFeed([]port.TickerSource{
		ticker.NewKrakenClient(cfg.Tickers.Kraken.BaseURL, cfg.Tickers.Kraken.Symbol,
			time.Duration(cfg.Tickers.Kraken.RequestTimeoutMillis)*time.Millisecond, logger),
		ticker.NewBinanceClient(cfg.Tickers.Binance.BaseURL, cfg.Tickers.Binance.Symbol,
			time.Duration(cfg.Tickers.Binance.RequestTimeoutMillis)*time.Millisecond, logger),
	}, basePriceCache, logger)

	tokenPriceService := service.NewTokenPriceService([]port.PriceOracle{
		oracle.NewUniswapOracle(ethClient.Eth(), cfg.Oracles.UniswapFactoryAddress, metadataResolver, logger),
		oracle.NewKyberOracle(ethClient.Eth(), cfg.Oracles.KyberNetworkProxyAddress, metadataResolver, logger),
	}, tokenPriceCache, logger)

	balanceService := service.NewBalanceService(tokenIndex, ethClient, metadataResolver, basePriceFeed, tokenPriceService, logger)

	return &Container{
		ChainClient:    ethClient,
		TokenIndex:     tokenIndex,
		Metadata:       metadataResolver,
		BasePriceFeed:  basePriceFeed,
		TokenPrices:    tokenPriceService,
		BalanceService: balanceService,
	}, nil
}
