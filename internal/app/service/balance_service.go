package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"balance_valuer/internal/app/port"
	"balance_valuer/internal/domain/entity"
	"balance_valuer/internal/pkg/utils"
)

// balanceServiceImpl implements port.BalanceService. It is the composition
// root of the valuation pipeline: failures below it that affect a single
// token are absorbed (dropped or valued at zero); only an invalid address or
// a missing base currency price propagate.
type balanceServiceImpl struct {
	index      port.TokenIndex
	chain      port.ChainClient
	metadata   port.MetadataResolver
	basePrice  port.BasePriceFeed
	tokenPrice port.TokenPriceService
	logger     *zap.Logger
}

// NewBalanceService creates a balance valuation service.
func NewBalanceService(
	index port.TokenIndex,
	chain port.ChainClient,
	metadata port.MetadataResolver,
	basePrice port.BasePriceFeed,
	tokenPrice port.TokenPriceService,
	logger *zap.Logger,
) port.BalanceService {
	return &balanceServiceImpl{
		index:      index,
		chain:      chain,
		metadata:   metadata,
		basePrice:  basePrice,
		tokenPrice: tokenPrice,
		logger:     logger.Named("BalanceService"),
	}
}

// GetBalances implements port.BalanceService. The base currency entry is
// always included regardless of amount; token entries are kept only when the
// amount is positive and the metadata resolves.
func (s *balanceServiceImpl) GetBalances(ctx context.Context, accountAddress string) ([]entity.Balance, error) {
	if !utils.IsChecksumAddress(accountAddress) {
		return nil, fmt.Errorf("%w: %s", entity.ErrInvalidAddress, accountAddress)
	}

	tokenAddresses, err := s.index.TokensUsedBy(ctx, accountAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to list token contracts for %s: %w", accountAddress, err)
	}

	rawBalances, err := s.chain.RawBalances(ctx, accountAddress, tokenAddresses)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch raw balances for %s: %w", accountAddress, err)
	}

	balances := make([]entity.Balance, 0, len(rawBalances))
	for _, raw := range rawBalances {
		if raw.TokenAddress == "" {
			balances = append(balances, entity.Balance{Amount: raw.Amount})
			continue
		}
		if raw.Amount == nil || raw.Amount.Sign() <= 0 {
			continue
		}
		md, resolveErr := s.metadata.Resolve(ctx, raw.TokenAddress)
		if resolveErr != nil {
			// Cannot be valued or displayed meaningfully; the resolver has
			// already logged the cause.
			continue
		}
		balances = append(balances, entity.Balance{
			TokenAddress: raw.TokenAddress,
			Token:        &md,
			Amount:       raw.Amount,
		})
	}

	s.logger.Debug("Aggregated balances",
		zap.String("accountAddress", accountAddress),
		zap.Int("knownTokens", len(tokenAddresses)),
		zap.Int("balanceCount", len(balances)))
	return balances, nil
}

// GetUSDBalances implements port.BalanceService. Every per-token oracle and
// metadata lookup is independent and cache-backed, so no batching is done
// across tokens.
func (s *balanceServiceImpl) GetUSDBalances(ctx context.Context, accountAddress string) ([]entity.ValuedBalance, error) {
	balances, err := s.GetBalances(ctx, accountAddress)
	if err != nil {
		return nil, err
	}

	basePriceUSD, err := s.basePrice.PriceUSD(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot value balances for %s: %w", accountAddress, err)
	}

	valued := make([]entity.ValuedBalance, 0, len(balances))
	for _, balance := range balances {
		var usd float64
		if balance.IsBase() {
			usd = basePriceUSD * utils.ToUnits(balance.Amount, entity.BaseCurrencyDecimals)
		} else {
			tokenPriceBase := s.tokenPrice.PriceInBase(ctx, balance.TokenAddress)
			if tokenPriceBase != 0 {
				usd = basePriceUSD * tokenPriceBase * utils.ToUnits(balance.Amount, balance.Token.Decimals)
			}
		}
		valued = append(valued, entity.ValuedBalance{
			Balance:   balance,
			USDAmount: utils.RoundUSD(usd),
		})
	}

	return valued, nil
}
