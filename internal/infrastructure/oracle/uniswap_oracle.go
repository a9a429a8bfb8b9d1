package oracle

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"balance_valuer/internal/app/port"
	"balance_valuer/internal/domain/entity"
)

const uniswapFactoryABI = `[
	{"constant":true,"inputs":[{"name":"token","type":"address"}],"name":"getExchange","outputs":[{"name":"","type":"address"}],"payable":false,"stateMutability":"view","type":"function"}
]`

const erc20BalanceOfABI = `[
	{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}
]`

var (
	parsedFactoryABI   abi.ABI
	parsedBalanceOfABI abi.ABI
	parseOnce          sync.Once
)

func initOracleABIs() {
	parseOnce.Do(func() {
		var err error
		parsedFactoryABI, err = abi.JSON(strings.NewReader(uniswapFactoryABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse Uniswap factory ABI: %v", err))
		}
		parsedBalanceOfABI, err = abi.JSON(strings.NewReader(erc20BalanceOfABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse ERC20 balanceOf ABI: %v", err))
		}
	})
}

// UniswapOracle derives a token's base currency price from the reserves of
// its Uniswap v1 exchange: ETH reserve over token reserve, adjusted for the
// token's decimals.
type UniswapOracle struct {
	ethClient *ethclient.Client
	factory   common.Address
	metadata  port.MetadataResolver
	logger    *zap.Logger
}

// NewUniswapOracle creates a Uniswap v1 pool oracle.
func NewUniswapOracle(ethClient *ethclient.Client, factoryAddress string, metadata port.MetadataResolver, logger *zap.Logger) *UniswapOracle {
	initOracleABIs()
	return &UniswapOracle{
		ethClient: ethClient,
		factory:   common.HexToAddress(factoryAddress),
		metadata:  metadata,
		logger:    logger.Named("UniswapOracle"),
	}
}

// Name implements port.PriceOracle.
func (o *UniswapOracle) Name() string {
	return "uniswap"
}

// SpotPrice implements port.PriceOracle.
func (o *UniswapOracle) SpotPrice(ctx context.Context, tokenAddress string) (float64, error) {
	token := common.HexToAddress(tokenAddress)

	callData, err := parsedFactoryABI.Pack("getExchange", token)
	if err != nil {
		return 0, o.fail(tokenAddress, fmt.Errorf("failed to pack getExchange call: %w", err))
	}
	raw, err := o.ethClient.CallContract(ctx, ethereum.CallMsg{To: &o.factory, Data: callData}, nil)
	if err != nil {
		return 0, o.fail(tokenAddress, fmt.Errorf("getExchange call failed: %w", err))
	}
	unpacked, err := parsedFactoryABI.Unpack("getExchange", raw)
	if err != nil || len(unpacked) == 0 {
		return 0, o.fail(tokenAddress, fmt.Errorf("cannot decode getExchange response: %v", err))
	}
	exchange, ok := unpacked[0].(common.Address)
	if !ok || exchange == (common.Address{}) {
		return 0, o.fail(tokenAddress, fmt.Errorf("no exchange registered for token"))
	}

	ethReserve, err := o.ethClient.BalanceAt(ctx, exchange, nil)
	if err != nil {
		return 0, o.fail(tokenAddress, fmt.Errorf("failed to read exchange ETH reserve: %w", err))
	}
	tokenReserve, err := o.tokenBalanceOf(ctx, token, exchange)
	if err != nil {
		return 0, o.fail(tokenAddress, err)
	}
	if ethReserve.Sign() == 0 || tokenReserve.Sign() == 0 {
		return 0, o.fail(tokenAddress, fmt.Errorf("exchange %s has empty reserves", exchange.Hex()))
	}

	md, err := o.metadata.Resolve(ctx, tokenAddress)
	if err != nil {
		return 0, o.fail(tokenAddress, fmt.Errorf("cannot resolve token decimals: %w", err))
	}

	ethUnits, _ := new(big.Float).Quo(
		new(big.Float).SetInt(ethReserve),
		new(big.Float).SetInt(exp10(int64(entity.BaseCurrencyDecimals))),
	).Float64()
	tokenUnits, _ := new(big.Float).Quo(
		new(big.Float).SetInt(tokenReserve),
		new(big.Float).SetInt(exp10(int64(md.Decimals))),
	).Float64()
	if tokenUnits == 0 {
		return 0, o.fail(tokenAddress, fmt.Errorf("token reserve rounds to zero"))
	}

	price := ethUnits / tokenUnits
	o.logger.Debug("Derived price from pool reserves",
		zap.String("tokenAddress", tokenAddress),
		zap.String("exchange", exchange.Hex()),
		zap.Float64("price", price))
	return price, nil
}

func (o *UniswapOracle) tokenBalanceOf(ctx context.Context, token, holder common.Address) (*big.Int, error) {
	callData, err := parsedBalanceOfABI.Pack("balanceOf", holder)
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf call: %w", err)
	}
	raw, err := o.ethClient.CallContract(ctx, ethereum.CallMsg{To: &token, Data: callData}, nil)
	if err != nil {
		return nil, fmt.Errorf("balanceOf call failed: %w", err)
	}
	unpacked, err := parsedBalanceOfABI.Unpack("balanceOf", raw)
	if err != nil || len(unpacked) == 0 {
		return nil, fmt.Errorf("cannot decode balanceOf response: %v", err)
	}
	balance, ok := unpacked[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type %T", unpacked[0])
	}
	return balance, nil
}

func (o *UniswapOracle) fail(tokenAddress string, err error) error {
	return &entity.OracleError{Source: o.Name(), TokenAddress: tokenAddress, Err: err}
}

func exp10(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}

var _ port.PriceOracle = (*UniswapOracle)(nil)
