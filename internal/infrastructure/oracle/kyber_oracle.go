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

const kyberNetworkProxyABI = `[
	{"constant":true,"inputs":[{"name":"src","type":"address"},{"name":"dest","type":"address"},{"name":"srcQty","type":"uint256"}],"name":"getExpectedRate","outputs":[{"name":"expectedRate","type":"uint256"},{"name":"slippageRate","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}
]`

// kyberEthAddress is Kyber's placeholder for the native currency.
var kyberEthAddress = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

var (
	parsedKyberABI abi.ABI
	kyberParseOnce sync.Once
)

func initKyberABI() {
	kyberParseOnce.Do(func() {
		var err error
		parsedKyberABI, err = abi.JSON(strings.NewReader(kyberNetworkProxyABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse Kyber proxy ABI: %v", err))
		}
	})
}

// KyberOracle derives a token's base currency price from the Kyber network
// proxy's expected token-to-ETH conversion rate for one whole token.
type KyberOracle struct {
	ethClient *ethclient.Client
	proxy     common.Address
	metadata  port.MetadataResolver
	logger    *zap.Logger
}

// NewKyberOracle creates a Kyber network proxy oracle.
func NewKyberOracle(ethClient *ethclient.Client, proxyAddress string, metadata port.MetadataResolver, logger *zap.Logger) *KyberOracle {
	initKyberABI()
	return &KyberOracle{
		ethClient: ethClient,
		proxy:     common.HexToAddress(proxyAddress),
		metadata:  metadata,
		logger:    logger.Named("KyberOracle"),
	}
}

// Name implements port.PriceOracle.
func (o *KyberOracle) Name() string {
	return "kyber"
}

// SpotPrice implements port.PriceOracle.
func (o *KyberOracle) SpotPrice(ctx context.Context, tokenAddress string) (float64, error) {
	md, err := o.metadata.Resolve(ctx, tokenAddress)
	if err != nil {
		return 0, o.fail(tokenAddress, fmt.Errorf("cannot resolve token decimals: %w", err))
	}

	// Rate for one whole token, so decimals cancel out of the result.
	srcQty := exp10(int64(md.Decimals))
	token := common.HexToAddress(tokenAddress)

	callData, err := parsedKyberABI.Pack("getExpectedRate", token, kyberEthAddress, srcQty)
	if err != nil {
		return 0, o.fail(tokenAddress, fmt.Errorf("failed to pack getExpectedRate call: %w", err))
	}
	raw, err := o.ethClient.CallContract(ctx, ethereum.CallMsg{To: &o.proxy, Data: callData}, nil)
	if err != nil {
		return 0, o.fail(tokenAddress, fmt.Errorf("getExpectedRate call failed: %w", err))
	}
	unpacked, err := parsedKyberABI.Unpack("getExpectedRate", raw)
	if err != nil || len(unpacked) < 2 {
		return 0, o.fail(tokenAddress, fmt.Errorf("cannot decode getExpectedRate response: %v", err))
	}
	expectedRate, ok := unpacked[0].(*big.Int)
	if !ok {
		return 0, o.fail(tokenAddress, fmt.Errorf("unexpected expectedRate type %T", unpacked[0]))
	}
	if expectedRate.Sign() == 0 {
		return 0, o.fail(tokenAddress, fmt.Errorf("no rate available for token"))
	}

	// Rates are expressed with 18 decimals of precision.
	price, _ := new(big.Float).Quo(
		new(big.Float).SetInt(expectedRate),
		new(big.Float).SetInt(exp10(int64(entity.BaseCurrencyDecimals))),
	).Float64()
	o.logger.Debug("Derived price from expected rate",
		zap.String("tokenAddress", tokenAddress),
		zap.Float64("price", price))
	return price, nil
}

func (o *KyberOracle) fail(tokenAddress string, err error) error {
	return &entity.OracleError{Source: o.Name(), TokenAddress: tokenAddress, Err: err}
}

var _ port.PriceOracle = (*KyberOracle)(nil)
