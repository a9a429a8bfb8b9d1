package client

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"balance_valuer/internal/app/port"
	"balance_valuer/internal/domain/entity"
)

// ERC20 ABI, minimal part needed for balances and metadata.
const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"payable":false,"stateMutability":"view","type":"function"}
]`

var (
	parsedERC20ABI  abi.ABI
	parsedERC20Once sync.Once
)

func initParsedERC20ABI() {
	parsedERC20Once.Do(func() {
		var err error
		parsedERC20ABI, err = abi.JSON(strings.NewReader(erc20ABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse ERC20 ABI: %v", err))
		}
	})
}

// EthClient implements port.ChainClient against an Ethereum JSON-RPC node.
type EthClient struct {
	ethClient      *ethclient.Client
	rpcCallTimeout time.Duration
	logger         *zap.Logger
}

// NewEthClient dials the given RPC endpoint and returns a chain client.
func NewEthClient(ctx context.Context, rpcURL string, connectionTimeout, rpcCallTimeout time.Duration, logger *zap.Logger) (*EthClient, error) {
	initParsedERC20ABI()

	dialCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	ec, err := ethclient.DialContext(dialCtx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
	}

	return &EthClient{
		ethClient:      ec,
		rpcCallTimeout: rpcCallTimeout,
		logger:         logger.Named("EthClient"),
	}, nil
}

// Eth exposes the underlying ethclient for collaborators that issue their own
// calls (oracles, log index).
func (c *EthClient) Eth() *ethclient.Client {
	return c.ethClient
}

// RawBalances fetches the base currency balance plus all token balances in a
// single JSON-RPC batch. The base currency entry comes first, tokens follow
// in the supplied order. A token whose call fails is reported with a zero
// amount rather than failing the batch.
func (c *EthClient) RawBalances(ctx context.Context, accountAddress string, tokenAddresses []string) ([]entity.RawBalance, error) {
	account := common.HexToAddress(accountAddress)

	batchElems := make([]rpc.BatchElem, 0, len(tokenAddresses)+1)
	batchElems = append(batchElems, rpc.BatchElem{
		Method: "eth_getBalance",
		Args:   []interface{}{account, "latest"},
		Result: new(*hexutil.Big),
	})

	balanceOfMethod := parsedERC20ABI.Methods["balanceOf"]
	for _, tokenAddress := range tokenAddresses {
		callData := append(balanceOfMethod.ID, common.LeftPadBytes(account.Bytes(), 32)...)
		callArgs := map[string]interface{}{
			"to":   common.HexToAddress(tokenAddress),
			"data": hexutil.Bytes(callData),
		}
		batchElems = append(batchElems, rpc.BatchElem{
			Method: "eth_call",
			Args:   []interface{}{callArgs, "latest"},
			Result: new(hexutil.Bytes),
		})
	}

	rpcCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()

	if err := c.ethClient.Client().BatchCallContext(rpcCtx, batchElems); err != nil {
		return nil, fmt.Errorf("RPC batch call failed for %s: %w", accountAddress, err)
	}

	results := make([]entity.RawBalance, 0, len(batchElems))

	baseAmount := big.NewInt(0)
	if batchElems[0].Error != nil {
		return nil, fmt.Errorf("failed to fetch base currency balance for %s: %w", accountAddress, batchElems[0].Error)
	}
	if result, ok := batchElems[0].Result.(**hexutil.Big); ok && result != nil && *result != nil {
		baseAmount = (*big.Int)(*result)
	}
	results = append(results, entity.RawBalance{Amount: baseAmount})

	for i, tokenAddress := range tokenAddresses {
		elem := batchElems[i+1]
		amount := big.NewInt(0)

		switch {
		case elem.Error != nil:
			c.logger.Warn("Token balance call failed, reporting zero",
				zap.String("tokenAddress", tokenAddress),
				zap.String("accountAddress", accountAddress),
				zap.Error(elem.Error))
		default:
			result, ok := elem.Result.(*hexutil.Bytes)
			if !ok || result == nil || len(*result) == 0 {
				break
			}
			unpacked, err := parsedERC20ABI.Unpack("balanceOf", *result)
			if err != nil || len(unpacked) == 0 {
				c.logger.Warn("Failed to unpack balanceOf result, reporting zero",
					zap.String("tokenAddress", tokenAddress),
					zap.String("raw", hexutil.Encode(*result)),
					zap.Error(err))
				break
			}
			if v, ok := unpacked[0].(*big.Int); ok {
				amount = v
			}
		}

		results = append(results, entity.RawBalance{TokenAddress: tokenAddress, Amount: amount})
	}

	return results, nil
}

// TokenMetadata fetches name, symbol and decimals of a token contract in one
// batch. Any reverting or unparseable field marks the contract as not a
// valid ERC-20 token.
func (c *EthClient) TokenMetadata(ctx context.Context, tokenAddress string) (entity.TokenMetadata, error) {
	token := common.HexToAddress(tokenAddress)

	methods := []string{"name", "symbol", "decimals"}
	batchElems := make([]rpc.BatchElem, len(methods))
	for i, method := range methods {
		callArgs := map[string]interface{}{
			"to":   token,
			"data": hexutil.Bytes(parsedERC20ABI.Methods[method].ID),
		}
		batchElems[i] = rpc.BatchElem{
			Method: "eth_call",
			Args:   []interface{}{callArgs, "latest"},
			Result: new(hexutil.Bytes),
		}
	}

	rpcCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()

	if err := c.ethClient.Client().BatchCallContext(rpcCtx, batchElems); err != nil {
		return entity.TokenMetadata{}, fmt.Errorf("RPC batch call failed for token %s: %w", tokenAddress, err)
	}

	values := make([]interface{}, len(methods))
	for i, method := range methods {
		if batchElems[i].Error != nil {
			return entity.TokenMetadata{}, fmt.Errorf("%w: %s call reverted for %s: %v",
				entity.ErrInvalidTokenInfo, method, tokenAddress, batchElems[i].Error)
		}
		result, ok := batchElems[i].Result.(*hexutil.Bytes)
		if !ok || result == nil || len(*result) == 0 {
			return entity.TokenMetadata{}, fmt.Errorf("%w: empty %s response for %s",
				entity.ErrInvalidTokenInfo, method, tokenAddress)
		}
		unpacked, err := parsedERC20ABI.Unpack(method, *result)
		if err != nil || len(unpacked) == 0 {
			return entity.TokenMetadata{}, fmt.Errorf("%w: cannot decode %s response for %s: %v",
				entity.ErrInvalidTokenInfo, method, tokenAddress, err)
		}
		values[i] = unpacked[0]
	}

	name, okName := values[0].(string)
	symbol, okSymbol := values[1].(string)
	decimals, okDecimals := values[2].(uint8)
	if !okName || !okSymbol || !okDecimals {
		return entity.TokenMetadata{}, fmt.Errorf("%w: unexpected field types for %s",
			entity.ErrInvalidTokenInfo, tokenAddress)
	}

	return entity.TokenMetadata{
		Address:  tokenAddress,
		Name:     name,
		Symbol:   symbol,
		Decimals: decimals,
	}, nil
}

var _ port.ChainClient = (*EthClient)(nil)
