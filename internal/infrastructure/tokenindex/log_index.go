package tokenindex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"balance_valuer/internal/app/port"
)

// transferTopic is keccak256("Transfer(address,address,uint256)").
var transferTopic = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

// LogIndex implements port.TokenIndex by scanning ERC-20 Transfer logs with
// the account as recipient. Public RPC endpoints cap the block range of
// eth_getLogs, so the scan is chunked and throttled.
type LogIndex struct {
	ethClient  *ethclient.Client
	startBlock uint64
	chunkSize  uint64
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewLogIndex creates a Transfer-log backed token index.
func NewLogIndex(ethClient *ethclient.Client, startBlock, chunkSize uint64, requestsPerSecond float64, logger *zap.Logger) *LogIndex {
	if chunkSize == 0 {
		chunkSize = 10_000
	}
	return &LogIndex{
		ethClient:  ethClient,
		startBlock: startBlock,
		chunkSize:  chunkSize,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:     logger.Named("LogIndex"),
	}
}

// TokensUsedBy returns the addresses of every token contract that ever
// emitted a Transfer to the account, de-duplicated in first-seen order.
func (ix *LogIndex) TokensUsedBy(ctx context.Context, accountAddress string) ([]string, error) {
	latest, err := ix.ethClient.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest block number: %w", err)
	}

	accountTopic := common.BytesToHash(common.HexToAddress(accountAddress).Bytes())

	seen := make(map[common.Address]struct{})
	var tokens []string

	for from := ix.startBlock; from <= latest; from += ix.chunkSize {
		to := from + ix.chunkSize - 1
		if to > latest {
			to = latest
		}

		if err := ix.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("token index scan interrupted: %w", err)
		}

		query := ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(from),
			ToBlock:   new(big.Int).SetUint64(to),
			Topics: [][]common.Hash{
				{transferTopic},
				nil,
				{accountTopic},
			},
		}

		logs, err := ix.ethClient.FilterLogs(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to filter Transfer logs for blocks %d-%d: %w", from, to, err)
		}

		for _, lg := range logs {
			if _, ok := seen[lg.Address]; ok {
				continue
			}
			seen[lg.Address] = struct{}{}
			tokens = append(tokens, lg.Address.Hex())
		}
	}

	ix.logger.Debug("Token index scan complete",
		zap.String("accountAddress", accountAddress),
		zap.Uint64("fromBlock", ix.startBlock),
		zap.Uint64("toBlock", latest),
		zap.Int("tokenCount", len(tokens)))
	return tokens, nil
}

var _ port.TokenIndex = (*LogIndex)(nil)
