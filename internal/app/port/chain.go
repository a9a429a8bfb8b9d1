package port

import (
	"context"

	"balance_valuer/internal/domain/entity"
)

// ChainClient defines the interface for the blockchain RPC collaborator.
type ChainClient interface {
	// RawBalances fetches the base currency balance plus the balances of the
	// given token contracts for an account in one batched call. The returned
	// order is: base currency first, then tokens in the supplied order.
	RawBalances(ctx context.Context, accountAddress string, tokenAddresses []string) ([]entity.RawBalance, error)

	// TokenMetadata fetches name, symbol and decimals of a token contract.
	// Returns an error wrapping entity.ErrInvalidTokenInfo if the contract
	// does not answer as an ERC-20 token.
	TokenMetadata(ctx context.Context, tokenAddress string) (entity.TokenMetadata, error)
}

// TokenIndex enumerates the token contracts an account has ever interacted
// with. Backed by a persistent index collaborator.
type TokenIndex interface {
	TokensUsedBy(ctx context.Context, accountAddress string) ([]string, error)
}
