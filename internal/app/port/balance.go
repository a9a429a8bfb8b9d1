package port

import (
	"context"

	"balance_valuer/internal/domain/entity"
)

// MetadataResolver resolves token display metadata, caching results
// indefinitely. Returns an error wrapping entity.ErrInvalidTokenInfo for
// contracts that cannot be resolved; such failures are not cached.
type MetadataResolver interface {
	Resolve(ctx context.Context, tokenAddress string) (entity.TokenMetadata, error)
}

// BalanceService aggregates an account's holdings and values them in USD.
type BalanceService interface {
	// GetBalances returns the base currency balance followed by all positive,
	// resolvable token balances of the account, in retrieval order.
	GetBalances(ctx context.Context, accountAddress string) ([]entity.Balance, error)

	// GetUSDBalances extends GetBalances with USD amounts. It fails only on
	// invalid input or when no base currency price can be obtained.
	GetUSDBalances(ctx context.Context, accountAddress string) ([]entity.ValuedBalance, error)
}
