package entity

import "math/big"

// BaseCurrencyDecimals is the fixed precision of the chain's native currency.
const BaseCurrencyDecimals uint8 = 18

// RawBalance is a single entry returned by the chain RPC collaborator.
// An empty TokenAddress denotes the base currency.
type RawBalance struct {
	TokenAddress string
	Amount       *big.Int
}

// Balance represents the amount of a single asset held by an account.
// For the base currency TokenAddress is empty and Token is nil.
type Balance struct {
	TokenAddress string         `json:"tokenAddress,omitempty"`
	Token        *TokenMetadata `json:"token,omitempty"`
	Amount       *big.Int       `json:"-"`
}

// IsBase reports whether the balance is the chain's base currency.
func (b Balance) IsBase() bool {
	return b.TokenAddress == ""
}

// ValuedBalance is a Balance extended with its USD value,
// rounded to 4 fractional digits.
type ValuedBalance struct {
	Balance
	USDAmount float64 `json:"balanceUsd"`
}
