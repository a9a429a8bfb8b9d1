package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAddress marks an input that is not a canonical EIP-55 address.
	// Rejected before any network call.
	ErrInvalidAddress = errors.New("invalid account address")

	// ErrPriceUnavailable means every base currency price source failed.
	// Fatal to any USD valuation request.
	ErrPriceUnavailable = errors.New("base currency price unavailable")

	// ErrInvalidTokenInfo means a contract could not be queried as an ERC-20
	// token. Per-token, non-fatal: the balance is dropped from results.
	ErrInvalidTokenInfo = errors.New("invalid token info")
)

// OracleError is the failure of a single on-chain price oracle for a single
// token. It triggers fallback to the next oracle and is never propagated
// past the oracle chain.
type OracleError struct {
	Source       string
	TokenAddress string
	Err          error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("oracle %s: token %s: %v", e.Source, e.TokenAddress, e.Err)
}

func (e *OracleError) Unwrap() error {
	return e.Err
}
