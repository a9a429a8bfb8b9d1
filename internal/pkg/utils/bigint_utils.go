package utils

import (
	"math"
	"math/big"
	"strings"
)

// ToUnits converts a raw on-chain amount in the token's smallest unit to a
// float in whole token units, dividing by 10^decimals.
func ToUnits(amount *big.Int, decimals uint8) float64 {
	if amount == nil {
		return 0
	}
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value, _ := new(big.Float).Quo(new(big.Float).SetInt(amount), divisor).Float64()
	return value
}

// RoundUSD rounds a USD amount to 4 fractional digits, half away from zero.
func RoundUSD(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// FormatBigInt converts a raw amount to a human-readable decimal string,
// e.g. amount=1234500000000000000, decimals=18 => "1.2345".
func FormatBigInt(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	if decimals == 0 {
		return amount.String()
	}

	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value := new(big.Float).Quo(new(big.Float).SetInt(amount), divisor)

	formatted := value.Text('f', int(decimals))
	if strings.Contains(formatted, ".") {
		formatted = strings.TrimRight(formatted, "0")
		formatted = strings.TrimRight(formatted, ".")
	}
	if formatted == "" || formatted == "-" {
		return "0"
	}
	return formatted
}
