package utils

import "github.com/ethereum/go-ethereum/common"

// IsChecksumAddress reports whether addr is a canonical EIP-55 checksummed
// address. All-lowercase or wrongly cased addresses are rejected.
func IsChecksumAddress(addr string) bool {
	if !common.IsHexAddress(addr) {
		return false
	}
	return common.HexToAddress(addr).Hex() == addr
}
