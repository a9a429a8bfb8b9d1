package entity

// TokenMetadata holds the display information of an ERC-20 token.
// It is immutable once resolved; identity is the contract address.
type TokenMetadata struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	LogoURI  string `json:"logoUri"`
}
