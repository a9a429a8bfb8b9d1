package service

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"balance_valuer/internal/domain/entity"
)

const (
	testAccountAddress = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	usdcTokenAddress   = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
)

// stubTokenIndex implements port.TokenIndex.
type stubTokenIndex struct {
	tokens []string
	err    error
}

func (s *stubTokenIndex) TokensUsedBy(_ context.Context, _ string) ([]string, error) {
	return s.tokens, s.err
}

// stubResolver implements port.MetadataResolver.
type stubResolver struct {
	decimals     map[string]uint8
	unresolvable map[string]bool
}

func (s *stubResolver) Resolve(_ context.Context, tokenAddress string) (entity.TokenMetadata, error) {
	if s.unresolvable[tokenAddress] {
		return entity.TokenMetadata{}, fmt.Errorf("resolve token %s: %w", tokenAddress, entity.ErrInvalidTokenInfo)
	}
	decimals := uint8(18)
	if d, ok := s.decimals[tokenAddress]; ok {
		decimals = d
	}
	return entity.TokenMetadata{
		Address:  tokenAddress,
		Name:     "Token " + tokenAddress[:6],
		Symbol:   strings.ToUpper(tokenAddress[2:5]),
		Decimals: decimals,
	}, nil
}

// stubBasePriceFeed implements port.BasePriceFeed.
type stubBasePriceFeed struct {
	price float64
	err   error
}

func (s *stubBasePriceFeed) PriceUSD(_ context.Context) (float64, error) {
	return s.price, s.err
}

// stubTokenPrices implements port.TokenPriceService.
type stubTokenPrices struct {
	prices map[string]float64
}

func (s *stubTokenPrices) PriceInBase(_ context.Context, tokenAddress string) float64 {
	return s.prices[strings.ToLower(tokenAddress)]
}

type balanceServiceFixture struct {
	index      *stubTokenIndex
	chain      *stubChainClient
	resolver   *stubResolver
	basePrice  *stubBasePriceFeed
	tokenPrice *stubTokenPrices
}

func newBalanceServiceFixture() *balanceServiceFixture {
	return &balanceServiceFixture{
		index:      &stubTokenIndex{},
		chain:      &stubChainClient{metadataFn: daiMetadata},
		resolver:   &stubResolver{decimals: map[string]uint8{}, unresolvable: map[string]bool{}},
		basePrice:  &stubBasePriceFeed{price: 2000},
		tokenPrice: &stubTokenPrices{prices: map[string]float64{}},
	}
}

func (f *balanceServiceFixture) build() *balanceServiceImpl {
	svc := NewBalanceService(f.index, f.chain, f.resolver, f.basePrice, f.tokenPrice, zap.NewNop())
	return svc.(*balanceServiceImpl)
}

func bigFromString(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok)
	return v
}

func TestGetBalances_RejectsInvalidAddress(t *testing.T) {
	svc := newBalanceServiceFixture().build()

	for _, addr := range []string{
		strings.ToLower(testAccountAddress), // valid hex but not checksummed
		"0x1234",
		"",
		"definitely not an address",
	} {
		_, err := svc.GetBalances(context.Background(), addr)
		assert.ErrorIs(t, err, entity.ErrInvalidAddress, addr)
	}
}

func TestGetBalances_NoTokenInteractionsReturnsBaseOnly(t *testing.T) {
	f := newBalanceServiceFixture()
	f.chain.rawBalances = []entity.RawBalance{{Amount: big.NewInt(0)}}
	svc := f.build()

	balances, err := svc.GetBalances(context.Background(), testAccountAddress)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.True(t, balances[0].IsBase())
	assert.Nil(t, balances[0].Token)
	assert.Equal(t, int64(0), balances[0].Amount.Int64(), "zero base balance is still reported")
}

func TestGetBalances_DropsNonPositiveTokenAmounts(t *testing.T) {
	f := newBalanceServiceFixture()
	f.index.tokens = []string{testTokenAddress, usdcTokenAddress}
	f.chain.rawBalances = []entity.RawBalance{
		{Amount: big.NewInt(1)},
		{TokenAddress: testTokenAddress, Amount: big.NewInt(0)},
		{TokenAddress: usdcTokenAddress, Amount: big.NewInt(500)},
	}
	svc := f.build()

	balances, err := svc.GetBalances(context.Background(), testAccountAddress)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.True(t, balances[0].IsBase())
	assert.Equal(t, usdcTokenAddress, balances[1].TokenAddress)
}

func TestGetBalances_DropsUnresolvableTokens(t *testing.T) {
	f := newBalanceServiceFixture()
	f.index.tokens = []string{testTokenAddress, usdcTokenAddress}
	f.chain.rawBalances = []entity.RawBalance{
		{Amount: big.NewInt(1)},
		{TokenAddress: testTokenAddress, Amount: big.NewInt(100)},
		{TokenAddress: usdcTokenAddress, Amount: big.NewInt(200)},
	}
	f.resolver.unresolvable[testTokenAddress] = true
	svc := f.build()

	balances, err := svc.GetBalances(context.Background(), testAccountAddress)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, usdcTokenAddress, balances[1].TokenAddress)
	require.NotNil(t, balances[1].Token)
}

func TestGetBalances_PreservesRetrievalOrder(t *testing.T) {
	f := newBalanceServiceFixture()
	f.index.tokens = []string{usdcTokenAddress, testTokenAddress}
	f.chain.rawBalances = []entity.RawBalance{
		{Amount: big.NewInt(7)},
		{TokenAddress: usdcTokenAddress, Amount: big.NewInt(1)},
		{TokenAddress: testTokenAddress, Amount: big.NewInt(2)},
	}
	svc := f.build()

	balances, err := svc.GetBalances(context.Background(), testAccountAddress)
	require.NoError(t, err)
	require.Len(t, balances, 3)
	assert.True(t, balances[0].IsBase())
	assert.Equal(t, usdcTokenAddress, balances[1].TokenAddress)
	assert.Equal(t, testTokenAddress, balances[2].TokenAddress)
}

func TestGetUSDBalances_PropagatesPriceUnavailable(t *testing.T) {
	f := newBalanceServiceFixture()
	f.chain.rawBalances = []entity.RawBalance{{Amount: big.NewInt(1)}}
	f.basePrice.err = fmt.Errorf("%w: all sources failed", entity.ErrPriceUnavailable)
	svc := f.build()

	valued, err := svc.GetUSDBalances(context.Background(), testAccountAddress)
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrPriceUnavailable)
	assert.Nil(t, valued, "no partial results on a fatal failure")
}

func TestGetUSDBalances_BaseCurrencyValuation(t *testing.T) {
	f := newBalanceServiceFixture()
	f.basePrice.price = 2000.0
	f.chain.rawBalances = []entity.RawBalance{
		{Amount: bigFromString(t, "1500000000000000000")}, // 1.5 in 18-decimal units
	}
	svc := f.build()

	valued, err := svc.GetUSDBalances(context.Background(), testAccountAddress)
	require.NoError(t, err)
	require.Len(t, valued, 1)
	assert.Equal(t, 3000.0, valued[0].USDAmount)
}

func TestGetUSDBalances_TokenValuation(t *testing.T) {
	f := newBalanceServiceFixture()
	f.basePrice.price = 2000.0
	f.index.tokens = []string{usdcTokenAddress}
	f.resolver.decimals[usdcTokenAddress] = 6
	f.tokenPrice.prices[strings.ToLower(usdcTokenAddress)] = 0.001
	f.chain.rawBalances = []entity.RawBalance{
		{Amount: big.NewInt(0)},
		{TokenAddress: usdcTokenAddress, Amount: big.NewInt(2_500_000)}, // 2.5 tokens
	}
	svc := f.build()

	valued, err := svc.GetUSDBalances(context.Background(), testAccountAddress)
	require.NoError(t, err)
	require.Len(t, valued, 2)
	assert.Equal(t, 0.0, valued[0].USDAmount)
	assert.Equal(t, 5.0, valued[1].USDAmount) // 2000 * 0.001 * 2.5, rounded to 4 digits
}

func TestGetUSDBalances_ZeroPricedTokenStaysInOutput(t *testing.T) {
	f := newBalanceServiceFixture()
	f.basePrice.price = 2000.0
	f.index.tokens = []string{testTokenAddress}
	f.chain.rawBalances = []entity.RawBalance{
		{Amount: big.NewInt(0)},
		{TokenAddress: testTokenAddress, Amount: bigFromString(t, "1000000000000000000")},
	}
	// No oracle price configured: the chain degraded to zero.
	svc := f.build()

	valued, err := svc.GetUSDBalances(context.Background(), testAccountAddress)
	require.NoError(t, err)
	require.Len(t, valued, 2)
	assert.Equal(t, testTokenAddress, valued[1].TokenAddress)
	assert.Equal(t, 0.0, valued[1].USDAmount, "unpriceable token contributes $0 but is not hidden")
}

func TestGetBalances_TokenIndexErrorPropagates(t *testing.T) {
	f := newBalanceServiceFixture()
	f.index.err = fmt.Errorf("index scan failed")
	svc := f.build()

	_, err := svc.GetBalances(context.Background(), testAccountAddress)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index scan failed")
}
