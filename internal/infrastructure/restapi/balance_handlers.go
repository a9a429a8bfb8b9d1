package restapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"balance_valuer/internal/app/port"
	"balance_valuer/internal/domain/entity"
	"balance_valuer/internal/pkg/utils"
)

// BalanceEntry is the wire representation of a single balance. The raw
// amount is serialized as a decimal string to survive JSON number limits.
type BalanceEntry struct {
	TokenAddress string                `json:"tokenAddress,omitempty"`
	Token        *entity.TokenMetadata `json:"token,omitempty"`
	Balance      string                `json:"balance"`
	Formatted    string                `json:"formattedBalance"`
	BalanceUSD   *float64              `json:"balanceUsd,omitempty"`
}

// BalancesResponse is the payload of both balance endpoints.
type BalancesResponse struct {
	Address       string         `json:"address"`
	Balances      []BalanceEntry `json:"balances"`
	TotalValueUSD *float64       `json:"totalValueUsd,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// BalanceHandler handles HTTP requests for account balances.
type BalanceHandler struct {
	balanceService port.BalanceService
	logger         *zap.Logger
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(balanceService port.BalanceService, logger *zap.Logger) *BalanceHandler {
	return &BalanceHandler{
		balanceService: balanceService,
		logger:         logger.Named("BalanceHandler"),
	}
}

// GetBalancesHandler serves GET /api/v1/accounts/:address/balances.
func (h *BalanceHandler) GetBalancesHandler(c *gin.Context) {
	address := c.Param("address")

	balances, err := h.balanceService.GetBalances(c.Request.Context(), address)
	if err != nil {
		h.writeError(c, address, err)
		return
	}

	response := BalancesResponse{
		Address:  address,
		Balances: make([]BalanceEntry, 0, len(balances)),
	}
	for _, balance := range balances {
		response.Balances = append(response.Balances, toBalanceEntry(balance, nil))
	}
	c.JSON(http.StatusOK, response)
}

// GetUSDBalancesHandler serves GET /api/v1/accounts/:address/balances/usd.
func (h *BalanceHandler) GetUSDBalancesHandler(c *gin.Context) {
	address := c.Param("address")

	valued, err := h.balanceService.GetUSDBalances(c.Request.Context(), address)
	if err != nil {
		h.writeError(c, address, err)
		return
	}

	var total float64
	response := BalancesResponse{
		Address:  address,
		Balances: make([]BalanceEntry, 0, len(valued)),
	}
	for _, vb := range valued {
		usd := vb.USDAmount
		response.Balances = append(response.Balances, toBalanceEntry(vb.Balance, &usd))
		total += vb.USDAmount
	}
	total = utils.RoundUSD(total)
	response.TotalValueUSD = &total
	c.JSON(http.StatusOK, response)
}

func (h *BalanceHandler) writeError(c *gin.Context, address string, err error) {
	switch {
	case errors.Is(err, entity.ErrInvalidAddress):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, entity.ErrPriceUnavailable):
		h.logger.Error("Base currency price unavailable", zap.String("address", address), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		h.logger.Error("Failed to fetch balances", zap.String("address", address), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func toBalanceEntry(balance entity.Balance, usd *float64) BalanceEntry {
	decimals := entity.BaseCurrencyDecimals
	if balance.Token != nil {
		decimals = balance.Token.Decimals
	}
	raw := "0"
	if balance.Amount != nil {
		raw = balance.Amount.String()
	}
	return BalanceEntry{
		TokenAddress: balance.TokenAddress,
		Token:        balance.Token,
		Balance:      raw,
		Formatted:    utils.FormatBigInt(balance.Amount, decimals),
		BalanceUSD:   usd,
	}
}
