package restapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter configures and returns the Gin router.
func SetupRouter(balanceHandler *BalanceHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/accounts/:address/balances", balanceHandler.GetBalancesHandler)
		v1.GET("/accounts/:address/balances/usd", balanceHandler.GetUSDBalancesHandler)
	}

	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
