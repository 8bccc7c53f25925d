package routes

import (
	"github.com/gin-gonic/gin"

	"pooldraw/controllers"
)

func WalletRoutes(r *gin.Engine, wc *controllers.WalletController) {
	r.GET("/api/wallet/balance", wc.GetBalance)
	r.POST("/api/wallet/deposit", wc.Deposit)
	r.POST("/api/wallet/withdraw", wc.Withdraw)
	r.GET("/api/wallet/transactions", wc.GetTransactions)
}
