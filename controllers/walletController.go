// controllers/walletController.go
package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"pooldraw/models"
	"pooldraw/store"
)

// WalletController exposes balance queries and manual deposits/withdrawals.
// All movement goes through the ledger's guarded increment, same as the
// engine's own debits and payouts.
type WalletController struct {
	Store *store.Store
}

func NewWalletController(s *store.Store) *WalletController {
	return &WalletController{Store: s}
}

func contextWithTimeout(c *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), d)
}

// GetBalance returns the user's current wallet balance.
func (wc *WalletController) GetBalance(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId parameter is required"})
		return
	}

	ctx, cancel := contextWithTimeout(c, 5*time.Second)
	defer cancel()

	balance, err := wc.Store.GetBalance(ctx, userID)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

type walletRequest struct {
	UserID string `json:"userId" binding:"required"`
	Amount int64  `json:"amount" binding:"required"`
}

// Deposit credits the user's wallet.
func (wc *WalletController) Deposit(c *gin.Context) {
	var req walletRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and a positive amount are required"})
		return
	}

	ctx, cancel := contextWithTimeout(c, 10*time.Second)
	defer cancel()

	balance, err := wc.Store.AdjustBalance(ctx, req.UserID, req.Amount)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	err = wc.Store.AppendTransaction(ctx, models.Transaction{
		UserID:      req.UserID,
		Type:        models.TxDeposit,
		Amount:      req.Amount,
		Status:      models.TxSuccess,
		Description: fmt.Sprintf("Deposit of %d", req.Amount),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// Withdraw debits the user's wallet; rejected when funds are short.
func (wc *WalletController) Withdraw(c *gin.Context) {
	var req walletRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and a positive amount are required"})
		return
	}

	ctx, cancel := contextWithTimeout(c, 10*time.Second)
	defer cancel()

	balance, err := wc.Store.AdjustBalance(ctx, req.UserID, -req.Amount)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	err = wc.Store.AppendTransaction(ctx, models.Transaction{
		UserID:      req.UserID,
		Type:        models.TxWithdraw,
		Amount:      req.Amount,
		Status:      models.TxSuccess,
		Description: fmt.Sprintf("Withdrawal of %d", req.Amount),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// GetTransactions returns the user's transaction log, newest first.
func (wc *WalletController) GetTransactions(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId parameter is required"})
		return
	}
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	ctx, cancel := contextWithTimeout(c, 5*time.Second)
	defer cancel()

	txs, err := wc.Store.UserTransactions(ctx, userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, txs)
}
