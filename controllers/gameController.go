// controllers/gameController.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"pooldraw/game"
)

// GameController handles HTTP requests for rounds.
type GameController struct {
	Engine *game.Engine
}

func NewGameController(engine *game.Engine) *GameController {
	return &GameController{Engine: engine}
}

// errorStatus maps the engine's typed errors onto HTTP status codes.
func errorStatus(err error) int {
	var validation *game.ValidationError
	var conflict *game.ConflictError
	var insufficient *game.InsufficientFundsError
	var notFound *game.NotFoundError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &insufficient):
		return http.StatusPaymentRequired
	case errors.As(err, &notFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// GetActiveRounds returns one lobby entry per configured tier.
func (gc *GameController) GetActiveRounds(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, 5*time.Second)
	defer cancel()

	summaries, err := gc.Engine.ListActiveRounds(ctx)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summaries)
}

type joinRequest struct {
	UserID   string `json:"userId" binding:"required"`
	GameType string `json:"gameType" binding:"required"`
}

// JoinRound puts a user into the tier's open round.
func (gc *GameController) JoinRound(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and gameType are required"})
		return
	}

	ctx, cancel := contextWithTimeout(c, 10*time.Second)
	defer cancel()

	result, err := gc.Engine.Join(ctx, req.UserID, req.GameType)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Joined round " + result.RoundID,
		"roundId":    result.RoundID,
		"uniqueCode": result.UniqueCode,
		"newBalance": result.NewBalance,
	})
}

// GetMyRounds returns the user's completed round history.
func (gc *GameController) GetMyRounds(c *gin.Context) {
	userID := c.Query("userId")
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)

	ctx, cancel := contextWithTimeout(c, 5*time.Second)
	defer cancel()

	history, err := gc.Engine.UserRoundHistory(ctx, userID, limit)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, history)
}
