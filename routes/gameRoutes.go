package routes

import (
	"github.com/gin-gonic/gin"

	"pooldraw/controllers"
)

func GameRoutes(r *gin.Engine, gc *controllers.GameController) {
	r.GET("/api/game/active", gc.GetActiveRounds)
	r.POST("/api/game/join", gc.JoinRound)
	r.GET("/api/game/myrounds", gc.GetMyRounds)
}
