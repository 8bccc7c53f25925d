package routes

import (
	"github.com/gin-gonic/gin"

	"pooldraw/controllers"
	"pooldraw/game"
	"pooldraw/models"
)

func WebSocketRoutes(r *gin.Engine, hub *models.Hub, engine *game.Engine) {
	r.GET("/ws", controllers.WebSocketHandler(hub, engine))
}
