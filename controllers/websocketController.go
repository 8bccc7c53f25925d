// controllers/websocketController.go
package controllers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"pooldraw/game"
	"pooldraw/models"
	"pooldraw/websocket"
)

// WebSocketHandler upgrades the connection, registers the client on the hub
// and sends a snapshot of the active lobbies so new clients do not wait a
// full tick for their first state.
func WebSocketHandler(hub *models.Hub, engine *game.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := websocket.Upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		client := &models.Client{Conn: conn, Send: make(chan models.WSMessage, 256)}
		hub.Register <- client

		go client.WritePump()
		go client.ReadPump(hub)

		go func() {
			// the request context dies with the upgrade, use a fresh one
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			// the client may disconnect while we fetch; SendTo drops the
			// message instead of writing to a closed channel
			summaries, err := engine.ListActiveRounds(ctx)
			if err != nil {
				hub.SendTo(client, models.WSMessage{Event: "error", Data: "failed to fetch active rounds"})
				return
			}
			hub.SendTo(client, models.WSMessage{Event: "active_rounds", Data: summaries})
		}()
	}
}
