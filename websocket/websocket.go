package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"

	"pooldraw/models"
)

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for simplicity; adjust in production
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HubPublisher adapts the hub to the engine's EventPublisher capability.
// Publishing never blocks: if the hub's queue is full the event is dropped.
type HubPublisher struct {
	Hub *models.Hub
}

func NewHubPublisher(hub *models.Hub) *HubPublisher {
	return &HubPublisher{Hub: hub}
}

func (p *HubPublisher) Publish(topic string, payload interface{}) {
	select {
	case p.Hub.Broadcast <- models.WSMessage{Event: topic, Data: payload}:
	default:
	}
}
