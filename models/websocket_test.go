package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSendToDroppedClientDoesNotPanic(t *testing.T) {
	// a client can disconnect while a snapshot is being fetched for it; by
	// then the hub has closed its channel and a direct send would panic
	hub := NewHub()
	client := &Client{Send: make(chan WSMessage, 1)}
	close(client.Send)

	hub.SendTo(client, WSMessage{Event: "active_rounds"})
}

func TestSendToDeliversToRegisteredClient(t *testing.T) {
	hub := NewHub()
	client := &Client{Send: make(chan WSMessage, 1)}
	hub.Clients[client] = true

	hub.SendTo(client, WSMessage{Event: "active_rounds", Data: "snapshot"})

	select {
	case msg := <-client.Send:
		assert.Equal(t, "active_rounds", msg.Event)
	default:
		t.Fatal("message was not delivered")
	}
}

func TestSendToDropsWhenClientQueueIsFull(t *testing.T) {
	hub := NewHub()
	client := &Client{Send: make(chan WSMessage)}
	hub.Clients[client] = true

	// nobody draining an unbuffered channel: the send must not block
	hub.SendTo(client, WSMessage{Event: "active_rounds"})
}
