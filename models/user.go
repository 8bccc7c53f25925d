package models

import (
	"time"
)

// User holds only what the engine needs: a wallet balance in whole currency
// units. Identity, sessions and profile data live in a separate service.
type User struct {
	UserID    string    `json:"userId" bson:"userId"`
	Balance   int64     `json:"balance" bson:"balance"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
