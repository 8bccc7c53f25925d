package models

import (
	"time"
)

type RoundStatus string

const (
	RoundRunning    RoundStatus = "running"
	RoundProcessing RoundStatus = "processing"
	RoundCompleted  RoundStatus = "completed"
	RoundCancelled  RoundStatus = "cancelled"
)

// Terminal reports whether a round in this status can never change again.
func (s RoundStatus) Terminal() bool {
	return s == RoundCompleted || s == RoundCancelled
}

type Participant struct {
	UserID     string    `json:"userId" bson:"userId"`
	JoinTime   time.Time `json:"joinTime" bson:"joinTime"`
	UniqueCode string    `json:"uniqueCode" bson:"uniqueCode"`
	IsWinner   bool      `json:"isWinner" bson:"isWinner"`
}

// Round is the engine's unit of play. Participants are stored in join order;
// a participant's position in the slice is what assigned its unique code.
// Financial fields and winners stay at their zero values until the round
// reaches a terminal status, after which the document is never written again.
type Round struct {
	RoundID             string        `json:"roundId" bson:"roundId"`
	GameType            string        `json:"gameType" bson:"gameType"`
	EntryFee            int64         `json:"entryFee" bson:"entryFee"`
	MinPlayers          int           `json:"minPlayers" bson:"minPlayers"`
	MaxPlayers          int           `json:"maxPlayers" bson:"maxPlayers"`
	EntryWindowSeconds  int           `json:"entryWindowSeconds" bson:"entryWindowSeconds"`
	Participants        []Participant `json:"participants" bson:"participants"`
	TotalPool           int64         `json:"totalPool" bson:"totalPool"`
	PlatformFee         int64         `json:"platformFee" bson:"platformFee"`
	WinningsDistributed int64         `json:"winningsDistributed" bson:"winningsDistributed"`
	StartTime           time.Time     `json:"startTime" bson:"startTime"`
	EndTime             time.Time     `json:"endTime" bson:"endTime"`
	ResultsProcessedAt  *time.Time    `json:"resultsProcessedAt,omitempty" bson:"resultsProcessedAt,omitempty"`
	Winners             []string      `json:"winners,omitempty" bson:"winners,omitempty"`
	WinningSeed         string        `json:"winningSeed,omitempty" bson:"winningSeed,omitempty"`
	Status              RoundStatus   `json:"status" bson:"status"`
}

// HasParticipant reports whether the user already joined this round.
func (r *Round) HasParticipant(userID string) bool {
	for _, p := range r.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// Remaining returns the time left in the entry window, clamped at zero.
func (r *Round) Remaining(now time.Time) time.Duration {
	remaining := r.EndTime.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
