package game

import (
	"context"
	"time"

	"pooldraw/models"
)

type RoundSummary struct {
	RoundID           string             `json:"roundId"`
	ParticipantsCount int                `json:"participantsCount"`
	MaxPlayers        int                `json:"maxPlayers"`
	EndTime           time.Time          `json:"endTime"`
	Status            models.RoundStatus `json:"status"`
}

type TierSummary struct {
	GameType     string        `json:"gameType"`
	EntryFee     int64         `json:"entryFee"`
	IsActive     bool          `json:"isActive"`
	CurrentRound *RoundSummary `json:"currentRound"`
}

// ListActiveRounds returns one entry per configured tier with the tier's
// current round, if any.
func (e *Engine) ListActiveRounds(ctx context.Context) ([]TierSummary, error) {
	summaries := make([]TierSummary, 0, len(e.tiers.All()))
	for _, tier := range e.tiers.All() {
		round, err := e.rounds.FindActiveRound(ctx, tier.Type)
		if err != nil {
			return nil, err
		}
		summary := TierSummary{
			GameType: tier.Type,
			EntryFee: tier.EntryFee,
			IsActive: round != nil,
		}
		if round != nil {
			summary.CurrentRound = &RoundSummary{
				RoundID:           round.RoundID,
				ParticipantsCount: len(round.Participants),
				MaxPlayers:        round.MaxPlayers,
				EndTime:           round.EndTime,
				Status:            round.Status,
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

type RoundHistoryEntry struct {
	RoundID           string     `json:"roundId"`
	GameType          string     `json:"gameType"`
	EntryFee          int64      `json:"entryFee"`
	Result            string     `json:"result"`
	Payout            int64      `json:"payout"`
	ParticipantsCount int        `json:"participantsCount"`
	YourCode          string     `json:"yourCode"`
	ProcessedAt       *time.Time `json:"processedAt"`
}

// UserRoundHistory reports the user's completed rounds, newest first. The
// per-winner payout is recomputed from the stored pool figures.
func (e *Engine) UserRoundHistory(ctx context.Context, userID string, limit int64) ([]RoundHistoryEntry, error) {
	if userID == "" {
		return nil, &ValidationError{Msg: "user id is required"}
	}
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	rounds, err := e.rounds.FindUserRounds(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	history := make([]RoundHistoryEntry, 0, len(rounds))
	for _, round := range rounds {
		isWinner := false
		for _, w := range round.Winners {
			if w == userID {
				isWinner = true
				break
			}
		}

		entry := RoundHistoryEntry{
			RoundID:           round.RoundID,
			GameType:          round.GameType,
			EntryFee:          round.EntryFee,
			Result:            "LOSS",
			ParticipantsCount: len(round.Participants),
			YourCode:          "N/A",
			ProcessedAt:       round.ResultsProcessedAt,
		}
		for _, p := range round.Participants {
			if p.UserID == userID {
				entry.YourCode = p.UniqueCode
				break
			}
		}
		if isWinner && len(round.Winners) > 0 {
			winningsPool := round.TotalPool - round.PlatformFee
			entry.Result = "WIN"
			entry.Payout = winningsPool / int64(len(round.Winners))
		}
		history = append(history, entry)
	}
	return history, nil
}
