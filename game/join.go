package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"pooldraw/models"
)

type JoinResult struct {
	RoundID    string `json:"roundId"`
	UniqueCode string `json:"uniqueCode"`
	NewBalance int64  `json:"newBalance"`
}

// Join admits a user into the tier's open round: debit the entry fee, log
// the entry, append the participant. The round lock is taken before the user
// lock, always in that order, and every precondition is rechecked on a fresh
// read once both are held. The initial lookup only tells us which round to
// lock.
func (e *Engine) Join(ctx context.Context, userID, gameType string) (*JoinResult, error) {
	if userID == "" {
		return nil, &ValidationError{Msg: "user id is required"}
	}
	tier, ok := e.tiers.Lookup(gameType)
	if !ok {
		return nil, &ValidationError{Msg: fmt.Sprintf("unknown game type %q", gameType)}
	}

	round, err := e.rounds.FindActiveRound(ctx, tier.Type)
	if err != nil {
		return nil, err
	}
	if round == nil || round.Status != models.RoundRunning {
		return nil, &ConflictError{Msg: "no active round available to join"}
	}

	roundMu := e.roundLocks.get(round.RoundID)
	roundMu.Lock()
	defer roundMu.Unlock()
	userMu := e.userLocks.get(userID)
	userMu.Lock()
	defer userMu.Unlock()

	round, err = e.rounds.GetRound(ctx, round.RoundID)
	if err != nil {
		return nil, err
	}
	if round.Status != models.RoundRunning {
		return nil, &ConflictError{Msg: "no active round available to join"}
	}
	if len(round.Participants) >= round.MaxPlayers {
		return nil, &ConflictError{Msg: "round is full"}
	}
	if round.HasParticipant(userID) {
		return nil, &ConflictError{Msg: "you have already joined this round"}
	}

	newBalance, err := e.ledger.AdjustBalance(ctx, userID, -tier.EntryFee)
	if err != nil {
		return nil, err
	}
	err = e.ledger.AppendTransaction(ctx, models.Transaction{
		UserID:      userID,
		Type:        models.TxEntry,
		Amount:      tier.EntryFee,
		Status:      models.TxSuccess,
		ReferenceID: round.RoundID,
		Description: fmt.Sprintf("Entry fee for round %s", round.RoundID),
	})
	if err != nil {
		return nil, e.reverseEntry(ctx, userID, round.RoundID, tier.EntryFee, err)
	}

	participant := models.Participant{
		UserID:     userID,
		JoinTime:   e.now(),
		UniqueCode: strconv.Itoa(len(round.Participants) + 1),
	}
	if err := e.rounds.AppendParticipant(ctx, round.RoundID, participant, len(round.Participants)); err != nil {
		switch {
		case errors.Is(err, ErrRoundFull):
			err = &ConflictError{Msg: "round is full"}
		case errors.Is(err, ErrStale):
			err = &ConflictError{Msg: "round changed while joining, try again"}
		}
		return nil, e.reverseEntry(ctx, userID, round.RoundID, tier.EntryFee, err)
	}

	e.events.Publish(tierTopic(tier.Type), map[string]interface{}{
		"roundId":           round.RoundID,
		"participantsCount": len(round.Participants) + 1,
	})

	return &JoinResult{
		RoundID:    round.RoundID,
		UniqueCode: participant.UniqueCode,
		NewBalance: newBalance,
	}, nil
}

// reverseEntry gives the entry fee back after a join failed between the
// debit and the participant append, then returns cause to the caller.
func (e *Engine) reverseEntry(ctx context.Context, userID, roundID string, fee int64, cause error) error {
	if _, err := e.ledger.AdjustBalance(ctx, userID, fee); err != nil {
		// the debit stands but the user is not in the round; this needs a
		// human and a log line, not silent retry
		log.Printf("FAILED to reverse entry debit of %d for user %s round %s: %v", fee, userID, roundID, err)
		return fmt.Errorf("join failed and refund failed: %v (original: %w)", err, cause)
	}
	err := e.ledger.AppendTransaction(ctx, models.Transaction{
		UserID:      userID,
		Type:        models.TxReversal,
		Amount:      fee,
		Status:      models.TxSuccess,
		ReferenceID: roundID,
		Description: fmt.Sprintf("Entry reversed for round %s", roundID),
	})
	if err != nil {
		log.Printf("failed to record entry reversal for user %s round %s: %v", userID, roundID, err)
	}
	return cause
}
